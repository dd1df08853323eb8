// Package seed populates a database table from a delimited text file.
//
// A run streams the file one row at a time, so memory use is bounded by the
// configured chunk size rather than the file size. The pipeline is:
//
//  1. [OpenSource] opens the file, transparently decompressing gzip input
//     (detected from content, not the file name) and dropping a leading
//     UTF-8 BOM.
//  2. The first [Config.OffsetRows] rows are discarded.
//  3. Without an explicit [Config.Mapping], the next row is consumed as the
//     header and filtered against the destination's columns.
//  4. Each remaining row is turned into a [Record]: empty cells become NULL,
//     values are optionally trimmed, hashable fields are hashed and
//     created_at/updated_at are stamped.
//  5. Records are collected by an [Accumulator] and written by a [Sink] in
//     batches of [Config.ChunkSize].
//
// # Failure Handling
//
// Only an unavailable source aborts a run ([ErrSourceUnavailable]). A batch
// that fails to insert is logged with its [InsertError] and the run carries
// on with the next batch; [Result.Failed] reports whether that happened.
//
// # Collaborators
//
// Storage, hashing and logging are injected through the [Destination],
// [Hasher] and [Logger] interfaces so the pipeline can be exercised with
// in-memory fakes:
//
//	s := seed.Seeder{
//	    Destination: router,
//	    Hasher:      hashing.NewBcrypt(10),
//	    Logger:      slog.Default(),
//	}
//	res, err := s.Run(ctx, seed.Config{
//	    Table:    "users",
//	    Filename: "seeds/users.csv.gz",
//	})
package seed
