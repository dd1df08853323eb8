package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvseed/internal/logging"
)

// Seeder runs seed imports against a Destination.
type Seeder struct {
	Destination Destination
	Hasher      Hasher
	Logger      Logger           // defaults to logging.FromContext
	Now         func() time.Time // defaults to time.Now
}

// Run imports cfg.Filename into cfg.Table.
//
// If the file cannot be opened the error wraps ErrSourceUnavailable and the
// result is empty. Failed batches do not stop the run; they are counted in
// the result and the first one is kept in Result.InsertErr. A mapping with
// no usable columns yields ErrDegenerateMapping together with the result.
//
// A run ID stored in ctx with logging.ContextWithRunID is reused; otherwise
// one is generated. When ctx is canceled Run stops reading, skips the final
// flush and returns the context error.
func (s *Seeder) Run(ctx context.Context, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	start := s.now()
	ctx, log, runID := s.runContext(ctx)

	res := &Result{
		RunID:    runID,
		Table:    cfg.Table,
		Filename: cfg.Filename,
	}
	defer func() { res.Duration = s.now().Sub(start) }()

	if cfg.Table == "" {
		return res, errors.New("seed: table is required")
	}

	src, err := OpenSource(cfg.Filename, SourceOptions{
		Delimiter:    cfg.Delimiter,
		SanitizeUTF8: cfg.SanitizeUTF8,
	})
	if err != nil {
		log.Error(err.Error(), "table", cfg.Table)
		return res, err
	}
	defer src.Close()

	sink := &Sink{
		Destination: s.Destination,
		Logger:      log,
		Table:       cfg.Table,
		Connection:  cfg.Connection,
		Filename:    cfg.Filename,
	}
	acc := NewAccumulator(cfg.ChunkSize, func(ctx context.Context, batch []Record) error {
		err := sink.Insert(ctx, batch)
		log.Info("batch flushed",
				"table", cfg.Table,
			"rows", len(batch),
			"ok", err == nil,
			"progress", src.Progress(),
		)
		return err
	})

	tr := &Transformer{
		Trim:       cfg.Trim,
		Hasher:     s.Hasher,
		Timestamps: cfg.Timestamps,
		CreatedAt:  cfg.CreatedAt,
		UpdatedAt:  cfg.UpdatedAt,
		Now:        s.Now,
	}
	resolved := false
	if len(cfg.Mapping) > 0 {
		if err := s.useMapping(tr, cfg.Mapping, cfg.Hashable, res); err != nil {
			return res, err
		}
		resolved = true
	}

	skip := cfg.OffsetRows
	var readErr, ctxErr error
	for {
		if ctxErr = ctx.Err(); ctxErr != nil {
			log.Error("seed interrupted", "table", cfg.Table, "file", src.Path(), "row", res.RowsRead, "error", ctxErr)
			break
		}
		row, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			readErr = err
			log.Error("read failed", "table", cfg.Table, "file", src.Path(), "row", res.RowsRead+1, "error", err)
			break
		}
		res.RowsRead++

		if skip > 0 {
			skip--
			res.RowsSkipped++
			continue
		}

		if !resolved {
			mapping := MappingFromHeader(ctx, row, cfg.Table, boundColumns{s.Destination, cfg.Connection}, log)
			if err := s.useMapping(tr, mapping, cfg.Hashable, res); err != nil {
				return res, err
			}
			resolved = true
			res.RowsSkipped++
			continue
		}

		if res.Degenerate {
			res.RowsSkipped++
			continue
		}

		rec, err := tr.Transform(row)
		if err != nil {
			res.RowsSkipped++
			log.Error("row skipped", "table", cfg.Table, "row", res.RowsRead, "error", err)
			continue
		}
		if len(rec) == 0 {
			res.RowsSkipped++
			continue
		}

		res.RowsPrepared++
		if cfg.CollectRows {
			res.Rows = append(res.Rows, rec)
		}
		acc.Add(ctx, rec)
	}

	if ctxErr == nil {
		acc.Close(ctx)
	}

	res.Batches = acc.Flushes()
	res.FailedBatches = acc.Failures()
	res.RowsInserted = acc.Flushed()
	res.InsertErr = acc.Err()

	log.Info("seed finished",
		"table", cfg.Table,
		"file", cfg.Filename,
		"rows_prepared", res.RowsPrepared,
		"rows_inserted", res.RowsInserted,
		"batches", res.Batches,
		"failed_batches", res.FailedBatches,
	)

	switch {
	case ctxErr != nil:
		return res, ctxErr
	case readErr != nil:
		return res, readErr
	case res.Degenerate:
		return res, fmt.Errorf("%w: table %s, CSV %s", ErrDegenerateMapping, cfg.Table, cfg.Filename)
	}
	return res, nil
}

// useMapping installs the resolved mapping and trims the hashable set to it.
func (s *Seeder) useMapping(tr *Transformer, mapping Mapping, hashable []string, res *Result) error {
	tr.Mapping = mapping
	tr.Hashable = RemoveUnusedHashColumns(hashable, mapping)
	res.Degenerate = len(mapping) == 0
	if len(tr.Hashable) > 0 && s.Hasher == nil {
		return fmt.Errorf("seed: columns %v must be hashed but no hasher is configured", tr.Hashable)
	}
	return nil
}

func (s *Seeder) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// runContext returns ctx carrying the run ID and the logger for the run.
// When the ID came from ctx, Logger is expected to carry it already, as
// loggers built with logging.WithFields do.
func (s *Seeder) runContext(ctx context.Context) (context.Context, Logger, string) {
	runID := logging.RunIDFromContext(ctx)
	fromCtx := runID != ""
	if !fromCtx {
		runID = uuid.NewString()
		ctx = logging.ContextWithRunID(ctx, runID)
	}
	switch {
	case s.Logger == nil:
		return ctx, logging.FromContext(ctx), runID
	case fromCtx:
		return ctx, s.Logger, runID
	default:
		return ctx, runLogger{Logger: s.Logger, runID: runID}, runID
	}
}

// runLogger prefixes every entry with the run ID.
type runLogger struct {
	Logger
	runID string
}

func (l runLogger) Info(msg string, args ...any) {
	l.Logger.Info(msg, append([]any{"run_id", l.runID}, args...)...)
}

func (l runLogger) Error(msg string, args ...any) {
	l.Logger.Error(msg, append([]any{"run_id", l.runID}, args...)...)
}
