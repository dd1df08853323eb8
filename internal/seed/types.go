package seed

import (
	"context"
	"sort"
	"time"
)

// Record maps destination column names to values. A nil value is stored as
// NULL; everything else is a string.
type Record map[string]any

// Columns returns the sorted union of column names across records.
// Destinations use it to build a single column list for a batch.
func Columns(records []Record) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// ColumnChecker reports whether a table has a given column.
type ColumnChecker interface {
	HasColumn(ctx context.Context, table, column string) (bool, error)
}

// Destination is the storage the seeder writes to. Connection names select
// one of several configured databases; the empty name is the default.
type Destination interface {
	HasColumn(ctx context.Context, connection, table, column string) (bool, error)
	Insert(ctx context.Context, connection, table string, records []Record) error
}

// Hasher one-way hashes a field value, e.g. a password.
type Hasher interface {
	Hash(plaintext string) (string, error)
}

// HasherFunc adapts a plain function to the Hasher interface.
type HasherFunc func(string) (string, error)

// Hash calls f(plaintext).
func (f HasherFunc) Hash(plaintext string) (string, error) {
	return f(plaintext)
}

// Logger receives error and progress messages. *slog.Logger satisfies it.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Default values applied by Config.withDefaults.
const (
	DefaultChunkSize = 50
	DefaultDelimiter = ','
)

// DefaultHashable is used when Config.Hashable is nil.
var DefaultHashable = []string{"password"}

// TimestampLayout formats generated created_at/updated_at values.
const TimestampLayout = "2006-01-02 15:04:05"

// Config describes one seed run. It is not modified by Run.
type Config struct {
	Table      string
	Filename   string
	Connection string // empty selects the default connection

	Delimiter  rune // defaults to ','
	OffsetRows int  // rows discarded before the header or first data row
	Trim       bool // trim leading/trailing whitespace from values

	// Timestamps adds created_at and updated_at to every record. Empty
	// CreatedAt/UpdatedAt are filled once, on first use, from the clock.
	Timestamps bool
	CreatedAt  string
	UpdatedAt  string

	// Mapping of CSV position to column. When empty the first row after
	// OffsetRows is read as the header.
	Mapping Mapping

	// Hashable lists columns to hash before insert. nil means
	// DefaultHashable; an empty non-nil slice disables hashing.
	Hashable []string

	ChunkSize int // rows per INSERT, defaults to DefaultChunkSize

	SanitizeUTF8 bool // replace invalid UTF-8 bytes with '?'
	CollectRows  bool // keep every prepared record in Result.Rows
}

func (c Config) withDefaults() Config {
	if c.Delimiter == 0 {
		c.Delimiter = DefaultDelimiter
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.Hashable == nil {
		c.Hashable = append([]string(nil), DefaultHashable...)
	}
	if c.OffsetRows < 0 {
		c.OffsetRows = 0
	}
	return c
}

// Result summarises a run.
type Result struct {
	RunID    string
	Table    string
	Filename string

	RowsRead     int // raw rows read from the file, header included
	RowsSkipped  int // offset rows, the header, empty records and rows that failed to hash
	RowsPrepared int // records handed to the accumulator

	Batches       int // insert calls issued
	FailedBatches int
	RowsInserted  int // rows in batches that succeeded

	// Degenerate is set when the mapping resolved to zero columns.
	Degenerate bool

	// Rows holds every prepared record when Config.CollectRows is set.
	Rows []Record

	// InsertErr is the first batch failure, nil if none failed.
	InsertErr error

	Duration time.Duration
}

// Failed reports whether at least one batch failed to insert.
func (r *Result) Failed() bool {
	return r.FailedBatches > 0
}
