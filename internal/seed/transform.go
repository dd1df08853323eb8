package seed

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp column names added when Config.Timestamps is set.
const (
	CreatedAtColumn = "created_at"
	UpdatedAtColumn = "updated_at"
)

// Transformer converts raw CSV rows into Records for one run.
type Transformer struct {
	Mapping  Mapping
	Hashable []string
	Hasher   Hasher
	Trim     bool

	Timestamps bool
	CreatedAt  string
	UpdatedAt  string
	Now        func() time.Time

	stamped bool
}

// Transform reads row into a Record using the transformer's mapping.
//
// Missing positions and empty strings become nil. Trimming happens before
// hashing, so surrounding whitespace never reaches the hash. An error is
// returned only when hashing fails.
func (t *Transformer) Transform(row []string) (Record, error) {
	rec := make(Record, len(t.Mapping)+2)

	for _, col := range t.Mapping {
		if col.Position >= len(row) || row[col.Position] == "" {
			rec[col.Field] = nil
			continue
		}
		v := row[col.Position]
		if t.Trim {
			v = strings.TrimSpace(v)
		}
		rec[col.Field] = v
	}

	for _, field := range t.Hashable {
		v, ok := rec[field].(string)
		if !ok {
			continue
		}
		hashed, err := t.Hasher.Hash(v)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", field, err)
		}
		rec[field] = hashed
	}

	if t.Timestamps {
		created, updated := t.timestamps()
		rec[CreatedAtColumn] = created
		rec[UpdatedAtColumn] = updated
	}

	return rec, nil
}

// timestamps fills CreatedAt/UpdatedAt on first use. Every later row of the
// run gets the same values.
func (t *Transformer) timestamps() (string, string) {
	if !t.stamped {
		now := time.Now
		if t.Now != nil {
			now = t.Now
		}
		ts := now().Format(TimestampLayout)
		if t.CreatedAt == "" {
			t.CreatedAt = ts
		}
		if t.UpdatedAt == "" {
			t.UpdatedAt = ts
		}
		t.stamped = true
	}
	return t.CreatedAt, t.UpdatedAt
}
