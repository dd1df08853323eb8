package seed

import (
	"context"
	"slices"
	"sort"
)

// Column maps one CSV position to a destination column.
type Column struct {
	Position int
	Field    string
}

// Mapping is an ordered list of CSV position to column entries. Positions
// need not be contiguous; unmapped CSV columns are ignored.
type Mapping []Column

// NewMapping builds a Mapping from position => column pairs, ordered by
// position.
func NewMapping(m map[int]string) Mapping {
	out := make(Mapping, 0, len(m))
	for pos, field := range m {
		out = append(out, Column{Position: pos, Field: field})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Fields returns the mapped column names in mapping order.
func (m Mapping) Fields() []string {
	fields := make([]string, len(m))
	for i, c := range m {
		fields[i] = c.Field
	}
	return fields
}

// Has reports whether field is a target of the mapping.
func (m Mapping) Has(field string) bool {
	for _, c := range m {
		if c.Field == field {
			return true
		}
	}
	return false
}

// MappingFromHeader maps each header position whose name is a column of
// table. Positions are kept as they appear in the header, so a dropped
// column leaves a gap rather than shifting later ones.
//
// A failed column lookup is reported through log and the column is treated
// as absent.
func MappingFromHeader(ctx context.Context, header []string, table string, cc ColumnChecker, log Logger) Mapping {
	mapping := make(Mapping, 0, len(header))
	for pos, name := range header {
		ok, err := cc.HasColumn(ctx, table, name)
		if err != nil {
			log.Error("column lookup failed", "table", table, "column", name, "error", err)
			continue
		}
		if ok {
			mapping = append(mapping, Column{Position: pos, Field: name})
		}
	}
	return mapping
}

// RemoveUnusedHashColumns returns the hashable fields that the mapping
// actually produces, in their original order. Rows never contain the
// others, so there is no point looking for them.
func RemoveUnusedHashColumns(hashable []string, mapping Mapping) []string {
	out := make([]string, 0, len(hashable))
	for _, field := range hashable {
		if mapping.Has(field) && !slices.Contains(out, field) {
			out = append(out, field)
		}
	}
	return out
}

// boundColumns pins a Destination to one connection.
type boundColumns struct {
	dest       Destination
	connection string
}

func (b boundColumns) HasColumn(ctx context.Context, table, column string) (bool, error) {
	return b.dest.HasColumn(ctx, b.connection, table, column)
}
