package destination

import (
	"strings"

	"github.com/JonMunkholm/csvseed/internal/seed"
)

// statement is one parameterised multi-row INSERT.
type statement struct {
	sql  string
	args []any
}

// dialect describes how a database quotes names and numbers parameters.
type dialect struct {
	quoteTable  func(string) string
	quoteColumn func(string) string
	placeholder func(n int) string // n is 1-based
	maxParams   int
}

// buildInserts renders records as INSERT statements over the union of
// their columns. Missing keys insert NULL. Statements are split so none
// exceeds the dialect's parameter limit.
func buildInserts(d dialect, table string, records []seed.Record) []statement {
	if len(records) == 0 {
		return nil
	}
	cols := seed.Columns(records)
	if len(cols) == 0 {
		return nil
	}

	perStmt := len(records)
	if d.maxParams > 0 {
		perStmt = max(1, d.maxParams/len(cols))
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.quoteColumn(c)
	}
	prefix := "INSERT INTO " + d.quoteTable(table) + " (" + strings.Join(quoted, ", ") + ") VALUES "

	var out []statement
	for start := 0; start < len(records); start += perStmt {
		end := min(start+perStmt, len(records))
		chunk := records[start:end]

		var b strings.Builder
		b.WriteString(prefix)
		args := make([]any, 0, len(chunk)*len(cols))
		for i, rec := range chunk {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('(')
			for j, c := range cols {
				if j > 0 {
					b.WriteString(", ")
				}
				args = append(args, rec[c])
				b.WriteString(d.placeholder(len(args)))
			}
			b.WriteByte(')')
		}
		out = append(out, statement{sql: b.String(), args: args})
	}
	return out
}
