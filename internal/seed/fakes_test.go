package seed

import (
	"context"
	"fmt"
	"strings"
)

// memDestination is an in-memory Destination keyed by connection and table.
type memDestination struct {
	columns map[string][]string // table -> columns
	inserts []memInsert
	failOn  map[int]error // insert call index -> error
	unique  string        // column enforced as unique, if set
	seen    map[string]bool
	after   func(idx int) // called after each insert, if set
}

type memInsert struct {
	connection string
	table      string
	records    []Record
}

func newMemDestination(table string, columns ...string) *memDestination {
	return &memDestination{
		columns: map[string][]string{table: columns},
		failOn:  map[int]error{},
		seen:    map[string]bool{},
	}
}

func (m *memDestination) HasColumn(_ context.Context, _, table, column string) (bool, error) {
	for _, c := range m.columns[table] {
		if c == column {
			return true, nil
		}
	}
	return false, nil
}

func (m *memDestination) Insert(_ context.Context, connection, table string, records []Record) error {
	idx := len(m.inserts)
	m.inserts = append(m.inserts, memInsert{connection: connection, table: table, records: records})
	if m.after != nil {
		defer m.after(idx)
	}
	if err, ok := m.failOn[idx]; ok {
		return err
	}
	if m.unique != "" {
		for _, r := range records {
			key := fmt.Sprint(r[m.unique])
			if m.seen[key] {
				return fmt.Errorf("UNIQUE constraint failed: %s.%s", table, m.unique)
			}
		}
		for _, r := range records {
			m.seen[fmt.Sprint(r[m.unique])] = true
		}
	}
	return nil
}

// records flattens every insert call, including failed ones.
func (m *memDestination) records() []Record {
	var out []Record
	for _, ins := range m.inserts {
		out = append(out, ins.records...)
	}
	return out
}

// errDestination fails every column lookup.
type errDestination struct{ memDestination }

func (e *errDestination) HasColumn(context.Context, string, string, string) (bool, error) {
	return false, fmt.Errorf("connection refused")
}

// memLogger records messages by level.
type memLogger struct {
	infos  []string
	errors []string
}

func (l *memLogger) Info(msg string, _ ...any)  { l.infos = append(l.infos, msg) }
func (l *memLogger) Error(msg string, _ ...any) { l.errors = append(l.errors, msg) }

func (l *memLogger) hasError(substr string) bool {
	for _, e := range l.errors {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

// prefixHasher is a deterministic stand-in for bcrypt.
var prefixHasher = HasherFunc(func(s string) (string, error) {
	return "hashed:" + s, nil
})
