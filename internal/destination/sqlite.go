package destination

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/JonMunkholm/csvseed/internal/seed"
)

// sqliteMaxParams is SQLITE_MAX_VARIABLE_NUMBER for SQLite 3.32 and later.
const sqliteMaxParams = 32766

// SQLite is a Conn backed by database/sql and mattn/go-sqlite3.
type SQLite struct {
	db   *sql.DB
	owns bool

	mu      sync.Mutex
	columns map[string]map[string]bool
}

var sqliteDialect = dialect{
	quoteTable:  quoteSQLite,
	quoteColumn: quoteSQLite,
	placeholder: func(int) string { return "?" },
	maxParams:   sqliteMaxParams,
}

func quoteSQLite(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// OpenSQLite opens dsn and pings it. The handle is limited to one
// connection so ":memory:" databases stay shared across calls.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := NewSQLite(db)
	s.owns = true
	return s, nil
}

// NewSQLite wraps an existing handle. Close does not close db.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, columns: make(map[string]map[string]bool)}
}

// DB returns the underlying handle.
func (s *SQLite) DB() *sql.DB { return s.db }

// HasColumn reports whether table has column, using PRAGMA table_info.
func (s *SQLite) HasColumn(ctx context.Context, table, column string) (bool, error) {
	cols, err := s.tableColumns(ctx, table)
	if err != nil {
		return false, err
	}
	return cols[column], nil
}

func (s *SQLite) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cols, ok := s.columns[table]; ok {
		return cols, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list columns of %s: %w", table, err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}

	s.columns[table] = cols
	return cols, nil
}

// Insert writes records with multi-row INSERTs in one transaction.
func (s *SQLite) Insert(ctx context.Context, table string, records []seed.Record) error {
	stmts := buildInserts(sqliteDialect, table, records)
	if len(stmts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() // No-op if already committed

	for _, st := range stmts {
		if _, err := tx.ExecContext(ctx, st.sql, st.args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close closes the handle opened by OpenSQLite.
func (s *SQLite) Close() error {
	if s.owns {
		return s.db.Close()
	}
	return nil
}
