package destination

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/csvseed/internal/seed"
)

// pgMaxParams is the Postgres wire protocol limit on bind parameters.
const pgMaxParams = 65535

// DBTX is the subset of pgx used by Postgres.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Begin(context.Context) (pgx.Tx, error)
}

// Postgres is a Conn backed by a pgx pool.
type Postgres struct {
	db    DBTX
	close func()

	mu      sync.Mutex
	columns map[string]map[string]bool // table -> column set
}

var pgDialect = dialect{
	quoteTable:  func(t string) string { return pgx.Identifier(strings.Split(t, ".")).Sanitize() },
	quoteColumn: func(c string) string { return pgx.Identifier{c}.Sanitize() },
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	maxParams:   pgMaxParams,
}

// OpenPostgres creates a pool for dsn and pings it.
func OpenPostgres(ctx context.Context, dsn string, opts Options) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	p := NewPostgres(pool)
	p.close = pool.Close
	return p, nil
}

// NewPostgres wraps an existing pool or transaction. Close does not close db.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db, columns: make(map[string]map[string]bool)}
}

// HasColumn reports whether table has column. Columns are loaded once per
// table from information_schema. A schema-qualified table ("audit.users")
// is looked up in that schema, otherwise in current_schema().
func (p *Postgres) HasColumn(ctx context.Context, table, column string) (bool, error) {
	cols, err := p.tableColumns(ctx, table)
	if err != nil {
		return false, err
	}
	return cols[column], nil
}

func (p *Postgres) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cols, ok := p.columns[table]; ok {
		return cols, nil
	}

	var schema *string
	name := table
	if i := strings.LastIndexByte(table, '.'); i >= 0 {
		s := table[:i]
		schema, name = &s, table[i+1:]
	}

	rows, err := p.db.Query(ctx, `
		SELECT column_name::text
		FROM information_schema.columns
		WHERE table_schema = COALESCE($1::text, current_schema())
		  AND table_name = $2::text`, schema, name)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}

	cols := make(map[string]bool, len(names))
	for _, n := range names {
		cols[n] = true
	}
	p.columns[table] = cols
	return cols, nil
}

// Insert writes records with multi-row INSERTs in one transaction.
func (p *Postgres) Insert(ctx context.Context, table string, records []seed.Record) error {
	stmts := buildInserts(pgDialect, table, records)
	if len(stmts) == 0 {
		return nil
	}
	if len(stmts) == 1 {
		_, err := p.db.Exec(ctx, stmts[0].sql, stmts[0].args...)
		return err
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	for _, s := range stmts {
		if _, err := tx.Exec(ctx, s.sql, s.args...); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Close closes the pool opened by OpenPostgres.
func (p *Postgres) Close() error {
	if p.close != nil {
		p.close()
	}
	return nil
}
