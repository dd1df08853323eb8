// Package destination implements seed.Destination over real databases.
//
// A Router holds named connections. The empty name selects the default
// connection. Each connection is a Postgres pool (pgx) or a SQLite handle
// (database/sql with mattn/go-sqlite3).
package destination

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/csvseed/internal/seed"
)

// Drivers accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Conn is one destination database.
type Conn interface {
	HasColumn(ctx context.Context, table, column string) (bool, error)
	Insert(ctx context.Context, table string, records []seed.Record) error
	Close() error
}

// Options tune connection pools. Zero values keep driver defaults.
type Options struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	ConnectTimeout  time.Duration
}

// Open connects to dsn with the named driver and verifies the connection.
func Open(ctx context.Context, driver, dsn string, opts Options) (Conn, error) {
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}

	switch driver {
	case DriverPostgres:
		return OpenPostgres(ctx, dsn, opts)
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// ErrUnknownConnection is returned for a connection name the Router does
// not hold.
var ErrUnknownConnection = errors.New("unknown connection")

// Router dispatches seed.Destination calls to named connections.
type Router struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

var _ seed.Destination = (*Router)(nil)

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{conns: make(map[string]Conn)}
}

// Add registers c under name, replacing and closing any previous one.
func (r *Router) Add(name string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.conns[name]; ok && old != c {
		old.Close()
	}
	r.conns[name] = c
}

// Names returns the registered connection names in sorted order.
func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.conns))
	for n := range r.conns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Router) conn(name string) (Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[name]
	if !ok {
		if name == "" {
			return nil, fmt.Errorf("%w: no default connection configured", ErrUnknownConnection)
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownConnection, name)
	}
	return c, nil
}

// HasColumn reports whether table on connection has column.
func (r *Router) HasColumn(ctx context.Context, connection, table, column string) (bool, error) {
	c, err := r.conn(connection)
	if err != nil {
		return false, err
	}
	return c.HasColumn(ctx, table, column)
}

// Insert writes records to table on connection.
func (r *Router) Insert(ctx context.Context, connection, table string, records []seed.Record) error {
	c, err := r.conn(connection)
	if err != nil {
		return err
	}
	return c.Insert(ctx, table, records)
}

// Close closes every connection and returns the joined errors.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for name, c := range r.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(r.conns, name)
	}
	return errors.Join(errs...)
}
