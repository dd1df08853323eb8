package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvseed/internal/config"
	"github.com/JonMunkholm/csvseed/internal/destination"
	"github.com/JonMunkholm/csvseed/internal/hashing"
	"github.com/JonMunkholm/csvseed/internal/logging"
	"github.com/JonMunkholm/csvseed/internal/seed"
)

type openFunc func(ctx context.Context, driver, dsn string, opts destination.Options) (destination.Conn, error)

var openConn openFunc = destination.Open

// openRouter connects to every connection the seeds use. The empty name is
// the default connection from DATABASE_URL.
func (a *app) openRouter(ctx context.Context, conns map[string]config.Connection, seeds []config.Seed) (*destination.Router, error) {
	needed := make(map[string]bool)
	for _, s := range seeds {
		needed[s.Connection] = true
	}
	names := make([]string, 0, len(needed))
	for n := range needed {
		names = append(names, n)
	}
	sort.Strings(names)

	db := a.cfg.Database
	opts := destination.Options{
		MaxConns:        db.MaxConns,
		MinConns:        db.MinConns,
		MaxConnLifetime: db.MaxConnLifetime,
		ConnectTimeout:  db.ConnectTimeout,
	}

	router := destination.NewRouter()
	for _, name := range names {
		driver, dsn := db.Driver, db.URL
		if name != "" {
			c, ok := conns[name]
			if !ok {
				router.Close()
				return nil, fmt.Errorf("%w: %q", destination.ErrUnknownConnection, name)
			}
			driver, dsn = c.Driver, c.DSN
		} else if dsn == "" {
			router.Close()
			return nil, errors.New("no default connection: set DATABASE_URL or name a connection")
		}

		conn, err := a.open(ctx, driver, dsn, opts)
		if err != nil {
			router.Close()
			return nil, fmt.Errorf("connection %s: %w", displayName(name), err)
		}
		router.Add(name, conn)
		a.logger.Info("connected", "connection", displayName(name), "driver", driver)
	}
	return router, nil
}

// runSeeds runs each seed in order and writes one summary line per seed.
// Every seed runs even if an earlier one failed.
func (a *app) runSeeds(ctx context.Context, dest seed.Destination, seeds []config.Seed, out io.Writer) error {
	s := &seed.Seeder{
		Destination: dest,
		Hasher:      hashing.NewBcrypt(a.cfg.Seed.BcryptCost),
		Logger:      a.logger,
	}

	var failed []string
	for _, sd := range seeds {
		res, err := a.runSeed(ctx, s, sd)
		writeSummary(out, sd.Name, res, err)
		if err != nil || res.Failed() {
			failed = append(failed, sd.Name)
		}
		if ctx.Err() != nil {
			break
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%w: %v", errSeedFailed, failed)
	}
	return nil
}

func (a *app) runSeed(ctx context.Context, s *seed.Seeder, sd config.Seed) (*seed.Result, error) {
	if t := a.cfg.Seed.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	ctx = logging.ContextWithRunID(ctx, uuid.NewString())
	log := logging.WithFields(ctx, "seed", sd.Name, "connection", displayName(sd.Connection))
	log.Info("seed started", "table", sd.Table, "file", sd.File)

	run := *s
	run.Logger = log
	return run.Run(ctx, sd.RunConfig(a.cfg.Seed))
}

func writeSummary(w io.Writer, name string, res *seed.Result, err error) {
	if res == nil {
		res = &seed.Result{}
	}
	status := "ok"
	switch {
	case err != nil:
		status = "error: " + err.Error()
	case res.Failed():
		status = fmt.Sprintf("%d failed batch(es): %v", res.FailedBatches, res.InsertErr)
	}
	fmt.Fprintf(w, "%s\t%s\trun=%s read=%d prepared=%d inserted=%d skipped=%d batches=%d\t%s\n",
		name, res.Table, res.RunID, res.RowsRead, res.RowsPrepared, res.RowsInserted, res.RowsSkipped, res.Batches, status)
}

func displayName(connection string) string {
	if connection == "" {
		return "default"
	}
	return connection
}
