// Package sqlite provides the embedded SQLite adapter for leapdb.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/adapter"

	_ "modernc.org/sqlite" // sqlite driver
)

// Adapter implements the adapter.Adapter interface for SQLite.
//
// SQLite allows one writer at a time and an in-memory database exists only
// on the connection that created it, so the pool is pinned to a single
// connection. Transactions are serialized behind it.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger, D: Dialect{}},
	}
}

// Name returns the registered adapter name.
func (a *Adapter) Name() string {
	return "sqlite"
}

// Open opens the database file at cfg.Path.
// Use ":memory:" as the path for an in-memory database.
func (a *Adapter) Open(ctx context.Context, cfg adapter.Config) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = adapter.MemoryPath
	}
	dsn := buildDSN(path, params)

	a.Logger.Debug("opening sqlite database", slog.String("path", path))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if path != adapter.MemoryPath && cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := adapter.Ping(ctx, db, cfg); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildDSN appends the connection pragmas. They are applied by the driver
// to every new connection.
func buildDSN(path string, p *Params) string {
	pragmas := url.Values{}
	pragmas.Add("_pragma", "foreign_keys(1)")
	if p.BusyTimeout > 0 {
		pragmas.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", p.BusyTimeout))
	}
	if p.JournalMode != "" {
		pragmas.Add("_pragma", "journal_mode("+strings.ToUpper(p.JournalMode)+")")
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + pragmas.Encode()
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
