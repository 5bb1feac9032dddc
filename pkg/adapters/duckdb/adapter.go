// Package duckdb provides the DuckDB adapter for leapdb.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/adapter"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
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
	return "duckdb"
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

	a.Logger.Debug("opening duckdb database", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	adapter.ConfigurePool(db, cfg)

	// Test the connection
	if err := adapter.Ping(ctx, db, cfg); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	for _, stmt := range setupStatements(params) {
		a.Logger.Debug("applying duckdb setting", slog.String("sql", stmt))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to configure duckdb: %w", err)
		}
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// setupStatements returns the statements that install extensions and apply
// settings, in a stable order.
func setupStatements(p *Params) []string {
	var stmts []string
	for _, ext := range p.Extensions {
		stmts = append(stmts, "INSTALL "+ext, "LOAD "+ext)
	}

	settings := make(map[string]string, len(p.Settings)+2)
	for k, v := range p.Settings {
		settings[k] = v
	}
	if p.Threads > 0 {
		settings["threads"] = fmt.Sprint(p.Threads)
	}
	if p.MemoryLimit != "" {
		settings["memory_limit"] = p.MemoryLimit
	}

	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stmts = append(stmts, fmt.Sprintf("SET GLOBAL %s = '%s'", k, strings.ReplaceAll(settings[k], "'", "''")))
	}
	return stmts
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
