// Package postgres provides the PostgreSQL adapter for leapdb.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
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
	return "postgres"
}

// Open establishes the connection pool.
func (a *Adapter) Open(ctx context.Context, cfg adapter.Config) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}

	connCfg, err := pgx.ParseConfig(buildPostgresDSN(cfg, params))
	if err != nil {
		return fmt.Errorf("invalid postgres connection string: %w", err)
	}
	if params.SearchPath != "" {
		connCfg.RuntimeParams["search_path"] = params.SearchPath
	}
	if cfg.ConnectTimeout > 0 {
		connCfg.ConnectTimeout = cfg.ConnectTimeout
	}

	a.Logger.Debug("connecting to postgres", slog.String("host", connCfg.Host), slog.String("database", connCfg.Database))

	db := stdlib.OpenDB(*connCfg)
	adapter.ConfigurePool(db, cfg)

	if err := adapter.Ping(ctx, db, cfg); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN returns the descriptor DSN when there is one, and
// otherwise a key=value connection string built from params.
func buildPostgresDSN(cfg adapter.Config, p *Params) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	host := p.Host
	if host == "" {
		host = "localhost"
	}

	port := p.Port
	if port == 0 {
		port = 5432
	}

	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, p.Database, sslmode)

	if p.User != "" {
		dsn += fmt.Sprintf(" user=%s", p.User)
	}
	if p.Password != "" {
		dsn += fmt.Sprintf(" password=%s", p.Password)
	}

	return dsn
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
