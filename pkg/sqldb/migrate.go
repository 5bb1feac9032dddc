package sqldb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// ErrMigrationInScope is returned when migrations are started from inside
// a transaction scope. Migrations manage their own transactions.
var ErrMigrationInScope = errors.New("migrations cannot run inside a transaction scope")

// Migrate applies every pending goose migration found in dir of fsys and
// returns the applied results. A directory without migrations is a no-op.
func (db *DB) Migrate(ctx context.Context, fsys fs.FS, dir string) ([]*goose.MigrationResult, error) {
	p, err := db.migrationProvider(ctx, fsys, dir)
	if err != nil || p == nil {
		return nil, err
	}

	results, err := p.Up(ctx)
	for _, r := range results {
		if r.Error != nil {
			continue
		}
		db.logger.Info("migration applied",
			"version", r.Source.Version,
			"path", r.Source.Path,
			"duration", r.Duration)
	}
	if err != nil {
		return results, fmt.Errorf("failed to run migrations: %w", err)
	}
	return results, nil
}

// MigrationStatus reports the state of every migration in dir of fsys.
func (db *DB) MigrationStatus(ctx context.Context, fsys fs.FS, dir string) ([]*goose.MigrationStatus, error) {
	p, err := db.migrationProvider(ctx, fsys, dir)
	if err != nil || p == nil {
		return nil, err
	}
	status, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}
	return status, nil
}

func (db *DB) migrationProvider(ctx context.Context, fsys fs.FS, dir string) (*goose.Provider, error) {
	if _, ok := db.current(ctx); ok {
		return nil, ErrMigrationInScope
	}
	dialect := db.Dialect().GooseDialect()
	if dialect == "" {
		return nil, fmt.Errorf("migrations are not supported on %s", db.Dialect().Name())
	}

	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations directory: %w", err)
	}
	p, err := goose.NewProvider(goose.Dialect(dialect), db.adapter.Handle(), sub)
	if errors.Is(err, goose.ErrNoMigrations) {
		db.logger.Info("no migrations found", "dir", dir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return p, nil
}
