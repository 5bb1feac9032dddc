// Package adapter provides the backend contract of leapdb and the pieces
// shared by every backend.
//
// An Adapter owns a connection pool (or a single handle for embedded
// backends). Connect acquires one physical connection, opens a transaction
// on it and returns a *Tx; every canonical operation runs on a Tx. A Tx is
// released exactly once, by Close (commit), Rollback, or the adapter's
// Shutdown.
//
// Concrete adapters live in pkg/adapters/ and register themselves in init().
package adapter

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Config is an alias for core.AdapterConfig.
type Config = core.AdapterConfig

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Name returns the registered adapter name.
	Name() string

	// Open establishes the pool or handle described by cfg.
	Open(ctx context.Context, cfg Config) error

	// Connect acquires a connection and begins a transaction on it.
	Connect(ctx context.Context) (*Tx, error)

	// Shutdown closes the pool. Transactions still open are rolled back.
	Shutdown() error

	// Dialect returns the SQL dialect of the backend.
	Dialect() Dialect

	// Handle exposes the underlying pool, for tools that manage their own
	// transactions (migrations).
	Handle() *sql.DB
}

// Dialect extends core.Dialect with the operations that need a connection.
type Dialect interface {
	core.Dialect

	// TableColumns lists the live columns of table in ordinal order. A
	// missing table yields an empty slice.
	TableColumns(ctx context.Context, q Querier, table string) ([]core.TableColumn, error)

	// SupportsReturning reports whether generated keys are read with
	// INSERT ... RETURNING rather than LastInsertId.
	SupportsReturning() bool

	// GooseDialect names the goose migration dialect, or "" when the
	// backend has none.
	GooseDialect() string
}

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
