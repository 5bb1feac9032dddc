package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Connect, Shutdown and Handle implementations; the concrete adapter sets
// DB in Open and D in its constructor.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	D      Dialect
	Logger *slog.Logger

	mu   sync.Mutex
	open map[*Tx]struct{}
}

// Dialect returns the SQL dialect of the backend.
func (b *BaseSQLAdapter) Dialect() Dialect {
	return b.D
}

// Handle returns the underlying pool.
func (b *BaseSQLAdapter) Handle() *sql.DB {
	return b.DB
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Connect acquires a physical connection and begins a transaction on it.
// The context governs the whole transaction: cancelling it aborts the
// transaction on the backend.
func (b *BaseSQLAdapter) Connect(ctx context.Context) (*Tx, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	conn, err := b.DB.Conn(ctx)
	if err != nil {
		return nil, &core.TransactionError{Op: "acquire connection", Err: err}
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		_ = conn.Close()
		return nil, &core.TransactionError{Op: "begin transaction", Err: err}
	}

	t := &Tx{
		conn:    conn,
		tx:      tx,
		ctx:     ctx,
		dialect: b.D,
		logger:  b.logger(),
		owner:   b,
	}
	b.track(t)
	t.logger.Debug("transaction started")
	return t, nil
}

// Shutdown rolls back every transaction still open and closes the pool.
func (b *BaseSQLAdapter) Shutdown() error {
	b.mu.Lock()
	pending := make([]*Tx, 0, len(b.open))
	for t := range b.open {
		pending = append(pending, t)
	}
	b.mu.Unlock()

	var errs []error
	for _, t := range pending {
		if err := t.Rollback(); err != nil && !errors.Is(err, core.ErrConnectionReleased) {
			errs = append(errs, err)
		}
	}

	if b.DB != nil {
		b.logger().Debug("closing database connection")
		if err := b.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

func (b *BaseSQLAdapter) track(t *Tx) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.open == nil {
		b.open = make(map[*Tx]struct{})
	}
	b.open[t] = struct{}{}
}

func (b *BaseSQLAdapter) untrack(t *Tx) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.open, t)
}

// DefaultConnectTimeout bounds the initial ping when the config sets none.
const DefaultConnectTimeout = 10 * time.Second

// ConfigurePool applies the pool settings of cfg to db. Zero values keep
// the database/sql defaults.
func ConfigurePool(db *sql.DB, cfg Config) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// Ping verifies db is reachable within cfg.ConnectTimeout.
func Ping(ctx context.Context, db *sql.DB, cfg Config) error {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return db.PingContext(ctx)
}
