package adapter

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Tx is one transaction on one exclusively held connection. It stays on
// the same physical connection across Commit checkpoints until it is
// released by Close or Rollback.
type Tx struct {
	conn    *sql.Conn
	tx      *sql.Tx
	ctx     context.Context
	dialect Dialect
	logger  *slog.Logger
	owner   *BaseSQLAdapter

	mu       sync.Mutex
	released bool
}

// Dialect returns the dialect of the backend the transaction runs on.
func (t *Tx) Dialect() Dialect {
	return t.dialect
}

// Released reports whether the connection has been given back.
func (t *Tx) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}

// Close commits the transaction and releases the connection.
func (t *Tx) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return core.ErrConnectionReleased
	}

	err := t.tx.Commit()
	t.release()
	if err != nil {
		return &core.TransactionError{Op: "commit", Err: err}
	}
	t.logger.Debug("transaction committed")
	return nil
}

// Commit commits the work done so far and begins a new transaction on the
// same connection. If either step fails the connection is released.
func (t *Tx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return core.ErrConnectionReleased
	}

	if err := t.tx.Commit(); err != nil {
		t.release()
		return &core.TransactionError{Op: "commit", Err: err}
	}
	next, err := t.conn.BeginTx(t.ctx, nil)
	if err != nil {
		t.release()
		return &core.TransactionError{Op: "begin transaction", Err: err}
	}
	t.tx = next
	t.logger.Debug("transaction checkpoint")
	return nil
}

// Rollback reverts the transaction and releases the connection. A
// transaction already aborted by context cancellation rolls back cleanly.
func (t *Tx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return core.ErrConnectionReleased
	}

	err := t.tx.Rollback()
	t.release()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		t.logger.Warn("rollback failed", "error", err)
		return &core.TransactionError{Op: "rollback", Err: err}
	}
	t.logger.Debug("transaction rolled back")
	return nil
}

// release gives the connection back to the pool. Callers hold t.mu.
func (t *Tx) release() {
	if err := t.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		t.logger.Warn("failed to release connection", "error", err)
	}
	t.released = true
	if t.owner != nil {
		t.owner.untrack(t)
	}
}

// active returns the current *sql.Tx, or an error once released.
func (t *Tx) active() (*sql.Tx, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return nil, core.ErrConnectionReleased
	}
	return t.tx, nil
}

// exec runs a statement that returns no rows.
func (t *Tx) exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	tx, err := t.active()
	if err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		t.logger.Debug("statement failed", "sql", query, "error", err)
		return nil, &core.TransactionError{Op: "execute statement", Err: err}
	}
	t.logger.Debug("statement executed", "sql", query, "args", len(args))
	return res, nil
}

// query runs a statement and scans up to limit rows (0 means all).
func (t *Tx) query(ctx context.Context, query string, args []any, limit int) ([]core.Record, error) {
	tx, err := t.active()
	if err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		t.logger.Debug("query failed", "sql", query, "error", err)
		return nil, &core.TransactionError{Op: "execute query", Err: err}
	}
	defer func() { _ = rows.Close() }()

	records, err := ScanRecords(rows, limit)
	if err != nil {
		return nil, &core.TransactionError{Op: "read rows", Err: err}
	}
	t.logger.Debug("query executed", "sql", query, "args", len(args), "rows", len(records))
	return records, nil
}
