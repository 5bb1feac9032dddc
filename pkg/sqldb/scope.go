package sqldb

import (
	"context"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

type scopeKey struct{}

type scope struct {
	db *DB
	tx *adapter.Tx
}

// Connection runs fn inside a transaction scope. The transaction commits
// when fn returns nil and rolls back when fn returns an error, panics, or
// the context is cancelled; the connection is released in every case. The
// error returned by fn is returned unchanged.
//
// Calling Connection with a context that already carries a scope of this
// DB joins that scope: the outermost call owns commit and rollback.
func (db *DB) Connection(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := db.current(ctx); ok {
		return fn(ctx)
	}

	tx, err := db.adapter.Connect(ctx)
	if err != nil {
		return err
	}
	scoped := context.WithValue(ctx, scopeKey{}, &scope{db: db, tx: tx})

	done := false
	defer func() {
		if !done {
			db.rollback(tx)
		}
	}()

	if err := fn(scoped); err != nil {
		done = true
		db.rollback(tx)
		return err
	}
	if err := ctx.Err(); err != nil {
		done = true
		db.rollback(tx)
		return err
	}

	done = true
	return tx.Close()
}

func (db *DB) rollback(tx *adapter.Tx) {
	if err := tx.Rollback(); err != nil {
		db.logger.Warn("rollback failed", "error", err)
	}
}

// current returns the transaction of the scope carried by ctx, if the
// scope belongs to db.
func (db *DB) current(ctx context.Context) (*adapter.Tx, bool) {
	s, ok := ctx.Value(scopeKey{}).(*scope)
	if !ok || s.db != db || s.tx.Released() {
		return nil, false
	}
	return s.tx, true
}

// run executes fn on the current transaction, or in a scope of its own
// when ctx carries none.
func (db *DB) run(ctx context.Context, fn func(ctx context.Context, tx *adapter.Tx) error) error {
	if tx, ok := db.current(ctx); ok {
		return fn(ctx, tx)
	}
	return db.Connection(ctx, func(ctx context.Context) error {
		tx, _ := db.current(ctx)
		return fn(ctx, tx)
	})
}

// Tx returns the transaction of the current scope, for direct access to
// the canonical adapter operations. Outside a scope it returns
// core.ErrNoTransaction.
func (db *DB) Tx(ctx context.Context) (*adapter.Tx, error) {
	tx, ok := db.current(ctx)
	if !ok {
		return nil, core.ErrNoTransaction
	}
	return tx, nil
}

// Commit checkpoints the current scope: the work so far is committed and
// the scope continues on the same connection.
func (db *DB) Commit(ctx context.Context) error {
	tx, err := db.Tx(ctx)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Execute runs a statement with :name parameters and returns the affected
// row count.
func (db *DB) Execute(ctx context.Context, sql string, params map[string]any) (int64, error) {
	var n int64
	err := db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		var err error
		n, err = tx.Execute(ctx, sql, params)
		return err
	})
	return n, err
}

// ExecuteScript runs a script of one or more statements.
func (db *DB) ExecuteScript(ctx context.Context, script string) error {
	return db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		return tx.ExecuteScript(ctx, script)
	})
}

// FetchAll runs a query and returns its rows as stored.
func (db *DB) FetchAll(ctx context.Context, sql string, params map[string]any) ([]core.Record, error) {
	var rows []core.Record
	err := db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		var err error
		rows, err = tx.FetchAll(ctx, sql, params)
		return err
	})
	return rows, err
}

// FetchOne runs a query and returns its first row as stored, or nil.
func (db *DB) FetchOne(ctx context.Context, sql string, params map[string]any) (core.Record, error) {
	var row core.Record
	err := db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		var err error
		row, err = tx.FetchOne(ctx, sql, params)
		return err
	})
	return row, err
}
