package sqldb

import (
	"context"
	"reflect"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/query"
	"github.com/leapstack-labs/leapdb/pkg/schema"
)

// TableConfig describes a table to register.
type TableConfig struct {
	// Name is the table name.
	Name string
	// PrimaryKey names the schema column holding the primary key.
	PrimaryKey string
	// Schema is the ordered column list.
	Schema *schema.Schema
	// Hooks run around writes that go through the pipeline.
	Hooks Hooks
	// AutoIncrement lets the backend generate an integer primary key.
	AutoIncrement bool
	// NewKey generates a primary key for inserts that do not carry one.
	// Text primary keys default to random UUIDs.
	NewKey func() any
}

// Table is the read/write pipeline for one registered table.
type Table struct {
	db            *DB
	name          string
	schema        *schema.Schema
	pk            string
	autoIncrement bool
	hooks         Hooks
	newKey        func() any
}

func newTable(db *DB, cfg TableConfig) (*Table, error) {
	if !schema.ValidIdentifier(cfg.Name) {
		return nil, &core.SchemaError{Table: cfg.Name, Message: "invalid table name"}
	}
	if cfg.Schema == nil || cfg.Schema.Len() == 0 {
		return nil, &core.SchemaError{Table: cfg.Name, Message: "table has no columns"}
	}
	if cfg.PrimaryKey == "" {
		return nil, &core.SchemaError{Table: cfg.Name, Message: "primary key is required"}
	}
	pk, ok := cfg.Schema.Column(cfg.PrimaryKey)
	if !ok {
		return nil, &core.SchemaError{Table: cfg.Name, Column: cfg.PrimaryKey, Message: "primary key is not a schema column"}
	}
	if pk.Encrypted || pk.JSONEncoded {
		return nil, &core.SchemaError{Table: cfg.Name, Column: cfg.PrimaryKey, Message: "primary key cannot be encrypted or json-encoded"}
	}
	if cfg.AutoIncrement && pk.Type != core.TypeInteger {
		return nil, &core.SchemaError{Table: cfg.Name, Column: cfg.PrimaryKey, Message: "auto-increment primary key must be an integer column"}
	}

	newKey := cfg.NewKey
	if newKey == nil && !cfg.AutoIncrement && pk.Type == core.TypeText {
		newKey = func() any { return uuid.NewString() }
	}

	return &Table{
		db:            db,
		name:          cfg.Name,
		schema:        cfg.Schema,
		pk:            cfg.PrimaryKey,
		autoIncrement: cfg.AutoIncrement,
		hooks:         cfg.Hooks,
		newKey:        newKey,
	}, nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Schema returns the table schema.
func (t *Table) Schema() *schema.Schema { return t.schema }

// PrimaryKey returns the primary key column name.
func (t *Table) PrimaryKey() string { return t.pk }

// Insert writes one record through the pipeline and returns its primary
// key: the key in data, a generated key, or the backend's auto-increment
// value.
func (t *Table) Insert(ctx context.Context, data core.Record) (any, error) {
	var key any
	err := t.db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		var err error
		key, err = t.insert(ctx, tx, data)
		return err
	})
	return key, err
}

func (t *Table) insert(ctx context.Context, tx *adapter.Tx, data core.Record) (any, error) {
	rec := data.Clone()
	if rec == nil {
		rec = core.Record{}
	}
	rec, err := t.hooks.beforeInsert(ctx, rec)
	if err != nil {
		return nil, err
	}
	if err := t.checkColumns(rec); err != nil {
		return nil, err
	}

	backendKey, err := t.assignKey(rec)
	if err != nil {
		return nil, err
	}

	stored, err := t.encode(rec)
	if err != nil {
		return nil, err
	}

	if backendKey {
		delete(stored, t.pk)
		id, err := tx.InsertReturningID(ctx, t.name, stored, t.pk)
		if err != nil {
			return nil, err
		}
		if id, err = normalize(core.TypeInteger, id); err != nil {
			return nil, err
		}
		rec[t.pk] = id
	} else if _, err := tx.Insert(ctx, t.name, stored); err != nil {
		return nil, err
	}

	if err := t.hooks.afterInsert(ctx, rec); err != nil {
		return nil, err
	}
	return rec[t.pk], nil
}

// InsertRaw writes data as given: no hooks, no encoding, no encryption.
// A missing primary key is still generated.
func (t *Table) InsertRaw(ctx context.Context, data core.Record) (any, error) {
	var key any
	err := t.db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		rec := data.Clone()
		if rec == nil {
			rec = core.Record{}
		}
		backendKey, err := t.assignKey(rec)
		if err != nil {
			return err
		}
		if backendKey {
			delete(rec, t.pk)
			id, err := tx.InsertReturningID(ctx, t.name, rec, t.pk)
			if err != nil {
				return err
			}
			key, err = normalize(core.TypeInteger, id)
			return err
		}
		if _, err := tx.Insert(ctx, t.name, rec); err != nil {
			return err
		}
		key = rec[t.pk]
		return nil
	})
	return key, err
}

// assignKey fills in a missing primary key. It reports true when the
// backend must generate the key instead.
func (t *Table) assignKey(rec core.Record) (bool, error) {
	if v, ok := rec[t.pk]; ok && v != nil {
		return false, nil
	}
	switch {
	case t.autoIncrement:
		return true, nil
	case t.newKey != nil:
		rec[t.pk] = t.newKey()
		return false, nil
	default:
		return false, &core.ValidationError{Table: t.name, Column: t.pk, Message: "missing primary key"}
	}
}

// Update applies values to every row matching where and returns the number
// of rows written. Each row goes through the pipeline on its own.
func (t *Table) Update(ctx context.Context, values, where core.Record) (int64, error) {
	q, err := t.Query(QueryOptions{Where: where})
	if err != nil {
		return 0, err
	}
	return q.Update(ctx, values)
}

// UpdateRaw sets values on the rows matching where in one statement,
// skipping the pipeline.
func (t *Table) UpdateRaw(ctx context.Context, values, where core.Record) (int64, error) {
	q, err := t.Query(QueryOptions{Where: where})
	if err != nil {
		return 0, err
	}
	return q.UpdateRaw(ctx, values)
}

// Delete removes every row matching where, running the delete hooks per
// row, and returns the number of rows deleted.
func (t *Table) Delete(ctx context.Context, where core.Record) (int64, error) {
	q, err := t.Query(QueryOptions{Where: where})
	if err != nil {
		return 0, err
	}
	return q.Delete(ctx)
}

// DeleteRaw removes the rows matching where in one statement, without
// hooks.
func (t *Table) DeleteRaw(ctx context.Context, where core.Record) (int64, error) {
	q, err := t.Query(QueryOptions{Where: where})
	if err != nil {
		return 0, err
	}
	return q.DeleteRaw(ctx)
}

// Select returns the decoded rows matching opts.
func (t *Table) Select(ctx context.Context, opts QueryOptions) ([]core.Record, error) {
	q, err := t.Query(opts)
	if err != nil {
		return nil, err
	}
	return q.Fetch(ctx)
}

// SelectOne returns the first decoded row matching opts, or nil.
func (t *Table) SelectOne(ctx context.Context, opts QueryOptions) (core.Record, error) {
	q, err := t.Query(opts)
	if err != nil {
		return nil, err
	}
	return q.FetchOne(ctx)
}

// Get returns the row with primary key key. A missing row is a
// *core.NotFoundError.
func (t *Table) Get(ctx context.Context, key any) (core.Record, error) {
	return t.single(ctx, core.Record{t.pk: key}, key)
}

// GetWhere returns the single row matching where. No row is a
// *core.NotFoundError; more than one is a *core.DuplicateError.
func (t *Table) GetWhere(ctx context.Context, where core.Record) (core.Record, error) {
	return t.single(ctx, where, nil)
}

func (t *Table) single(ctx context.Context, where core.Record, key any) (core.Record, error) {
	q, err := t.Query(QueryOptions{Where: where, Limit: 2})
	if err != nil {
		return nil, err
	}
	var row core.Record
	err = t.db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		rows, err := q.fetch(ctx, tx)
		if err != nil {
			return err
		}
		switch len(rows) {
		case 0:
			return &core.NotFoundError{Table: t.name, Key: key}
		case 1:
			row = rows[0]
			return nil
		default:
			n, err := tx.CountWhere(ctx, t.name, q.pred)
			if err != nil {
				return err
			}
			return &core.DuplicateError{Table: t.name, Count: int(n)}
		}
	})
	return row, err
}

// Count returns the number of rows matching where.
func (t *Table) Count(ctx context.Context, where core.Record) (int64, error) {
	q, err := t.Query(QueryOptions{Where: where})
	if err != nil {
		return 0, err
	}
	return q.Count(ctx)
}

// Exists reports whether any row matches where.
func (t *Table) Exists(ctx context.Context, where core.Record) (bool, error) {
	q, err := t.Query(QueryOptions{Where: where})
	if err != nil {
		return false, err
	}
	return q.Exists(ctx)
}

// FetchAll runs sql and decodes the result rows with this table's schema.
func (t *Table) FetchAll(ctx context.Context, sql string, params map[string]any) ([]core.Record, error) {
	rows, err := t.db.FetchAll(ctx, sql, params)
	if err != nil {
		return nil, err
	}
	return t.decodeAll(rows)
}

// FetchOne runs sql and decodes its first row with this table's schema.
func (t *Table) FetchOne(ctx context.Context, sql string, params map[string]any) (core.Record, error) {
	row, err := t.db.FetchOne(ctx, sql, params)
	if err != nil || row == nil {
		return nil, err
	}
	return t.decode(row)
}

// selectRows reads and decodes rows inside tx.
func (t *Table) selectRows(ctx context.Context, tx *adapter.Tx, opts adapter.SelectOptions) ([]core.Record, error) {
	rows, err := tx.Select(ctx, t.name, opts)
	if err != nil {
		return nil, err
	}
	return t.decodeAll(rows)
}

// updateMatching runs u through the pipeline for every row matching pred.
func (t *Table) updateMatching(ctx context.Context, tx *adapter.Tx, pred query.Predicate, order []query.OrderTerm, u Updater) (int64, error) {
	rows, err := t.selectRows(ctx, tx, adapter.SelectOptions{Predicate: pred, OrderBy: order, ForUpdate: true})
	if err != nil {
		return 0, err
	}
	var n int64
	for _, prev := range rows {
		updated, err := t.updateRow(ctx, tx, prev, u)
		if err != nil {
			return n, err
		}
		if updated {
			n++
		}
	}
	return n, nil
}

// updateRow applies u to a deep copy of one decoded row and writes the
// columns that changed. It reports false when the updater skipped the row
// or nothing changed; after-update hooks run only for written rows.
func (t *Table) updateRow(ctx context.Context, tx *adapter.Tx, prev core.Record, u Updater) (bool, error) {
	next := prev.DeepClone()
	explicit, proceed := u.update(next)
	if !proceed {
		return false, nil
	}
	if err := t.checkColumns(next); err != nil {
		return false, err
	}

	next, err := t.hooks.beforeUpdate(ctx, next, prev)
	if err != nil {
		return false, err
	}
	if err := t.checkColumns(next); err != nil {
		return false, err
	}

	changes := diff(prev, next, explicit)
	if len(changes) == 0 {
		return false, nil
	}
	stored, err := t.encode(changes)
	if err != nil {
		return false, err
	}
	if _, err := tx.Update(ctx, t.name, stored, core.Record{t.pk: prev[t.pk]}); err != nil {
		return false, err
	}

	if err := t.hooks.afterUpdate(ctx, next, prev); err != nil {
		return false, err
	}
	return true, nil
}

// deleteMatching deletes every row matching pred one at a time, with hooks.
func (t *Table) deleteMatching(ctx context.Context, tx *adapter.Tx, pred query.Predicate, order []query.OrderTerm) (int64, error) {
	rows, err := t.selectRows(ctx, tx, adapter.SelectOptions{Predicate: pred, OrderBy: order, ForUpdate: true})
	if err != nil {
		return 0, err
	}
	var n int64
	for _, row := range rows {
		if err := t.hooks.beforeDelete(ctx, row); err != nil {
			return n, err
		}
		deleted, err := tx.Delete(ctx, t.name, core.Record{t.pk: row[t.pk]})
		if err != nil {
			return n, err
		}
		n += deleted
		if err := t.hooks.afterDelete(ctx, row); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (t *Table) checkColumns(rec core.Record) error {
	for name := range rec {
		if !t.schema.Has(name) {
			return &core.ValidationError{Table: t.name, Column: name, Message: "unknown column"}
		}
	}
	return nil
}

// diff returns the entries of next that must be written: every explicitly
// assigned column plus every column whose value differs from prev.
func diff(prev, next core.Record, explicit []string) core.Record {
	out := core.Record{}
	for _, name := range explicit {
		if v, ok := next[name]; ok {
			out[name] = v
		}
	}
	for name, v := range next {
		if old, ok := prev[name]; !ok || !reflect.DeepEqual(old, v) {
			out[name] = v
		}
	}
	return out
}
