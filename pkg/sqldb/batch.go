package sqldb

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/query"
)

// Updater changes one record during an update. It is either Values, the
// same assignments for every record, or an UpdateFunc deciding per record.
type Updater interface {
	update(rec core.Record) (explicit []string, proceed bool)
}

// Decision is returned by an UpdateFunc.
type Decision int

const (
	// Proceed writes the record. It is the zero value.
	Proceed Decision = iota
	// Skip leaves the record untouched: no write and no hooks.
	Skip
)

// UpdateFunc mutates rec in place and decides whether it is written.
type UpdateFunc func(rec core.Record) Decision

func (f UpdateFunc) update(rec core.Record) ([]string, bool) {
	return nil, f(rec) != Skip
}

type valuesUpdater core.Record

// Values returns an Updater assigning values to every record.
func Values(values core.Record) Updater {
	return valuesUpdater(values)
}

func (v valuesUpdater) update(rec core.Record) ([]string, bool) {
	rec.Merge(core.Record(v))
	return core.Record(v).Keys(), true
}

// BatchUpdate updates the rows with the given primary keys, one at a time
// in key order, through the pipeline. Keys without a row are ignored. It
// returns the number of rows written; a row the updater left unchanged
// gets no statement and no after-update hook.
func (t *Table) BatchUpdate(ctx context.Context, keys []any, u Updater) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	pred, err := t.keysPredicate(keys)
	if err != nil {
		return 0, err
	}

	var n int64
	err = t.db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		rows, err := t.selectRows(ctx, tx, adapter.SelectOptions{Predicate: pred, ForUpdate: true})
		if err != nil {
			return err
		}
		byKey := make(map[string]core.Record, len(rows))
		for _, row := range rows {
			byKey[fmt.Sprint(row[t.pk])] = row
		}

		seen := make(map[string]bool, len(keys))
		for _, key := range keys {
			k := fmt.Sprint(key)
			row, ok := byKey[k]
			if !ok || seen[k] {
				continue
			}
			seen[k] = true

			updated, err := t.updateRow(ctx, tx, row, u)
			if err != nil {
				return err
			}
			if updated {
				n++
			}
		}
		return nil
	})
	return n, err
}

// BatchUpdateRaw sets values on the rows with the given primary keys in a
// single statement. No hooks run and values are stored as given.
func (t *Table) BatchUpdateRaw(ctx context.Context, keys []any, values core.Record) (int64, error) {
	if len(keys) == 0 || len(values) == 0 {
		return 0, nil
	}
	if err := t.checkColumns(values); err != nil {
		return 0, err
	}
	pred, err := t.keysPredicate(keys)
	if err != nil {
		return 0, err
	}

	var n int64
	err = t.db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		var err error
		n, err = tx.UpdateWhere(ctx, t.name, values, pred)
		return err
	})
	return n, err
}

func (t *Table) keysPredicate(keys []any) (query.Predicate, error) {
	return query.Compile(t.db.Dialect(), query.Spec{
		Conditions: map[string]query.Condition{
			"keys": {Column: t.pk, Op: query.OpIn, Value: keys},
		},
	})
}
