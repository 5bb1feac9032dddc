package sqldb

import (
	"context"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// RecordOption configures Table.Record.
type RecordOption func(*recordOptions)

type recordOptions struct {
	insertMissing bool
}

// InsertMissing makes Table.Record start from the lookup values when no
// row matches, and insert the result.
func InsertMissing() RecordOption {
	return func(o *recordOptions) { o.insertMissing = true }
}

// fullUpdater writes every column of rec except an unchanged primary key.
type fullUpdater struct {
	rec core.Record
	pk  string
}

func (f fullUpdater) update(next core.Record) ([]string, bool) {
	next.Merge(f.rec)
	explicit := make([]string, 0, len(f.rec))
	for _, name := range f.rec.Keys() {
		if name != f.pk {
			explicit = append(explicit, name)
		}
	}
	return explicit, true
}

// Record fetches one row, hands it to fn for in-place mutation, and then
// writes it back with exactly one insert or update through the pipeline.
// The update writes every column, so nested JSON values edited in place are
// stored. keyOrWhere is either a primary key value or a core.Record filter.
//
// When fn returns an error nothing is written and the error is returned.
// A missing row is a *core.NotFoundError unless InsertMissing is given.
func (t *Table) Record(ctx context.Context, keyOrWhere any, fn func(rec core.Record) error, opts ...RecordOption) error {
	var o recordOptions
	for _, opt := range opts {
		opt(&o)
	}

	where := t.lookup(keyOrWhere)
	q, err := t.Query(QueryOptions{Where: where, Limit: 2, ForUpdate: true})
	if err != nil {
		return err
	}

	return t.db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		rows, err := q.fetch(ctx, tx)
		if err != nil {
			return err
		}

		switch len(rows) {
		case 0:
			if !o.insertMissing {
				return &core.NotFoundError{Table: t.name, Key: keyOrWhere}
			}
			rec := where.Clone()
			if err := fn(rec); err != nil {
				return err
			}
			_, err := t.insert(ctx, tx, rec)
			return err

		case 1:
			prev := rows[0]
			rec := prev.DeepClone()
			if err := fn(rec); err != nil {
				return err
			}
			_, err := t.updateRow(ctx, tx, prev, fullUpdater{rec: rec, pk: t.pk})
			return err

		default:
			n, err := tx.CountWhere(ctx, t.name, q.pred)
			if err != nil {
				return err
			}
			return &core.DuplicateError{Table: t.name, Count: int(n)}
		}
	})
}

func (t *Table) lookup(keyOrWhere any) core.Record {
	switch x := keyOrWhere.(type) {
	case core.Record:
		return x
	case map[string]any:
		return core.Record(x)
	default:
		return core.Record{t.pk: keyOrWhere}
	}
}
