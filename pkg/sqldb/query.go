package sqldb

import (
	"context"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/query"
)

// QueryOptions selects rows of one table. Where is a flat AND of
// equalities; Expr combines the named Conditions with AND, OR, NOT and
// parentheses. Without Expr every condition applies. Params binds the
// ":name" values referenced by conditions.
type QueryOptions struct {
	Columns    []string
	Where      core.Record
	Expr       string
	Conditions map[string]query.Condition
	Params     map[string]any
	OrderBy    string
	Limit      int
	Offset     int
	ForUpdate  bool
}

// Query is a compiled, reusable selection over one table. Every method
// runs with the same predicate and bindings.
type Query struct {
	table     *Table
	columns   []string
	pred      query.Predicate
	order     []query.OrderTerm
	limit     int
	offset    int
	forUpdate bool
}

// Query compiles opts. Every validation error is reported here, before
// any statement is sent.
func (t *Table) Query(opts QueryOptions) (*Query, error) {
	for _, c := range opts.Columns {
		if !t.schema.Has(c) {
			return nil, &core.ValidationError{Table: t.name, Column: c, Message: "unknown column"}
		}
	}
	for name := range opts.Where {
		if err := t.checkFilterColumn(name); err != nil {
			return nil, err
		}
	}
	for _, cond := range opts.Conditions {
		if err := t.checkFilterColumn(cond.Column); err != nil {
			return nil, err
		}
	}
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, &core.ValidationError{Table: t.name, Message: "limit and offset must not be negative"}
	}

	order, err := query.ParseOrderBy(opts.OrderBy)
	if err != nil {
		return nil, err
	}
	for _, term := range order {
		if !t.schema.Has(term.Column) {
			return nil, &core.ValidationError{Table: t.name, Column: term.Column, Message: "unknown order by column"}
		}
	}

	pred, err := query.Compile(t.db.Dialect(), query.Spec{
		Where:      opts.Where,
		Expr:       opts.Expr,
		Conditions: opts.Conditions,
		Params:     opts.Params,
	})
	if err != nil {
		return nil, err
	}

	return &Query{
		table:     t,
		columns:   opts.Columns,
		pred:      pred,
		order:     order,
		limit:     opts.Limit,
		offset:    opts.Offset,
		forUpdate: opts.ForUpdate,
	}, nil
}

func (t *Table) checkFilterColumn(name string) error {
	col, ok := t.schema.Column(name)
	if !ok {
		return &core.ValidationError{Table: t.name, Column: name, Message: "unknown column"}
	}
	if col.Encrypted {
		return &core.ValidationError{Table: t.name, Column: name, Message: "encrypted columns cannot be filtered"}
	}
	return nil
}

// Predicate returns the compiled WHERE body and its bindings.
func (q *Query) Predicate() query.Predicate { return q.pred }

// Fetch returns the decoded matching rows.
func (q *Query) Fetch(ctx context.Context) ([]core.Record, error) {
	var rows []core.Record
	err := q.table.db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		var err error
		rows, err = q.fetch(ctx, tx)
		return err
	})
	return rows, err
}

// FetchOne returns the first decoded matching row, or nil.
func (q *Query) FetchOne(ctx context.Context) (core.Record, error) {
	one := *q
	one.limit = 1
	rows, err := one.Fetch(ctx)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (q *Query) fetch(ctx context.Context, tx *adapter.Tx) ([]core.Record, error) {
	return q.table.selectRows(ctx, tx, adapter.SelectOptions{
		Columns:   q.columns,
		Predicate: q.pred,
		OrderBy:   q.order,
		Limit:     q.limit,
		Offset:    q.offset,
		ForUpdate: q.forUpdate,
	})
}

// Count returns the number of matching rows. Limit and offset are ignored.
func (q *Query) Count(ctx context.Context) (int64, error) {
	var n int64
	err := q.table.db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		var err error
		n, err = tx.CountWhere(ctx, q.table.name, q.pred)
		return err
	})
	return n, err
}

// Exists reports whether any row matches.
func (q *Query) Exists(ctx context.Context) (bool, error) {
	var found bool
	err := q.table.db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		var err error
		found, err = tx.ExistsWhere(ctx, q.table.name, q.pred)
		return err
	})
	return found, err
}

// Delete removes the matching rows one at a time with the delete hooks.
func (q *Query) Delete(ctx context.Context) (int64, error) {
	var n int64
	err := q.table.db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		var err error
		n, err = q.table.deleteMatching(ctx, tx, q.pred, q.order)
		return err
	})
	return n, err
}

// DeleteRaw removes the matching rows in one statement without hooks.
func (q *Query) DeleteRaw(ctx context.Context) (int64, error) {
	var n int64
	err := q.table.db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		var err error
		n, err = tx.DeleteWhere(ctx, q.table.name, q.pred)
		return err
	})
	return n, err
}

// Update applies values to every matching row through the pipeline.
func (q *Query) Update(ctx context.Context, values core.Record) (int64, error) {
	return q.Apply(ctx, Values(values))
}

// Apply runs u on every matching row through the pipeline and returns the
// number of rows written. Skipped rows and rows u left unchanged are not
// counted.
func (q *Query) Apply(ctx context.Context, u Updater) (int64, error) {
	var n int64
	err := q.table.db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		var err error
		n, err = q.table.updateMatching(ctx, tx, q.pred, q.order, u)
		return err
	})
	return n, err
}

// UpdateRaw sets values on the matching rows in one statement. Values are
// stored as given.
func (q *Query) UpdateRaw(ctx context.Context, values core.Record) (int64, error) {
	if err := q.table.checkColumns(values); err != nil {
		return 0, err
	}
	var n int64
	err := q.table.db.run(ctx, func(ctx context.Context, tx *adapter.Tx) error {
		var err error
		n, err = tx.UpdateWhere(ctx, q.table.name, values, q.pred)
		return err
	})
	return n, err
}
