package adapter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/query"
	"github.com/leapstack-labs/leapdb/pkg/schema"
)

// SelectOptions configures Select and SelectOne. Filter and Predicate are
// combined with AND when both are set.
type SelectOptions struct {
	Columns   []string
	Filter    core.Record
	Predicate query.Predicate
	OrderBy   []query.OrderTerm
	Limit     int
	Offset    int
	ForUpdate bool
}

// Execute runs sql with :name parameters and returns the affected row count.
func (t *Tx) Execute(ctx context.Context, sql string, params map[string]any) (int64, error) {
	text, args, err := Bind(t.dialect, sql, params)
	if err != nil {
		return 0, err
	}
	res, err := t.exec(ctx, text, args)
	if err != nil {
		return 0, err
	}
	return rowsAffected(res)
}

// FetchOne runs sql and returns its first row, or nil when there is none.
func (t *Tx) FetchOne(ctx context.Context, sql string, params map[string]any) (core.Record, error) {
	text, args, err := Bind(t.dialect, sql, params)
	if err != nil {
		return nil, err
	}
	rows, err := t.query(ctx, text, args, 1)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// FetchAll runs sql and returns every row.
func (t *Tx) FetchAll(ctx context.Context, sql string, params map[string]any) ([]core.Record, error) {
	text, args, err := Bind(t.dialect, sql, params)
	if err != nil {
		return nil, err
	}
	return t.query(ctx, text, args, 0)
}

// ExecuteMany prepares sql once and runs it for every parameter set,
// returning the total affected row count.
func (t *Tx) ExecuteMany(ctx context.Context, sql string, paramSets []map[string]any) (int64, error) {
	if len(paramSets) == 0 {
		return 0, nil
	}
	text, names := Rewrite(sql, t.dialect.PlaceholderStyle())

	tx, err := t.active()
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, text)
	if err != nil {
		return 0, &core.TransactionError{Op: "prepare statement", Err: err}
	}
	defer func() { _ = stmt.Close() }()

	var total int64
	for _, params := range paramSets {
		args, err := bindArgs(t.dialect, names, params)
		if err != nil {
			return total, err
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return total, &core.TransactionError{Op: "execute statement", Err: err}
		}
		n, err := rowsAffected(res)
		if err != nil {
			return total, err
		}
		total += n
	}
	t.logger.Debug("batch executed", "sql", text, "sets", len(paramSets), "rows", total)
	return total, nil
}

// ExecuteScript runs a script of one or more statements without parameters.
func (t *Tx) ExecuteScript(ctx context.Context, script string) error {
	_, err := t.exec(ctx, script, nil)
	return err
}

// Insert inserts one row and returns the affected row count.
func (t *Tx) Insert(ctx context.Context, table string, values core.Record) (int64, error) {
	text, args, err := t.insertSQL(table, values)
	if err != nil {
		return 0, err
	}
	res, err := t.exec(ctx, text, args)
	if err != nil {
		return 0, err
	}
	return rowsAffected(res)
}

// InsertReturningID inserts one row and returns the value the backend
// generated for pk.
func (t *Tx) InsertReturningID(ctx context.Context, table string, values core.Record, pk string) (any, error) {
	if !schema.ValidIdentifier(pk) {
		return nil, &core.ValidationError{Table: table, Column: pk, Message: "invalid primary key name"}
	}
	text, args, err := t.insertSQL(table, values)
	if err != nil {
		return nil, err
	}

	if t.dialect.SupportsReturning() {
		rows, err := t.query(ctx, text+" RETURNING "+t.dialect.QuoteIdent(pk), args, 1)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, &core.TransactionError{Op: "read generated key", Err: fmt.Errorf("insert into %s returned no row", table)}
		}
		return rows[0][pk], nil
	}

	res, err := t.exec(ctx, text, args)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, &core.TransactionError{Op: "read generated key", Err: err}
	}
	return id, nil
}

// Select returns the rows matching opts.
func (t *Tx) Select(ctx context.Context, table string, opts SelectOptions) ([]core.Record, error) {
	text, args, err := t.selectSQL(table, opts)
	if err != nil {
		return nil, err
	}
	return t.query(ctx, text, args, 0)
}

// SelectOne returns the first row matching opts, or nil.
func (t *Tx) SelectOne(ctx context.Context, table string, opts SelectOptions) (core.Record, error) {
	opts.Limit = 1
	rows, err := t.Select(ctx, table, opts)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Update sets values on the rows matching the equality filter.
func (t *Tx) Update(ctx context.Context, table string, values, filter core.Record) (int64, error) {
	pred, err := t.filter(filter)
	if err != nil {
		return 0, err
	}
	return t.UpdateWhere(ctx, table, values, pred)
}

// UpdateWhere sets values on the rows matching pred.
func (t *Tx) UpdateWhere(ctx context.Context, table string, values core.Record, pred query.Predicate) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, nil
	}

	params := make(map[string]any, len(values)+len(pred.Params))
	sets := make([]string, 0, len(values))
	for _, col := range values.Keys() {
		if !schema.ValidIdentifier(col) {
			return 0, &core.ValidationError{Table: table, Column: col, Message: "invalid column name"}
		}
		sets = append(sets, t.dialect.QuoteIdent(col)+" = :v_"+col)
		params["v_"+col] = values[col]
	}
	for k, v := range pred.Params {
		params[k] = v
	}

	sql := "UPDATE " + t.dialect.QuoteIdent(table) + " SET " + strings.Join(sets, ", ") + where(pred)
	return t.Execute(ctx, sql, params)
}

// Delete removes the rows matching the equality filter.
func (t *Tx) Delete(ctx context.Context, table string, filter core.Record) (int64, error) {
	pred, err := t.filter(filter)
	if err != nil {
		return 0, err
	}
	return t.DeleteWhere(ctx, table, pred)
}

// DeleteWhere removes the rows matching pred.
func (t *Tx) DeleteWhere(ctx context.Context, table string, pred query.Predicate) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	return t.Execute(ctx, "DELETE FROM "+t.dialect.QuoteIdent(table)+where(pred), pred.Params)
}

// Exists reports whether any row matches the equality filter.
func (t *Tx) Exists(ctx context.Context, table string, filter core.Record) (bool, error) {
	pred, err := t.filter(filter)
	if err != nil {
		return false, err
	}
	return t.ExistsWhere(ctx, table, pred)
}

// ExistsWhere reports whether any row matches pred.
func (t *Tx) ExistsWhere(ctx context.Context, table string, pred query.Predicate) (bool, error) {
	if err := checkTable(table); err != nil {
		return false, err
	}
	row, err := t.FetchOne(ctx, "SELECT 1 AS found FROM "+t.dialect.QuoteIdent(table)+where(pred)+" LIMIT 1", pred.Params)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// Count returns the number of rows matching the equality filter.
func (t *Tx) Count(ctx context.Context, table string, filter core.Record) (int64, error) {
	pred, err := t.filter(filter)
	if err != nil {
		return 0, err
	}
	return t.CountWhere(ctx, table, pred)
}

// CountWhere returns the number of rows matching pred.
func (t *Tx) CountWhere(ctx context.Context, table string, pred query.Predicate) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	row, err := t.FetchOne(ctx, "SELECT COUNT(*) AS cnt FROM "+t.dialect.QuoteIdent(table)+where(pred), pred.Params)
	if err != nil {
		return 0, err
	}
	return toInt64(row["cnt"])
}

// TableColumns lists the live columns of table.
func (t *Tx) TableColumns(ctx context.Context, table string) ([]core.TableColumn, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	tx, err := t.active()
	if err != nil {
		return nil, err
	}
	cols, err := t.dialect.TableColumns(ctx, tx, table)
	if err != nil {
		return nil, &core.TransactionError{Op: "inspect table " + table, Err: err}
	}
	return cols, nil
}

func (t *Tx) filter(rec core.Record) (query.Predicate, error) {
	return query.Compile(t.dialect, query.Spec{Where: rec})
}

func (t *Tx) insertSQL(table string, values core.Record) (string, []any, error) {
	if err := checkTable(table); err != nil {
		return "", nil, err
	}
	q := t.dialect.QuoteIdent(table)
	if len(values) == 0 {
		return "INSERT INTO " + q + " DEFAULT VALUES", nil, nil
	}

	cols := values.Keys()
	quoted := make([]string, len(cols))
	phs := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		if !schema.ValidIdentifier(col) {
			return "", nil, &core.ValidationError{Table: table, Column: col, Message: "invalid column name"}
		}
		quoted[i] = t.dialect.QuoteIdent(col)
		phs[i] = core.Placeholder(t.dialect.PlaceholderStyle(), i+1)
		args[i] = t.dialect.BindValue(values[col])
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", q, strings.Join(quoted, ", "), strings.Join(phs, ", ")), args, nil
}

func (t *Tx) selectSQL(table string, opts SelectOptions) (string, []any, error) {
	if err := checkTable(table); err != nil {
		return "", nil, err
	}

	cols := "*"
	if len(opts.Columns) > 0 {
		quoted := make([]string, len(opts.Columns))
		for i, c := range opts.Columns {
			if !schema.ValidIdentifier(c) {
				return "", nil, &core.ValidationError{Table: table, Column: c, Message: "invalid column name"}
			}
			quoted[i] = t.dialect.QuoteIdent(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	pred := opts.Predicate
	if len(opts.Filter) > 0 {
		flat, err := t.filter(opts.Filter)
		if err != nil {
			return "", nil, err
		}
		pred = flat.And(pred)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(cols)
	b.WriteString(" FROM ")
	b.WriteString(t.dialect.QuoteIdent(table))
	b.WriteString(where(pred))
	if len(opts.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(query.RenderOrderBy(t.dialect, opts.OrderBy))
	}
	if opts.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 && t.dialect.Name() == "sqlite" {
			// sqlite only accepts OFFSET after a LIMIT clause.
			b.WriteString(" LIMIT -1")
		}
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(opts.Offset))
	}
	if opts.ForUpdate {
		b.WriteString(t.dialect.RowLockClause())
	}
	return Bind(t.dialect, b.String(), pred.Params)
}

func where(pred query.Predicate) string {
	if pred.Empty() {
		return ""
	}
	return " WHERE " + pred.SQL
}

func checkTable(table string) error {
	if !schema.ValidIdentifier(table) {
		return &core.ValidationError{Table: table, Message: "invalid table name"}
	}
	return nil
}

func rowsAffected(res interface{ RowsAffected() (int64, error) }) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &core.TransactionError{Op: "read affected rows", Err: err}
	}
	return n, nil
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case uint64:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case string:
		return strconv.ParseInt(x, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected count value of type %T", v)
	}
}
