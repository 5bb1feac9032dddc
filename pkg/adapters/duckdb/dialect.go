package duckdb

import (
	"context"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Dialect renders DuckDB SQL.
type Dialect struct{}

// Name returns the dialect identifier.
func (Dialect) Name() string { return "duckdb" }

// PlaceholderStyle returns ? placeholders.
func (Dialect) PlaceholderStyle() core.PlaceholderStyle { return core.PlaceholderQuestion }

// QuoteIdent quotes name with double quotes.
func (Dialect) QuoteIdent(name string) string { return core.QuoteIdent(name) }

// TypeName maps a column type to its DuckDB type.
func (Dialect) TypeName(t core.ColumnType) string {
	switch t {
	case core.TypeInteger:
		return "BIGINT"
	case core.TypeTimestamp:
		return "TIMESTAMP"
	case core.TypeBoolean:
		return "BOOLEAN"
	default:
		return "VARCHAR"
	}
}

// PrimaryKeyDDL fails: DuckDB has no auto-incrementing column type.
func (Dialect) PrimaryKeyDDL(column string) (string, error) {
	return "", &core.SchemaError{Column: column, Message: "auto-increment primary keys are not supported by duckdb"}
}

// RowLockClause is empty: DuckDB has no row locks.
func (Dialect) RowLockClause() string { return "" }

// ILike uses the native operator.
func (Dialect) ILike(column, placeholder string, negate bool) string {
	if negate {
		return column + " NOT ILIKE " + placeholder
	}
	return column + " ILIKE " + placeholder
}

// BindValue stores instants in UTC, TIMESTAMP has no zone.
func (Dialect) BindValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	return v
}

// SupportsReturning is true.
func (Dialect) SupportsReturning() bool { return true }

// GooseDialect is empty: goose has no DuckDB dialect.
func (Dialect) GooseDialect() string { return "" }

const (
	columnsQuery = `
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ?
		ORDER BY ordinal_position
	`
	primaryKeyQuery = `
		SELECT unnest(constraint_column_names) AS column_name
		FROM duckdb_constraints()
		WHERE schema_name = current_schema() AND table_name = ? AND constraint_type = 'PRIMARY KEY'
	`
)

// TableColumns reads information_schema for table in the current schema.
func (Dialect) TableColumns(ctx context.Context, q adapter.Querier, table string) ([]core.TableColumn, error) {
	pks, err := primaryKeys(ctx, q, table)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, columnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.TableColumn
	for rows.Next() {
		var col core.TableColumn
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		col.PrimaryKey = pks[col.Name]
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	return columns, nil
}

func primaryKeys(ctx context.Context, q adapter.Querier, table string) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx, primaryKeyQuery, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary key: %w", err)
	}
	defer func() { _ = rows.Close() }()

	pks := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan primary key: %w", err)
		}
		pks[name] = true
	}
	return pks, rows.Err()
}

var _ adapter.Dialect = Dialect{}
