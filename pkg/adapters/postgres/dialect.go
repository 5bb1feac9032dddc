package postgres

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Dialect renders PostgreSQL SQL.
type Dialect struct{}

// Name returns the dialect identifier.
func (Dialect) Name() string { return "postgres" }

// PlaceholderStyle returns $N placeholders.
func (Dialect) PlaceholderStyle() core.PlaceholderStyle { return core.PlaceholderDollar }

// QuoteIdent quotes name with double quotes.
func (Dialect) QuoteIdent(name string) string { return core.QuoteIdent(name) }

// TypeName maps a column type to its PostgreSQL type.
func (Dialect) TypeName(t core.ColumnType) string {
	switch t {
	case core.TypeInteger:
		return "BIGINT"
	case core.TypeTimestamp:
		return "TIMESTAMPTZ"
	case core.TypeBoolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// PrimaryKeyDDL returns a BIGSERIAL primary key.
func (d Dialect) PrimaryKeyDDL(column string) (string, error) {
	return d.QuoteIdent(column) + " BIGSERIAL PRIMARY KEY", nil
}

// RowLockClause locks the selected rows until the transaction ends.
func (Dialect) RowLockClause() string { return " FOR UPDATE" }

// ILike uses the native operator.
func (Dialect) ILike(column, placeholder string, negate bool) string {
	if negate {
		return column + " NOT ILIKE " + placeholder
	}
	return column + " ILIKE " + placeholder
}

// BindValue passes values through; pgx encodes Go types natively.
func (Dialect) BindValue(v any) any { return v }

// SupportsReturning is true.
func (Dialect) SupportsReturning() bool { return true }

// GooseDialect returns the goose dialect name.
func (Dialect) GooseDialect() string { return "postgres" }

const columnsQuery = `
	SELECT
		c.column_name,
		c.data_type,
		c.is_nullable,
		c.ordinal_position,
		EXISTS (
			SELECT 1
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage k
				ON k.constraint_name = tc.constraint_name
				AND k.table_schema = tc.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY'
				AND tc.table_schema = c.table_schema
				AND tc.table_name = c.table_name
				AND k.column_name = c.column_name
		) AS is_pk
	FROM information_schema.columns c
	WHERE c.table_schema = current_schema() AND c.table_name = $1
	ORDER BY c.ordinal_position
`

// TableColumns reads information_schema for table in the current schema.
func (Dialect) TableColumns(ctx context.Context, q adapter.Querier, table string) ([]core.TableColumn, error) {
	rows, err := q.QueryContext(ctx, columnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.TableColumn
	for rows.Next() {
		var col core.TableColumn
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position, &col.PrimaryKey); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	return columns, nil
}

var _ adapter.Dialect = Dialect{}
