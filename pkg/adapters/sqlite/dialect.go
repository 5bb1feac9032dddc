package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Dialect renders SQLite SQL.
type Dialect struct{}

// Name returns the dialect identifier.
func (Dialect) Name() string { return "sqlite" }

// PlaceholderStyle returns ? placeholders.
func (Dialect) PlaceholderStyle() core.PlaceholderStyle { return core.PlaceholderQuestion }

// QuoteIdent quotes name with double quotes.
func (Dialect) QuoteIdent(name string) string { return core.QuoteIdent(name) }

// TypeName maps a column type to its SQLite declared type. The declared
// names keep column affinity and let reads recover timestamps and booleans.
func (Dialect) TypeName(t core.ColumnType) string {
	switch t {
	case core.TypeInteger:
		return "INTEGER"
	case core.TypeTimestamp:
		return "TIMESTAMP"
	case core.TypeBoolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// PrimaryKeyDDL aliases the rowid, which SQLite fills on insert.
func (d Dialect) PrimaryKeyDDL(column string) (string, error) {
	return d.QuoteIdent(column) + " INTEGER PRIMARY KEY", nil
}

// RowLockClause is empty: SQLite locks the whole database on write.
func (Dialect) RowLockClause() string { return "" }

// ILike lowers both sides, SQLite has no ILIKE.
func (Dialect) ILike(column, placeholder string, negate bool) string {
	op := " LIKE "
	if negate {
		op = " NOT LIKE "
	}
	return "LOWER(" + column + ")" + op + "LOWER(" + placeholder + ")"
}

// BindValue stores instants as UTC RFC 3339 text, which sorts and compares
// correctly as a string.
func (Dialect) BindValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}

// SupportsReturning is false: generated keys come from LastInsertId.
func (Dialect) SupportsReturning() bool { return false }

// GooseDialect returns the goose dialect name.
func (Dialect) GooseDialect() string { return "sqlite3" }

// TableColumns reads PRAGMA table_info. A missing table has no rows.
func (d Dialect) TableColumns(ctx context.Context, q adapter.Querier, table string) ([]core.TableColumn, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", d.QuoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.TableColumn
	for rows.Next() {
		var (
			cid     int
			col     core.TableColumn
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Position = cid + 1
		col.PrimaryKey = pk > 0
		col.Nullable = notNull == 0 && !col.PrimaryKey
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	return columns, nil
}

var _ adapter.Dialect = Dialect{}
