package core

import (
	"strconv"
	"strings"
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (DuckDB, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// ColumnType is the declared type of a schema column.
type ColumnType int

const (
	// TypeText stores strings (and encoded/encrypted payloads).
	TypeText ColumnType = iota
	// TypeInteger stores 64-bit integers.
	TypeInteger
	// TypeTimestamp stores instants.
	TypeTimestamp
	// TypeBoolean stores truth values.
	TypeBoolean
)

func (t ColumnType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeInteger:
		return "integer"
	case TypeTimestamp:
		return "timestamp"
	case TypeBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// Dialect renders backend-specific SQL fragments.
type Dialect interface {
	// Name is the dialect identifier ("sqlite", "postgres", "duckdb").
	Name() string

	// PlaceholderStyle reports how positional parameters are written.
	PlaceholderStyle() PlaceholderStyle

	// QuoteIdent quotes a table or column name.
	QuoteIdent(name string) string

	// TypeName maps a declared column type to the backend type name.
	TypeName(t ColumnType) string

	// PrimaryKeyDDL renders the column definition of an auto-incrementing
	// integer primary key.
	PrimaryKeyDDL(column string) (string, error)

	// RowLockClause returns the clause appended to SELECT to lock rows,
	// or an empty string when the backend has no row locks.
	RowLockClause() string

	// ILike renders a case-insensitive LIKE comparison.
	ILike(column, placeholder string, negate bool) string

	// BindValue converts a Go value into the form the driver stores.
	BindValue(v any) any
}

// Placeholder formats the index-th (1-based) positional parameter.
func Placeholder(style PlaceholderStyle, index int) string {
	if style == PlaceholderDollar {
		return "$" + strconv.Itoa(index)
	}
	return "?"
}

// QuoteIdent wraps name in double quotes, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
