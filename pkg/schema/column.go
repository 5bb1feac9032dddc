// Package schema describes tables as ordered column lists and renders their DDL.
//
// A Schema is built once at startup and never mutated. Deriving a schema
// from another is explicit concatenation; a repeated column name is a
// *core.SchemaError, never a silent override.
package schema

import (
	"regexp"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Relation points a column at another table's column.
type Relation struct {
	Table  string
	Column string
}

// Column is one column definition. Columns are values: the modifier
// methods return an updated copy.
type Column struct {
	Name        string
	Type        core.ColumnType
	Nullable    bool
	Default     any
	Unique      bool
	JSONEncoded bool
	Encrypted   bool
	Relation    *Relation
}

// Text declares a nullable text column.
func Text(name string) Column { return Column{Name: name, Type: core.TypeText, Nullable: true} }

// Integer declares a nullable integer column.
func Integer(name string) Column { return Column{Name: name, Type: core.TypeInteger, Nullable: true} }

// Timestamp declares a nullable timestamp column.
func Timestamp(name string) Column {
	return Column{Name: name, Type: core.TypeTimestamp, Nullable: true}
}

// Boolean declares a nullable boolean column.
func Boolean(name string) Column { return Column{Name: name, Type: core.TypeBoolean, Nullable: true} }

// NotNull marks the column as required.
func (c Column) NotNull() Column {
	c.Nullable = false
	return c
}

// WithDefault sets the DDL default value.
func (c Column) WithDefault(v any) Column {
	c.Default = v
	return c
}

// AsUnique adds a single-column unique constraint.
func (c Column) AsUnique() Column {
	c.Unique = true
	return c
}

// JSON stores the value as JSON text. Structured values round-trip through
// the codec; the declared type becomes text.
func (c Column) JSON() Column {
	c.JSONEncoded = true
	c.Type = core.TypeText
	return c
}

// Encrypt stores the value encrypted. Encrypted columns are text.
func (c Column) Encrypt() Column {
	c.Encrypted = true
	c.Type = core.TypeText
	return c
}

// References adds a foreign key to table.column.
func (c Column) References(table, column string) Column {
	c.Relation = &Relation{Table: table, Column: column}
	return c
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name can be used as a table or column name.
func ValidIdentifier(name string) bool {
	return identRe.MatchString(name)
}
