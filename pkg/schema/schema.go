package schema

import (
	"fmt"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Schema is an ordered, duplicate-free list of columns plus table-level
// unique constraints.
type Schema struct {
	columns []Column
	index   map[string]int
	uniques [][]string
}

// New builds a schema from cols in order.
func New(cols ...Column) (*Schema, error) {
	s := &Schema{index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if err := s.add(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustNew is like New but panics on error. Intended for package-level
// schema definitions.
func MustNew(cols ...Column) *Schema {
	s, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) add(c Column) error {
	if !ValidIdentifier(c.Name) {
		return &core.SchemaError{Column: c.Name, Message: "invalid column name"}
	}
	if _, dup := s.index[c.Name]; dup {
		return &core.SchemaError{Column: c.Name, Message: "duplicate column"}
	}
	if c.Relation != nil && (!ValidIdentifier(c.Relation.Table) || !ValidIdentifier(c.Relation.Column)) {
		return &core.SchemaError{Column: c.Name, Message: fmt.Sprintf("invalid relation %s.%s", c.Relation.Table, c.Relation.Column)}
	}
	s.index[c.Name] = len(s.columns)
	s.columns = append(s.columns, c)
	return nil
}

// Extend returns a new schema holding s's columns followed by cols.
func (s *Schema) Extend(cols ...Column) (*Schema, error) {
	out, err := New(s.columns...)
	if err != nil {
		return nil, err
	}
	out.uniques = append(out.uniques, s.uniques...)
	for _, c := range cols {
		if err := out.add(c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Concat returns the concatenation of a and b, including both sets of
// unique constraints.
func Concat(a, b *Schema) (*Schema, error) {
	out, err := a.Extend(b.columns...)
	if err != nil {
		return nil, err
	}
	out.uniques = append(out.uniques, b.uniques...)
	return out, nil
}

// WithUnique returns a copy of s with a composite unique constraint.
func (s *Schema) WithUnique(cols ...string) (*Schema, error) {
	if len(cols) == 0 {
		return nil, &core.SchemaError{Message: "unique constraint needs at least one column"}
	}
	for _, name := range cols {
		if !s.Has(name) {
			return nil, &core.SchemaError{Column: name, Message: "unique constraint references unknown column"}
		}
	}
	out, err := s.Extend()
	if err != nil {
		return nil, err
	}
	out.uniques = append(out.uniques, append([]string(nil), cols...))
	return out, nil
}

// Columns returns the columns in declaration order.
func (s *Schema) Columns() []Column {
	return append([]Column(nil), s.columns...)
}

// Names returns the column names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (s *Schema) Column(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

// Has reports whether the schema declares name.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.columns) }

// Uniques returns the composite unique constraints.
func (s *Schema) Uniques() [][]string {
	out := make([][]string, len(s.uniques))
	for i, u := range s.uniques {
		out[i] = append([]string(nil), u...)
	}
	return out
}

// EncryptedColumns returns the names of encrypted columns.
func (s *Schema) EncryptedColumns() []string {
	var names []string
	for _, c := range s.columns {
		if c.Encrypted {
			names = append(names, c.Name)
		}
	}
	return names
}

// JSONColumns returns the names of json-encoded columns.
func (s *Schema) JSONColumns() []string {
	var names []string
	for _, c := range s.columns {
		if c.JSONEncoded {
			names = append(names, c.Name)
		}
	}
	return names
}
