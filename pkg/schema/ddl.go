package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// TableDef is everything needed to render a table's DDL.
type TableDef struct {
	Name          string
	Schema        *Schema
	PrimaryKey    string
	AutoIncrement bool
}

// CreateTableSQL renders one CREATE TABLE IF NOT EXISTS statement. Column
// order follows the schema; the primary-key fragment comes from the dialect
// when the key auto-increments.
func CreateTableSQL(d core.Dialect, def TableDef) (string, error) {
	if !ValidIdentifier(def.Name) {
		return "", &core.SchemaError{Table: def.Name, Message: "invalid table name"}
	}
	if def.PrimaryKey != "" && !def.Schema.Has(def.PrimaryKey) {
		return "", &core.SchemaError{Table: def.Name, Column: def.PrimaryKey, Message: "primary key is not a schema column"}
	}

	var parts []string
	for _, c := range def.Schema.columns {
		if c.Name == def.PrimaryKey {
			frag, err := primaryKeyDef(d, def, c)
			if err != nil {
				return "", err
			}
			parts = append(parts, frag)
			continue
		}
		frag, err := columnDef(d, c, true)
		if err != nil {
			return "", &core.SchemaError{Table: def.Name, Column: c.Name, Message: err.Error()}
		}
		parts = append(parts, frag)
	}

	for _, u := range def.Schema.uniques {
		quoted := make([]string, len(u))
		for i, name := range u {
			quoted[i] = d.QuoteIdent(name)
		}
		parts = append(parts, fmt.Sprintf("UNIQUE (%s)", strings.Join(quoted, ", ")))
	}

	for _, c := range def.Schema.columns {
		if c.Relation == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			d.QuoteIdent(c.Name), d.QuoteIdent(c.Relation.Table), d.QuoteIdent(c.Relation.Column)))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)",
		d.QuoteIdent(def.Name), strings.Join(parts, ",\n    ")), nil
}

// AddColumnSQL renders an ALTER TABLE statement adding c to table. Unique
// constraints cannot be added this way and are omitted; the foreign key is
// rendered inline.
func AddColumnSQL(d core.Dialect, table string, c Column) (string, error) {
	frag, err := columnDef(d, c, false)
	if err != nil {
		return "", &core.SchemaError{Table: table, Column: c.Name, Message: err.Error()}
	}
	if c.Relation != nil {
		frag += fmt.Sprintf(" REFERENCES %s (%s)", d.QuoteIdent(c.Relation.Table), d.QuoteIdent(c.Relation.Column))
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", d.QuoteIdent(table), frag), nil
}

func primaryKeyDef(d core.Dialect, def TableDef, c Column) (string, error) {
	if !def.AutoIncrement {
		return fmt.Sprintf("%s %s PRIMARY KEY", d.QuoteIdent(c.Name), d.TypeName(c.Type)), nil
	}
	if c.Type != core.TypeInteger {
		return "", &core.SchemaError{Table: def.Name, Column: c.Name, Message: "auto-increment primary key must be an integer column"}
	}
	frag, err := d.PrimaryKeyDDL(c.Name)
	if err != nil {
		return "", &core.SchemaError{Table: def.Name, Column: c.Name, Message: err.Error()}
	}
	return frag, nil
}

func columnDef(d core.Dialect, c Column, withUnique bool) (string, error) {
	var b strings.Builder
	b.WriteString(d.QuoteIdent(c.Name))
	b.WriteByte(' ')
	b.WriteString(d.TypeName(c.Type))
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil {
		lit, err := literal(c.Default)
		if err != nil {
			return "", err
		}
		b.WriteString(" DEFAULT ")
		b.WriteString(lit)
	}
	if withUnique && c.Unique {
		b.WriteString(" UNIQUE")
	}
	return b.String(), nil
}

func literal(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'", nil
	case bool:
		if x {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported default value of type %T", v)
	}
}

// Compatible reports whether a live column type can hold values of the
// declared type. Unknown or empty live types are accepted, since the
// embedded backend allows untyped columns.
func Compatible(declared core.ColumnType, live string) bool {
	fam, ok := family(live)
	if !ok {
		return true
	}
	switch declared {
	case core.TypeText:
		return fam == core.TypeText
	case core.TypeInteger:
		return fam == core.TypeInteger
	case core.TypeTimestamp:
		return fam == core.TypeTimestamp || fam == core.TypeText
	case core.TypeBoolean:
		return fam == core.TypeBoolean || fam == core.TypeInteger
	default:
		return false
	}
}

func family(live string) (core.ColumnType, bool) {
	t := strings.ToUpper(strings.TrimSpace(live))
	switch {
	case t == "":
		return 0, false
	case strings.Contains(t, "BOOL"):
		return core.TypeBoolean, true
	case strings.Contains(t, "INT"), strings.Contains(t, "SERIAL"):
		return core.TypeInteger, true
	case strings.Contains(t, "TIME"), strings.Contains(t, "DATE"):
		return core.TypeTimestamp, true
	case strings.Contains(t, "CHAR"), strings.Contains(t, "TEXT"), strings.Contains(t, "CLOB"),
		strings.Contains(t, "STRING"), strings.Contains(t, "UUID"), strings.Contains(t, "JSON"):
		return core.TypeText, true
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"),
		strings.Contains(t, "NUMERIC"), strings.Contains(t, "DECIMAL"), strings.Contains(t, "BLOB"), strings.Contains(t, "BYTEA"):
		// Known, but no declared type maps onto these families.
		return -1, true
	default:
		return 0, false
	}
}
