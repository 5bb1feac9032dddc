package schema

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDialect renders sqlite-flavoured DDL.
type testDialect struct{ noAutoIncrement bool }

func (testDialect) Name() string                            { return "test" }
func (testDialect) PlaceholderStyle() core.PlaceholderStyle { return core.PlaceholderQuestion }
func (testDialect) QuoteIdent(name string) string           { return core.QuoteIdent(name) }
func (testDialect) RowLockClause() string                   { return "" }
func (testDialect) BindValue(v any) any                     { return v }
func (testDialect) ILike(column, ph string, negate bool) string {
	return column + " ILIKE " + ph
}

func (testDialect) TypeName(t core.ColumnType) string {
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

func (d testDialect) PrimaryKeyDDL(column string) (string, error) {
	if d.noAutoIncrement {
		return "", errors.New("auto-increment not supported")
	}
	return core.QuoteIdent(column) + " INTEGER PRIMARY KEY", nil
}

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := New(Text("name"), Integer("age"), Text("name"))

	var schemaErr *core.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "name", schemaErr.Column)
	assert.Contains(t, schemaErr.Message, "duplicate")
}

func TestNew_RejectsInvalidNames(t *testing.T) {
	tests := []struct {
		name string
		col  Column
	}{
		{"empty", Text("")},
		{"spaces", Text("first name")},
		{"injection", Text(`x"; DROP TABLE t; --`)},
		{"bad relation", Text("tenant_id").References("tenants", "pk key")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.col)
			var schemaErr *core.SchemaError
			assert.ErrorAs(t, err, &schemaErr)
		})
	}
}

func TestExtend_ConcatenatesInOrder(t *testing.T) {
	base := MustNew(Text("pk"), Timestamp("created_at"))

	derived, err := base.Extend(Text("name"), Text("config").JSON().Encrypt())
	require.NoError(t, err)

	assert.Equal(t, []string{"pk", "created_at", "name", "config"}, derived.Names())
	assert.Equal(t, []string{"pk", "created_at"}, base.Names(), "base must be unchanged")
	assert.Equal(t, []string{"config"}, derived.EncryptedColumns())
	assert.Equal(t, []string{"config"}, derived.JSONColumns())

	_, err = base.Extend(Text("created_at"))
	var schemaErr *core.SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestConcat(t *testing.T) {
	a := MustNew(Text("pk"))
	b, err := MustNew(Text("tenant_id"), Text("id")).WithUnique("tenant_id", "id")
	require.NoError(t, err)

	out, err := Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"pk", "tenant_id", "id"}, out.Names())
	assert.Equal(t, [][]string{{"tenant_id", "id"}}, out.Uniques())

	_, err = Concat(a, a)
	assert.Error(t, err)
}

func TestWithUnique_UnknownColumn(t *testing.T) {
	_, err := MustNew(Text("a")).WithUnique("a", "b")
	var schemaErr *core.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "b", schemaErr.Column)
}

func TestColumnModifiers(t *testing.T) {
	c := Integer("count").NotNull().WithDefault(0).AsUnique()
	assert.False(t, c.Nullable)
	assert.Equal(t, 0, c.Default)
	assert.True(t, c.Unique)

	enc := Integer("secret").Encrypt()
	assert.Equal(t, core.TypeText, enc.Type, "encrypted columns are stored as text")
}

func TestCreateTableSQL(t *testing.T) {
	s, err := MustNew(
		Text("pk"),
		Text("tenant_id").NotNull().References("tenants", "pk"),
		Text("id").NotNull(),
		Text("name").WithDefault("it's"),
		Text("password").Encrypt(),
		Boolean("active").WithDefault(true),
	).WithUnique("tenant_id", "id")
	require.NoError(t, err)

	got, err := CreateTableSQL(testDialect{}, TableDef{Name: "accounts", Schema: s, PrimaryKey: "pk"})
	require.NoError(t, err)

	expected := `CREATE TABLE IF NOT EXISTS "accounts" (
    "pk" TEXT PRIMARY KEY,
    "tenant_id" TEXT NOT NULL,
    "id" TEXT NOT NULL,
    "name" TEXT DEFAULT 'it''s',
    "password" TEXT,
    "active" BOOLEAN DEFAULT TRUE,
    UNIQUE ("tenant_id", "id"),
    FOREIGN KEY ("tenant_id") REFERENCES "tenants" ("pk")
)`
	assert.Equal(t, expected, got)
}

func TestCreateTableSQL_AutoIncrement(t *testing.T) {
	s := MustNew(Integer("id"), Text("label").AsUnique())

	got, err := CreateTableSQL(testDialect{}, TableDef{Name: "items", Schema: s, PrimaryKey: "id", AutoIncrement: true})
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS \"items\" (\n    \"id\" INTEGER PRIMARY KEY,\n    \"label\" TEXT UNIQUE\n)", got)

	tests := []struct {
		name string
		dial testDialect
		def  TableDef
	}{
		{"text key", testDialect{}, TableDef{Name: "x", Schema: MustNew(Text("id")), PrimaryKey: "id", AutoIncrement: true}},
		{"unsupported", testDialect{noAutoIncrement: true}, TableDef{Name: "x", Schema: s, PrimaryKey: "id", AutoIncrement: true}},
		{"missing key", testDialect{}, TableDef{Name: "x", Schema: s, PrimaryKey: "pk"}},
		{"bad table", testDialect{}, TableDef{Name: "x y", Schema: s}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateTableSQL(tt.dial, tt.def)
			var schemaErr *core.SchemaError
			assert.ErrorAs(t, err, &schemaErr)
		})
	}
}

func TestAddColumnSQL(t *testing.T) {
	got, err := AddColumnSQL(testDialect{}, "accounts", Text("tenant_id").AsUnique().References("tenants", "pk"))
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "accounts" ADD COLUMN "tenant_id" TEXT REFERENCES "tenants" ("pk")`, got)

	_, err = AddColumnSQL(testDialect{}, "accounts", Text("x").WithDefault([]int{1}))
	assert.Error(t, err)
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		declared core.ColumnType
		live     string
		want     bool
	}{
		{core.TypeText, "TEXT", true},
		{core.TypeText, "character varying", true},
		{core.TypeText, "INTEGER", false},
		{core.TypeInteger, "bigint", true},
		{core.TypeInteger, "TEXT", false},
		{core.TypeTimestamp, "timestamp with time zone", true},
		{core.TypeTimestamp, "TEXT", true},
		{core.TypeBoolean, "INTEGER", true},
		{core.TypeBoolean, "boolean", true},
		{core.TypeInteger, "DOUBLE", false},
		{core.TypeText, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.declared.String()+"/"+tt.live, func(t *testing.T) {
			assert.Equal(t, tt.want, Compatible(tt.declared, tt.live))
		})
	}
}
