package sqldb

import (
	"context"
	"testing"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncSchema_CreatesThenAddsColumnsOnce(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.ExecuteScript(ctx, `CREATE TABLE "things" ("id" TEXT PRIMARY KEY, "name" TEXT)`))
	_, err := db.Execute(ctx, `INSERT INTO things (id, name) VALUES (:id, :name)`, map[string]any{"id": "t1", "name": "old"})
	require.NoError(t, err)

	db.MustAddTable(TableConfig{
		Name:       "things",
		PrimaryKey: "id",
		Schema: schema.MustNew(
			schema.Text("id"),
			schema.Text("name"),
			schema.Text("note"),
			schema.Integer("rank").NotNull().WithDefault(0),
		),
	})
	db.MustAddTable(TableConfig{
		Name:       "fresh",
		PrimaryKey: "id",
		Schema:     schema.MustNew(schema.Text("id"), schema.Timestamp("at")),
	})

	first, err := db.SyncSchema(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, SyncResult{Table: "things", Added: []string{"note", "rank"}}, first[0])
	assert.Equal(t, SyncResult{Table: "fresh", Created: true}, first[1])

	second, err := db.SyncSchema(ctx)
	require.NoError(t, err)
	for _, res := range second {
		assert.False(t, res.Changed(), res.Table)
	}

	tbl, ok := db.Table("things")
	require.True(t, ok)
	got, err := tbl.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got["rank"])
	assert.Nil(t, got["note"])
}

func TestSyncSchema_Errors(t *testing.T) {
	tests := []struct {
		name   string
		ddl    string
		schema *schema.Schema
		cols   int
	}{
		{
			name:   "incompatible type",
			ddl:    `CREATE TABLE "things" ("id" TEXT PRIMARY KEY, "name" INTEGER)`,
			schema: schema.MustNew(schema.Text("id"), schema.Text("name")),
			cols:   2,
		},
		{
			name:   "missing primary key column",
			ddl:    `CREATE TABLE "things" ("other" TEXT)`,
			schema: schema.MustNew(schema.Text("id"), schema.Text("other")),
			cols:   1,
		},
		{
			name:   "not null without default",
			ddl:    `CREATE TABLE "things" ("id" TEXT PRIMARY KEY)`,
			schema: schema.MustNew(schema.Text("id"), schema.Text("required").NotNull()),
			cols:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db := newTestDB(t)
			require.NoError(t, db.ExecuteScript(ctx, tt.ddl))
			tbl := db.MustAddTable(TableConfig{Name: "things", PrimaryKey: "id", Schema: tt.schema})

			res, err := tbl.SyncSchema(ctx)
			var se *core.SchemaError
			require.ErrorAs(t, err, &se)
			assert.Empty(t, res.Added)

			cols, err := db.FetchAll(ctx, `PRAGMA table_info("things")`, nil)
			require.NoError(t, err)
			assert.Len(t, cols, tt.cols)
		})
	}
}

func TestCheckStructure_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tbl := addAccounts(t, db, Hooks{})
	require.NoError(t, db.CheckStructure(ctx))

	ddl, err := tbl.CreateTableSQL()
	require.NoError(t, err)
	assert.Contains(t, ddl, `CREATE TABLE IF NOT EXISTS "accounts"`)
	assert.Contains(t, ddl, `"tenant_id" TEXT NOT NULL`)
}
