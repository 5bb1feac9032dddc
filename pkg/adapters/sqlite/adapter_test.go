package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Adapter {
	t.Helper()
	adp := New(nil)
	require.NoError(t, adp.Open(context.Background(), core.AdapterConfig{Path: ":memory:"}))
	t.Cleanup(func() { _ = adp.Shutdown() })
	return adp
}

func TestAdapter_Open(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
		},
		{
			name: "default path is in-memory",
			setupPath: func(_ *testing.T) string {
				return ""
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "test.db")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			dbPath := tt.setupPath(t)
			require.NoError(t, adp.Open(ctx, core.AdapterConfig{Path: dbPath}))
			defer func() { _ = adp.Shutdown() }()

			assert.True(t, adp.IsConnected())
			assert.Equal(t, "sqlite", adp.Name())

			tx, err := adp.Connect(ctx)
			require.NoError(t, err)
			require.NoError(t, tx.ExecuteScript(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)"))
			require.NoError(t, tx.Close())

			if tt.verify != nil {
				tt.verify(t, dbPath)
			}
		})
	}
}

func TestAdapter_OpenRejectsBadParams(t *testing.T) {
	adp := New(nil)
	err := adp.Open(context.Background(), core.AdapterConfig{
		Path:   ":memory:",
		Params: map[string]any{"journal_mode": "sideways"},
	})
	require.Error(t, err)
	assert.False(t, adp.IsConnected())
}

func TestAdapter_ForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	adp := openMemory(t)

	tx, err := adp.Connect(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	row, err := tx.FetchOne(ctx, "PRAGMA foreign_keys", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), row["foreign_keys"])

	require.NoError(t, tx.ExecuteScript(ctx, `
		CREATE TABLE parent (id INTEGER PRIMARY KEY);
		CREATE TABLE child (id INTEGER PRIMARY KEY, parent_id INTEGER REFERENCES parent (id));
	`))
	_, err = tx.Insert(ctx, "child", core.Record{"parent_id": int64(99)})
	var txErr *core.TransactionError
	require.ErrorAs(t, err, &txErr)
}

func TestAdapter_MemoryDatabaseIsShared(t *testing.T) {
	ctx := context.Background()
	adp := openMemory(t)

	tx, err := adp.Connect(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.ExecuteScript(ctx, "CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)"))
	_, err = tx.Insert(ctx, "notes", core.Record{"body": "kept"})
	require.NoError(t, err)
	require.NoError(t, tx.Close())

	tx, err = adp.Connect(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()
	n, err := tx.Count(ctx, "notes", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestAdapter_InsertReturningID(t *testing.T) {
	ctx := context.Background()
	adp := openMemory(t)

	tx, err := adp.Connect(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	require.NoError(t, tx.ExecuteScript(ctx, `CREATE TABLE items ("id" INTEGER PRIMARY KEY, "name" TEXT)`))
	first, err := tx.InsertReturningID(ctx, "items", core.Record{"name": "a"}, "id")
	require.NoError(t, err)
	second, err := tx.InsertReturningID(ctx, "items", core.Record{"name": "b"}, "id")
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}

func TestAdapter_TableColumns(t *testing.T) {
	ctx := context.Background()
	adp := openMemory(t)

	tx, err := adp.Connect(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	require.NoError(t, tx.ExecuteScript(ctx, `CREATE TABLE people (
		"id" TEXT PRIMARY KEY,
		"name" TEXT NOT NULL,
		"born" TIMESTAMP
	)`))

	cols, err := tx.TableColumns(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, []core.TableColumn{
		{Name: "id", Type: "TEXT", PrimaryKey: true, Position: 1},
		{Name: "name", Type: "TEXT", Position: 2},
		{Name: "born", Type: "TIMESTAMP", Nullable: true, Position: 3},
	}, cols)

	missing, err := tx.TableColumns(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestAdapter_CaseInsensitiveLike(t *testing.T) {
	ctx := context.Background()
	adp := openMemory(t)

	tx, err := adp.Connect(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	require.NoError(t, tx.ExecuteScript(ctx, `CREATE TABLE people (name TEXT)`))
	for _, name := range []string{"Mario", "MARIA", "luigi"} {
		_, err := tx.Insert(ctx, "people", core.Record{"name": name})
		require.NoError(t, err)
	}

	d := Dialect{}
	rows, err := tx.FetchAll(ctx, "SELECT name FROM people WHERE "+d.ILike("name", ":p", false)+" ORDER BY name", map[string]any{"p": "mar%"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "MARIA", rows[0]["name"])
	assert.Equal(t, "Mario", rows[1]["name"])
}

func TestDialect(t *testing.T) {
	d := Dialect{}

	pk, err := d.PrimaryKeyDDL("id")
	require.NoError(t, err)
	assert.Equal(t, `"id" INTEGER PRIMARY KEY`, pk)
	assert.Empty(t, d.RowLockClause())
	assert.Equal(t, `LOWER("name") NOT LIKE LOWER(?)`, d.ILike(`"name"`, "?", true))
	assert.Equal(t, "sqlite3", d.GooseDialect())
	assert.False(t, d.SupportsReturning())

	tests := []struct {
		typ  core.ColumnType
		want string
	}{
		{core.TypeText, "TEXT"},
		{core.TypeInteger, "INTEGER"},
		{core.TypeTimestamp, "TIMESTAMP"},
		{core.TypeBoolean, "BOOLEAN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.TypeName(tt.typ), tt.typ.String())
	}
}

func TestDialect_BindValue(t *testing.T) {
	d := Dialect{}
	ts := time.Date(2024, 3, 1, 12, 30, 0, 500, time.FixedZone("CET", 3600))

	assert.Equal(t, "2024-03-01T11:30:00.0000005Z", d.BindValue(ts))
	assert.Equal(t, "2024-03-01T11:30:00.0000005Z", d.BindValue(&ts))
	assert.Nil(t, d.BindValue((*time.Time)(nil)))
	assert.Equal(t, int64(5), d.BindValue(int64(5)))
	assert.Equal(t, "x", d.BindValue("x"))
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		params Params
		want   string
	}{
		{
			name: "defaults",
			path: ":memory:",
			want: ":memory:?_pragma=foreign_keys%281%29",
		},
		{
			name:   "busy timeout and journal",
			path:   "app.db",
			params: Params{BusyTimeout: 5000, JournalMode: "wal"},
			want:   "app.db?_pragma=foreign_keys%281%29&_pragma=busy_timeout%285000%29&_pragma=journal_mode%28WAL%29",
		},
		{
			name: "existing query string",
			path: "file:app.db?mode=ro",
			want: "file:app.db?mode=ro&_pragma=foreign_keys%281%29",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildDSN(tt.path, &tt.params))
		})
	}
}
