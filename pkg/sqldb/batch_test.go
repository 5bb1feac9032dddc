package sqldb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBatch(t *testing.T, tbl *Table) {
	t.Helper()
	seedAccounts(t, tbl,
		core.Record{"pk": "a", "tenant_id": "t", "status": "new", "config": map[string]any{"k": "a"}},
		core.Record{"pk": "b", "tenant_id": "t", "status": "new", "config": map[string]any{"k": "b"}},
		core.Record{"pk": "c", "tenant_id": "t", "status": "new", "config": map[string]any{"k": "c"}},
		core.Record{"pk": "d", "tenant_id": "t", "status": "new", "config": map[string]any{"k": "d"}},
	)
}

func storedRow(t *testing.T, db *DB, pk string) core.Record {
	t.Helper()
	row, err := db.FetchOne(context.Background(), `SELECT * FROM accounts WHERE pk = :pk`, map[string]any{"pk": pk})
	require.NoError(t, err)
	require.NotNil(t, row)
	return row
}

func TestBatchUpdateRaw_TouchesOnlyGivenKeys(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	hooks := newHookCounter()
	tbl := addAccounts(t, db, hooks.hooks())
	seedBatch(t, tbl)

	n, err := tbl.BatchUpdateRaw(ctx, []any{"a", "c", "missing"}, core.Record{"status": "archived"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for pk, want := range map[string]string{"a": "archived", "b": "new", "c": "archived", "d": "new"} {
		assert.Equal(t, want, storedRow(t, db, pk)["status"], pk)
	}
	assert.Zero(t, hooks.count("before_update"))
	assert.Zero(t, hooks.count("after_update"))

	n, err = tbl.BatchUpdateRaw(ctx, nil, core.Record{"status": "x"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBatchUpdateRaw_IssuesOneStatement(t *testing.T) {
	db, mock := newMockDB(t)
	tbl := db.MustAddTable(accountsConfig())

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "accounts" SET "status" = $1 WHERE "pk" IN ($2, $3, $4)`).
		WithArgs("archived", "a", "b", "c").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := tbl.BatchUpdateRaw(context.Background(), []any{"a", "b", "c"}, core.Record{"status": "archived"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchUpdate_SkipLeavesRecordsUntouched(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	hooks := newHookCounter()
	tbl := addAccounts(t, db, hooks.hooks())
	seedBatch(t, tbl)

	before := map[string]core.Record{}
	for _, pk := range []string{"a", "b", "c", "d"} {
		before[pk] = storedRow(t, db, pk)
	}

	var order []any
	n, err := tbl.BatchUpdate(ctx, []any{"d", "b", "a", "c", "a"}, UpdateFunc(func(rec core.Record) Decision {
		order = append(order, rec["pk"])
		if rec["pk"] == "b" || rec["pk"] == "d" {
			rec["status"] = "should not be written"
			return Skip
		}
		rec["status"] = "done"
		return Proceed
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []any{"d", "b", "a", "c"}, order)

	for _, pk := range []string{"b", "d"} {
		assert.Equal(t, before[pk], storedRow(t, db, pk), "skipped record %s must be unchanged", pk)
		assert.Zero(t, hooks.count("before_update:"+pk))
		assert.Zero(t, hooks.count("after_update:"+pk))
	}
	for _, pk := range []string{"a", "c"} {
		row := storedRow(t, db, pk)
		assert.Equal(t, "done", row["status"])
		// Unchanged encrypted columns are not rewritten.
		assert.Equal(t, before[pk]["config"], row["config"])
		assert.Equal(t, 1, hooks.count("before_update:"+pk))
		assert.Equal(t, 1, hooks.count("after_update:"+pk))
	}
}

func TestBatchUpdate_StaticValues(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	hooks := newHookCounter()
	tbl := addAccounts(t, db, hooks.hooks())
	seedBatch(t, tbl)

	n, err := tbl.BatchUpdate(ctx, []any{"a", "b"}, Values(core.Record{"config": map[string]any{"k": "shared"}}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 2, hooks.count("after_update"))

	for _, pk := range []string{"a", "b"} {
		got, err := tbl.Get(ctx, pk)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"k": "shared"}, got["config"])
	}
	got, err := tbl.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "c"}, got["config"])
}

func TestBatchUpdate_UnknownColumnFails(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tbl := addAccounts(t, db, Hooks{})
	seedBatch(t, tbl)

	_, err := tbl.BatchUpdate(ctx, []any{"a"}, Values(core.Record{"nope": 1}))
	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = tbl.BatchUpdateRaw(ctx, []any{"a"}, core.Record{"nope": 1})
	require.ErrorAs(t, err, &ve)
}

func TestBatchUpdate_NestedJSONEditedInPlace(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tbl := addAccounts(t, db, Hooks{})
	seedBatch(t, tbl)

	n, err := tbl.BatchUpdate(ctx, []any{"a"}, UpdateFunc(func(rec core.Record) Decision {
		rec["config"].(map[string]any)["k"] = "CHANGED"
		return Proceed
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := tbl.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "CHANGED"}, got["config"])
}

func TestBatchUpdate_UnchangedRowsAreNotWritten(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	hooks := newHookCounter()
	tbl := addAccounts(t, db, hooks.hooks())
	seedBatch(t, tbl)

	n, err := tbl.BatchUpdate(ctx, []any{"a", "b"}, UpdateFunc(func(rec core.Record) Decision {
		if rec["pk"] == "b" {
			rec["status"] = "done"
		}
		return Proceed
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Zero(t, hooks.count("after_update:a"))
	assert.Equal(t, 1, hooks.count("after_update:b"))
}
