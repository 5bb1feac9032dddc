package sqldb

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_InsertMissingThenUpdate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	hooks := newHookCounter()
	tbl := addAccounts(t, db, hooks.hooks())

	err := tbl.Record(ctx, "acct-1", func(rec core.Record) error {
		assert.Equal(t, core.Record{"pk": "acct-1"}, rec)
		rec["tenant_id"] = "acme"
		rec["name"] = "Main"
		rec["config"] = map[string]any{"seats": 5}
		return nil
	}, InsertMissing())
	require.NoError(t, err)
	assert.Equal(t, int64(1), countAccounts(t, tbl))
	assert.Equal(t, 1, hooks.count("before_insert"))

	err = tbl.Record(ctx, "acct-1", func(rec core.Record) error {
		assert.Equal(t, map[string]any{"seats": int64(5)}, rec["config"])
		rec["name"] = "Renamed"
		return nil
	}, InsertMissing())
	require.NoError(t, err)

	assert.Equal(t, int64(1), countAccounts(t, tbl))
	assert.Equal(t, 1, hooks.count("before_insert"))
	assert.Equal(t, 1, hooks.count("before_update:acct-1"))
	assert.Equal(t, 1, hooks.count("after_update:acct-1"))

	got, err := tbl.Get(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got["name"])
	assert.Equal(t, map[string]any{"seats": int64(5)}, got["config"])
}

func TestRecord_ErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	hooks := newHookCounter()
	tbl := addAccounts(t, db, hooks.hooks())
	seedAccounts(t, tbl, core.Record{"pk": "existing", "tenant_id": "acme", "name": "Before"})

	err := tbl.Record(ctx, "new", func(rec core.Record) error {
		rec["tenant_id"] = "acme"
		return errBoom
	}, InsertMissing())
	require.ErrorIs(t, err, errBoom)

	err = tbl.Record(ctx, "existing", func(rec core.Record) error {
		rec["name"] = "After"
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, int64(1), countAccounts(t, tbl))
	got, err := tbl.Get(ctx, "existing")
	require.NoError(t, err)
	assert.Equal(t, "Before", got["name"])
	assert.Zero(t, hooks.count("before_update"))
}

func TestRecord_LookupByFilter(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tbl := addAccounts(t, db, Hooks{})
	seedAccounts(t, tbl,
		core.Record{"pk": "a", "tenant_id": "acme", "name": "one"},
		core.Record{"pk": "b", "tenant_id": "globex", "name": "two"},
		core.Record{"pk": "c", "tenant_id": "globex", "name": "three"},
	)

	err := tbl.Record(ctx, core.Record{"tenant_id": "acme"}, func(rec core.Record) error {
		rec["status"] = "vip"
		return nil
	})
	require.NoError(t, err)
	got, err := tbl.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "vip", got["status"])

	err = tbl.Record(ctx, map[string]any{"tenant_id": "globex"}, func(core.Record) error { return nil })
	var dup *core.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, 2, dup.Count)

	called := false
	err = tbl.Record(ctx, "absent", func(core.Record) error {
		called = true
		return nil
	})
	assert.True(t, core.IsNotFound(err))
	assert.False(t, called)

	err = tbl.Record(ctx, core.Record{"tenant_id": "initech"}, func(rec core.Record) error {
		rec["pk"] = "i"
		return nil
	}, InsertMissing())
	require.NoError(t, err)
	got, err = tbl.Get(ctx, "i")
	require.NoError(t, err)
	assert.Equal(t, "initech", got["tenant_id"])
}

func TestRecord_NestedJSONEditedInPlace(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	tbl := addAccounts(t, db, Hooks{})
	seedBatch(t, tbl)

	err := tbl.Record(ctx, "b", func(rec core.Record) error {
		rec["config"].(map[string]any)["k"] = "CHANGED"
		return nil
	})
	require.NoError(t, err)

	got, err := tbl.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "CHANGED"}, got["config"])

	other, err := tbl.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "c"}, other["config"])
}

func TestRecord_ExistingKeyIssuesOneUpdate(t *testing.T) {
	tests := []struct {
		name string
		fn   func(rec core.Record) error
		args []driver.Value
	}{
		{
			name: "changed field",
			fn: func(rec core.Record) error {
				rec["name"] = "Renamed"
				return nil
			},
			args: []driver.Value{nil, "Renamed", "new", "acme", "a"},
		},
		{
			name: "no changes",
			fn:   func(core.Record) error { return nil },
			args: []driver.Value{nil, "Main", "new", "acme", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tbl := db.MustAddTable(accountsConfig())

			mock.ExpectBegin()
			mock.ExpectQuery(`SELECT * FROM "accounts" WHERE "pk" = $1 LIMIT 2 FOR UPDATE`).
				WithArgs("a").
				WillReturnRows(sqlmock.NewRows([]string{"pk", "tenant_id", "name", "status", "config"}).
					AddRow("a", "acme", "Main", "new", nil))
			mock.ExpectExec(`UPDATE "accounts" SET "config" = $1, "name" = $2, "status" = $3, "tenant_id" = $4 WHERE "pk" = $5`).
				WithArgs(tt.args...).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			require.NoError(t, tbl.Record(context.Background(), "a", tt.fn))
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
