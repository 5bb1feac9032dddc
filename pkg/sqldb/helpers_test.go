package sqldb

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapdb/internal/testutil"
	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/adapters/postgres"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/schema"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/leapdb/pkg/adapters/sqlite"
)

func newTestDB(t *testing.T, opts ...Option) *DB {
	t.Helper()
	return openTestDB(t, ":memory:", opts...)
}

func openTestDB(t *testing.T, descriptor string, opts ...Option) *DB {
	t.Helper()
	base := []Option{
		WithLogger(testutil.NewTestLogger(t)),
		WithEncrypter(testutil.NewEncrypter(t)),
	}
	db, err := Open(context.Background(), descriptor, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func accountsConfig() TableConfig {
	return TableConfig{
		Name:       "accounts",
		PrimaryKey: "pk",
		Schema: schema.MustNew(
			schema.Text("pk"),
			schema.Text("tenant_id").NotNull(),
			schema.Text("name"),
			schema.Text("status"),
			schema.Text("config").JSON().Encrypt(),
		),
	}
}

func addAccounts(t *testing.T, db *DB, hooks Hooks) *Table {
	t.Helper()
	cfg := accountsConfig()
	cfg.Hooks = hooks
	tbl, err := db.AddTable(cfg)
	require.NoError(t, err)
	require.NoError(t, db.CheckStructure(context.Background()))
	return tbl
}

func seedAccounts(t *testing.T, tbl *Table, rows ...core.Record) {
	t.Helper()
	ctx := context.Background()
	for _, row := range rows {
		_, err := tbl.Insert(ctx, row)
		require.NoError(t, err)
	}
}

// hookCounter counts hook invocations, overall and per primary key.
type hookCounter struct {
	mu    sync.Mutex
	calls map[string]int
}

func newHookCounter() *hookCounter {
	return &hookCounter{calls: map[string]int{}}
}

func (h *hookCounter) hit(name string, rec core.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls[name]++
	if pk, ok := rec["pk"]; ok {
		h.calls[fmt.Sprintf("%s:%v", name, pk)]++
	}
}

func (h *hookCounter) count(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[name]
}

func (h *hookCounter) hooks() Hooks {
	return Hooks{
		BeforeInsert: func(_ context.Context, rec core.Record) (core.Record, error) {
			h.hit("before_insert", rec)
			return rec, nil
		},
		AfterInsert: func(_ context.Context, rec core.Record) error {
			h.hit("after_insert", rec)
			return nil
		},
		BeforeUpdate: func(_ context.Context, next, _ core.Record) (core.Record, error) {
			h.hit("before_update", next)
			return next, nil
		},
		AfterUpdate: func(_ context.Context, next, _ core.Record) error {
			h.hit("after_update", next)
			return nil
		},
		BeforeDelete: func(_ context.Context, rec core.Record) error {
			h.hit("before_delete", rec)
			return nil
		},
		AfterDelete: func(_ context.Context, rec core.Record) error {
			h.hit("after_delete", rec)
			return nil
		},
	}
}

type mockAdapter struct {
	adapter.BaseSQLAdapter
}

func (*mockAdapter) Name() string                               { return "mock" }
func (*mockAdapter) Open(context.Context, adapter.Config) error { return nil }

// newMockDB returns a DB on sqlmock rendering postgres SQL.
func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	a := &mockAdapter{BaseSQLAdapter: adapter.BaseSQLAdapter{DB: sqlDB, D: postgres.Dialect{}}}
	return New(a, WithLogger(testutil.NewTestLogger(t)), WithEncrypter(testutil.NewEncrypter(t))), mock
}
