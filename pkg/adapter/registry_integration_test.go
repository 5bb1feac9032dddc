package adapter_test

import (
	"context"
	"testing"

	"github.com/leapstack-labs/leapdb/pkg/adapter"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/leapdb/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapdb/pkg/adapters/sqlite"
)

func TestBundledRegistrations(t *testing.T) {
	tests := []struct {
		name         string
		schemes      []string
		fileBacked   bool
		handlesPaths bool
	}{
		{"duckdb", nil, true, false},
		{"postgres", []string{"postgres", "postgresql"}, false, false},
		{"sqlite", nil, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, ok := adapter.Get(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.name, reg.Name)
			assert.Equal(t, tt.schemes, reg.URLSchemes)
			assert.Equal(t, tt.fileBacked, reg.FileBacked)
			assert.Equal(t, tt.handlesPaths, reg.HandlesPaths)
			assert.Equal(t, tt.name, reg.Factory(nil).Name())
		})
	}
	assert.Subset(t, adapter.ListAdapters(), []string{"duckdb", "postgres", "sqlite"})
}

func TestParseDescriptor(t *testing.T) {
	tests := []struct {
		descriptor string
		want       core.AdapterConfig
	}{
		{":memory:", core.AdapterConfig{Type: "sqlite", Path: ":memory:"}},
		{"./data/app.db", core.AdapterConfig{Type: "sqlite", Path: "./data/app.db"}},
		{"/var/lib/app.sqlite", core.AdapterConfig{Type: "sqlite", Path: "/var/lib/app.sqlite"}},
		{"sqlite:app.db", core.AdapterConfig{Type: "sqlite", Path: "app.db"}},
		{"SQLite:app.db", core.AdapterConfig{Type: "sqlite", Path: "app.db"}},
		{"sqlite://app.db", core.AdapterConfig{Type: "sqlite", Path: "app.db"}},
		{"sqlite:", core.AdapterConfig{Type: "sqlite", Path: ":memory:"}},
		{"duckdb:warehouse.duckdb", core.AdapterConfig{Type: "duckdb", Path: "warehouse.duckdb"}},
		{"duckdb://", core.AdapterConfig{Type: "duckdb", Path: ":memory:"}},
		{"postgres://u:p@localhost:5432/app", core.AdapterConfig{Type: "postgres", DSN: "postgres://u:p@localhost:5432/app"}},
		{"postgresql://localhost/app?sslmode=disable", core.AdapterConfig{Type: "postgres", DSN: "postgresql://localhost/app?sslmode=disable"}},
		{`C://data/app.db`, core.AdapterConfig{Type: "sqlite", Path: `C://data/app.db`}},
		{"notes:2024.db", core.AdapterConfig{Type: "sqlite", Path: "notes:2024.db"}},
	}

	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			got, err := adapter.ParseDescriptor(tt.descriptor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDescriptor_Errors(t *testing.T) {
	_, err := adapter.ParseDescriptor("  ")
	require.Error(t, err)

	_, err = adapter.ParseDescriptor("mysql://root@localhost/app")
	var unknownErr *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "mysql", unknownErr.Type)
	assert.Contains(t, unknownErr.Available, "postgres")
}

func TestNewAdapter(t *testing.T) {
	adp, err := adapter.NewAdapter(core.AdapterConfig{Type: "duckdb", Path: ":memory:"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "duckdb", adp.Name())

	_, err = adapter.NewAdapter(core.AdapterConfig{Type: "oracle"}, nil)
	var unknownErr *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "oracle", unknownErr.Type)
	assert.Contains(t, unknownErr.Available, "duckdb")
}

func TestOpen_MemoryDescriptor(t *testing.T) {
	ctx := context.Background()
	adp, err := adapter.Open(ctx, ":memory:", core.AdapterConfig{}, nil)
	require.NoError(t, err)
	defer func() { _ = adp.Shutdown() }()

	assert.Equal(t, "sqlite", adp.Name())

	tx, err := adp.Connect(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.ExecuteScript(ctx, `CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)`))

	_, err = tx.Insert(ctx, "notes", core.Record{"body": "hello"})
	require.NoError(t, err)

	n, err := tx.Count(ctx, "notes", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, tx.Close())
}

func TestOpen_UnknownScheme(t *testing.T) {
	_, err := adapter.Open(context.Background(), "mysql://localhost/db", core.AdapterConfig{}, nil)
	var unknownErr *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "mysql", unknownErr.Type)
}
