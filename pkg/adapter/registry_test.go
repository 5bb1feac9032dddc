package adapter

import (
	"context"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	BaseSQLAdapter
	name string
}

func (s *stubAdapter) Name() string { return s.name }

func (*stubAdapter) Open(context.Context, Config) error { return nil }

func stubFactory(name string) func(*slog.Logger) Adapter {
	return func(*slog.Logger) Adapter { return &stubAdapter{name: name} }
}

func TestRegister_RoutesDescriptors(t *testing.T) {
	Register(Registration{Name: "memdb", Factory: stubFactory("memdb"), URLSchemes: []string{"memdb", "mem"}})
	Register(Registration{Name: "flatfile", Factory: stubFactory("flatfile"), FileBacked: true})

	tests := []struct {
		descriptor string
		want       core.AdapterConfig
	}{
		{"memdb://host/db", core.AdapterConfig{Type: "memdb", DSN: "memdb://host/db"}},
		{"MEM://host/db", core.AdapterConfig{Type: "memdb", DSN: "MEM://host/db"}},
		{"flatfile:rows.txt", core.AdapterConfig{Type: "flatfile", Path: "rows.txt"}},
		{"flatfile://rows.txt", core.AdapterConfig{Type: "flatfile", Path: "rows.txt"}},
		{"flatfile:", core.AdapterConfig{Type: "flatfile", Path: MemoryPath}},
	}
	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			got, err := ParseDescriptor(tt.descriptor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	adp, err := NewAdapter(Config{Type: "MemDB"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "memdb", adp.Name())
	assert.True(t, IsRegistered("flatfile"))
}

func TestRegister_SchemeOwnership(t *testing.T) {
	Register(Registration{Name: "owner", Factory: stubFactory("owner"), URLSchemes: []string{"owned"}})

	assert.Panics(t, func() {
		Register(Registration{Name: "intruder", Factory: stubFactory("intruder"), URLSchemes: []string{"owned"}})
	})
	assert.False(t, IsRegistered("intruder"))

	// Re-registering a name replaces its schemes.
	Register(Registration{Name: "owner", Factory: stubFactory("owner"), URLSchemes: []string{"owned2"}})
	_, err := ParseDescriptor("owned://x")
	var unknownErr *UnknownAdapterError
	require.ErrorAs(t, err, &unknownErr)
	got, err := ParseDescriptor("owned2://x")
	require.NoError(t, err)
	assert.Equal(t, "owner", got.Type)
}

func TestRegister_RequiresNameAndFactory(t *testing.T) {
	assert.Panics(t, func() { Register(Registration{Name: "nofactory"}) })
	assert.Panics(t, func() { Register(Registration{Factory: stubFactory("x")}) })
}

func TestNewAdapter_EmptyType(t *testing.T) {
	_, err := NewAdapter(Config{}, nil)
	require.Error(t, err)
	assert.Equal(t, "adapter type not specified", err.Error())
}

func TestUnknownAdapterError_Error(t *testing.T) {
	err := &UnknownAdapterError{Type: "fake_db", Available: []string{"duckdb", "postgres"}}
	assert.Contains(t, err.Error(), `"fake_db"`)
	assert.Contains(t, err.Error(), "duckdb, postgres")
	assert.Contains(t, err.Error(), "descriptor")

	empty := &UnknownAdapterError{Type: "x"}
	assert.Contains(t, empty.Error(), "registered: none")
}
