package sqldb

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var migrationsFS = fstest.MapFS{
	"migrations/00001_create_notes.sql": {Data: []byte(`-- +goose Up
CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT);

-- +goose Down
DROP TABLE notes;
`)},
	"migrations/00002_add_author.sql": {Data: []byte(`-- +goose Up
ALTER TABLE notes ADD COLUMN author TEXT;

-- +goose Down
ALTER TABLE notes DROP COLUMN author;
`)},
}

func TestMigrate_AppliesPendingOnce(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t, "sqlite:"+t.TempDir()+"/migrate.db")

	results, err := db.Migrate(ctx, migrationsFS, "migrations")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].Source.Version)
	assert.Equal(t, int64(2), results[1].Source.Version)

	_, err = db.Execute(ctx, `INSERT INTO notes (body, author) VALUES (:body, :author)`,
		map[string]any{"body": "hello", "author": "me"})
	require.NoError(t, err)

	again, err := db.Migrate(ctx, migrationsFS, "migrations")
	require.NoError(t, err)
	assert.Empty(t, again)

	status, err := db.MigrationStatus(ctx, migrationsFS, "migrations")
	require.NoError(t, err)
	require.Len(t, status, 2)
	for _, s := range status {
		assert.Equal(t, goose.StateApplied, s.State)
	}
}

func TestMigrate_RejectedInsideScope(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	err := db.Connection(ctx, func(ctx context.Context) error {
		_, err := db.Migrate(ctx, migrationsFS, "migrations")
		return err
	})
	assert.ErrorIs(t, err, ErrMigrationInScope)
}
