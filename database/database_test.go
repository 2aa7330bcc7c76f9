package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/photozip"
	"github.com/sagarc03/photozip/database"
)

func TestConnect_SQLite(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "history.db")

	repo, cleanup, err := database.Connect(ctx, database.Config{
		Type:  "sqlite",
		DSN:   dsn,
		Table: "archive_history",
	})
	require.NoError(t, err)
	defer cleanup()

	rec := photozip.ArchiveRecord{
		ID:        uuid.New(),
		Token:     "abc",
		Producer:  "zip",
		StartedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Begin(ctx, rec))

	result, err := repo.List(ctx, photozip.HistoryQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, rec.ID, result.Items[0].ID)
}

func TestConnect_SQLite_ReopensExistingDatabase(t *testing.T) {
	ctx := context.Background()
	cfg := database.Config{
		Type:  "sqlite",
		DSN:   filepath.Join(t.TempDir(), "history.db"),
		Table: "archive_history",
	}

	_, cleanup, err := database.Connect(ctx, cfg)
	require.NoError(t, err)
	cleanup()

	_, cleanup, err = database.Connect(ctx, cfg)
	require.NoError(t, err)
	cleanup()
}

func TestConnect_InvalidType(t *testing.T) {
	_, _, err := database.Connect(context.Background(), database.Config{
		Type:  "mysql",
		DSN:   "whatever",
		Table: "archive_history",
	})

	assert.ErrorContains(t, err, "unsupported database type: mysql")
}

func TestConnect_InvalidTable(t *testing.T) {
	_, _, err := database.Connect(context.Background(), database.Config{
		Type:  "sqlite",
		DSN:   ":memory:",
		Table: "DROP TABLE",
	})

	assert.ErrorContains(t, err, "invalid history table name")
}

func TestConfig_Enabled(t *testing.T) {
	assert.False(t, database.Config{}.Enabled())
	assert.True(t, database.Config{Type: "sqlite"}.Enabled())
}
