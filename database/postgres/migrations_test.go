package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/photozip"
	"github.com/sagarc03/photozip/database/postgres"
)

func TestMigrate(t *testing.T) {
	pool, cleanup := getIsolatedTestDatabase(t)
	defer cleanup()
	defer pool.Close()

	ctx := context.Background()
	tables := photozip.Tables{History: "archive_history"}

	require.NoError(t, postgres.Migrate(ctx, pool, tables))
	// Idempotent.
	require.NoError(t, postgres.Migrate(ctx, pool, tables))

	assert.NoError(t, postgres.ValidateSchema(ctx, pool, tables))

	require.NoError(t, postgres.DropTables(ctx, pool, tables))
	assert.ErrorContains(t, postgres.ValidateSchema(ctx, pool, tables), "does not exist")
}

func TestValidateSchema_MissingColumns(t *testing.T) {
	pool := getSharedTestDatabase(t)
	ctx := context.Background()
	tableName := "history_" + getRandomString(t)

	_, err := pool.Exec(ctx, `CREATE TABLE `+tableName+` (id UUID PRIMARY KEY, token TEXT NOT NULL)`)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dropTable(context.Background(), pool, tableName) })

	err = postgres.ValidateSchema(ctx, pool, photozip.Tables{History: tableName})

	assert.ErrorContains(t, err, "missing columns")
}

func TestMigrate_InvalidTableName(t *testing.T) {
	err := postgres.Migrate(context.Background(), nil, photozip.Tables{History: "1invalid"})

	assert.Error(t, err)
}
