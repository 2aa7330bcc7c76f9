package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/photozip"
)

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, pool *pgxpool.Pool) error
	Down      func(ctx context.Context, pool *pgxpool.Pool) error
}

func getTableMigrations(tables photozip.Tables) []TableMigration {
	migrations := []TableMigration{}

	migrations = append(migrations, TableMigration{
		TableName: tables.History,
		Up:        createHistoryTable(tables.History),
		Down:      dropTable(tables.History),
	})

	return migrations
}

// Migrate creates the history table and its indexes if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables photozip.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, pool); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

// DropTables removes every table Migrate creates.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables photozip.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}

	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, pool); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createHistoryTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		quotedTable := pgx.Identifier{tableName}.Sanitize()
		indexRecent := pgx.Identifier{fmt.Sprintf("idx_%s_recent", tableName)}.Sanitize()
		indexToken := pgx.Identifier{fmt.Sprintf("idx_%s_token", tableName)}.Sanitize()

		sql := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY,
				token TEXT NOT NULL,
				producer TEXT NOT NULL,
				outcome TEXT NOT NULL,
				chunks BIGINT NOT NULL DEFAULT 0,
				bytes_sent BIGINT NOT NULL DEFAULT 0,
				exit_code INTEGER NOT NULL DEFAULT 0,
				started_at TIMESTAMPTZ NOT NULL,
				finished_at TIMESTAMPTZ
			);

			CREATE INDEX IF NOT EXISTS %s
			ON %s (started_at DESC, id DESC);

			CREATE INDEX IF NOT EXISTS %s
			ON %s (token, started_at DESC, id DESC);
		`,
			quotedTable,
			indexRecent, quotedTable,
			indexToken, quotedTable,
		)

		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create history table: %w", err)
		}
		return nil
	}
}

func dropTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		quotedTable := pgx.Identifier{tableName}.Sanitize()
		_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable))
		return err
	}
}
