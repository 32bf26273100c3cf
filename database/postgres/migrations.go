package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/volstore"
)

// Migrate creates the registry tables if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables volstore.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := createVolumeTable(ctx, pool, tables.Volumes); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// DropTables removes the registry tables.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables volstore.Tables) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pgx.Identifier{tables.Volumes}.Sanitize())
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}

func createVolumeTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexOwnerName := pgx.Identifier{fmt.Sprintf("idx_%s_owner_name", tableName)}.Sanitize()
	indexCreated := pgx.Identifier{fmt.Sprintf("idx_%s_created", tableName)}.Sanitize()
	indexTags := pgx.Identifier{fmt.Sprintf("idx_%s_tags", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_key TEXT NOT NULL,
			name TEXT NOT NULL,
			storage_format TEXT NOT NULL,
			storage_tags TEXT[] NOT NULL DEFAULT '{}',
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (owner_key, name, created_at DESC);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (created_at DESC);

		CREATE INDEX IF NOT EXISTS %s
		ON %s USING GIN (storage_tags);
	`,
		quotedTable,
		indexOwnerName, quotedTable,
		indexCreated, quotedTable,
		indexTags, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create volume table: %w", err)
	}
	return nil
}
