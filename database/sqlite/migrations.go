package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/volstore"
)

// quoteIdentifier quotes a table or index name. Names are checked with
// volstore.IsValidTableName before they get here.
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

// volumeTableDDL returns the statements creating the registry table and its
// indexes. Timestamps are fixed-width UTC text so they sort as strings.
func volumeTableDDL(table string) []string {
	quoted := quoteIdentifier(table)
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT NOT NULL PRIMARY KEY,
			owner_key TEXT NOT NULL,
			name TEXT NOT NULL,
			storage_format TEXT NOT NULL,
			storage_tags TEXT NOT NULL,
			metadata TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`, quoted),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (owner_key, name, created_at)`,
			quoteIdentifier("idx_"+table+"_owner_name"), quoted),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (created_at)`,
			quoteIdentifier("idx_"+table+"_created"), quoted),
	}
}

// Migrate creates the registry table and its indexes in one transaction.
// Running it again is a no-op.
func Migrate(ctx context.Context, db *sql.DB, tables volstore.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range volumeTableDDL(tables.Volumes) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", tables.Volumes, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit: %w", err)
	}
	return nil
}

// DropTables removes the registry table and its indexes.
func DropTables(ctx context.Context, db *sql.DB, tables volstore.Tables) error {
	if err := tables.Validate(); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(tables.Volumes)); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}
