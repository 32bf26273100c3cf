package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/database/internal"
)

var volumeColumns = map[string]internal.Column{
	"id":             {Type: "uuid"},
	"owner_key":      {Type: "text"},
	"name":           {Type: "text"},
	"storage_format": {Type: "text"},
	"storage_tags":   {Type: "array"},
	"metadata":       {Type: "jsonb"},
	"created_at":     {Type: "timestamp with time zone"},
}

// ValidateSchema checks that the registry table exists in the current
// schema with the expected columns.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables volstore.Tables) error {
	table := tables.Volumes
	if !volstore.IsValidTableName(table) {
		return fmt.Errorf("validate schema: invalid table name: %s", table)
	}

	got, err := readColumns(ctx, pool, table)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", table, err)
	}
	if len(got) == 0 {
		return fmt.Errorf("validate schema: table %s does not exist", table)
	}

	if err := internal.CheckColumns(table, volumeColumns, got); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

// readColumns returns the columns of table. An unknown table has none.
func readColumns(ctx context.Context, pool *pgxpool.Pool, table string) (map[string]internal.Column, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]internal.Column)
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = internal.Column{Type: strings.ToLower(dataType), Nullable: nullable == "YES"}
	}
	return columns, rows.Err()
}
