package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/database/internal"
)

var volumeColumns = map[string]internal.Column{
	"id":             {Type: "text"},
	"owner_key":      {Type: "text"},
	"name":           {Type: "text"},
	"storage_format": {Type: "text"},
	"storage_tags":   {Type: "text"},
	"metadata":       {Type: "text"},
	"created_at":     {Type: "text"},
}

// ValidateSchema checks that the registry table exists with the expected
// columns.
func ValidateSchema(ctx context.Context, db *sql.DB, tables volstore.Tables) error {
	table := tables.Volumes
	if !volstore.IsValidTableName(table) {
		return fmt.Errorf("validate schema: invalid table name: %s", table)
	}

	got, err := readColumns(ctx, db, table)
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
func readColumns(ctx context.Context, db *sql.DB, table string) (map[string]internal.Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]internal.Column)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns[name] = internal.Column{Type: strings.ToLower(dataType), Nullable: notNull == 0}
	}
	return columns, rows.Err()
}
