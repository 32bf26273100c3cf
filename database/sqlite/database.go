package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/volstore"

	_ "modernc.org/sqlite" // SQLite driver
)

// Open connects to SQLite, runs migrations and validates the schema.
func Open(ctx context.Context, dsn string, tables volstore.Tables) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// An in-memory database exists per connection.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err = Migrate(ctx, db, tables); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	if err = ValidateSchema(ctx, db, tables); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("validate sqlite schema: %w", err)
	}

	return db, nil
}
