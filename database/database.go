package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/database/postgres"
	"github.com/sagarc03/volstore/database/sqlite"
)

// Config holds the configuration for connecting to a registry backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required"`
	// Tables holds the registry table names
	Tables volstore.Tables `mapstructure:"tables"`
}

// Connect establishes a connection to the configured database backend,
// runs migrations, validates the schema, and returns a VolumeRepo.
// The returned close function releases the connection.
func Connect(ctx context.Context, cfg Config) (volstore.VolumeRepo, func() error, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		return connectSQLite(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		return connectPostgres(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %q", cfg.Type)
	}
}

func connectSQLite(ctx context.Context, dsn string, tables volstore.Tables) (volstore.VolumeRepo, func() error, error) {
	db, err := sqlite.Open(ctx, dsn, tables)
	if err != nil {
		return nil, nil, err
	}

	repo, err := sqlite.NewRepo(db, tables)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create sqlite repo: %w", err)
	}

	return repo, db.Close, nil
}

func connectPostgres(ctx context.Context, dsn string, tables volstore.Tables) (volstore.VolumeRepo, func() error, error) {
	pool, err := postgres.Open(ctx, dsn, tables)
	if err != nil {
		return nil, nil, err
	}

	repo, err := postgres.NewRepo(pool, tables)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("create postgres repo: %w", err)
	}

	closeFn := func() error {
		pool.Close()
		return nil
	}
	return repo, closeFn, nil
}
