// Package database connects the sandbox volume registry to its backend.
//
// Two backends are supported, both created and migrated on first use:
//
//   - PostgreSQL, through a pgx connection pool
//   - SQLite, through modernc.org/sqlite; ":memory:" gives a throwaway registry
//
// # Usage
//
//	repo, closeDB, err := database.Connect(ctx, database.Config{
//	    Type:   "sqlite",
//	    DSN:    "volstore.db",
//	    Tables: volstore.Tables{Volumes: "volumes"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer closeDB()
//
// The repotest subpackage holds the checks every backend must pass.
package database
