package main

import (
	"log/slog"

	"github.com/sagarc03/volstore/config"
	"github.com/sagarc03/volstore/sandbox"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the volume registry and the storage directory",
	Long: `Create the registry table and the storage directory without starting
the server. Running it against an existing setup is a no-op.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	backend, err := sandbox.OpenBackend(cmd.Context(), cfg.Database, cfg.Storage.Path)
	if err != nil {
		return err
	}

	slog.Info("initialization complete",
		"db_type", cfg.Database.Type,
		"table", cfg.Database.Tables.Volumes,
		"storage", cfg.Storage.Path,
	)
	return backend.Close()
}
