package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sagarc03/volstore/config"
	"github.com/sagarc03/volstore/sandbox"
	"github.com/sagarc03/volstore/userbackend"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the sandbox HTTP server. Authentication, provisioning and the
storage agent share one listener; the agent lives under /agent_api.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8880, "HTTP server port")
	serveCmd.Flags().String("public-url", "", "externally visible base URL handed out as connection URL")
	serveCmd.Flags().String("secret", "", "token signing secret (env: VOLSTORE_SANDBOX_AUTH_SECRET)")
	serveCmd.Flags().String("users-file", "", "JSON file with sandbox users")
	serveCmd.Flags().Int("existing-dir-status", http.StatusConflict, "status answered for an existing directory: 409 or 202")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	if cfg.Auth.Secret == config.DefaultSecret {
		slog.Warn("using the built-in token secret, set auth.secret outside local runs")
	}

	backend, err := sandbox.OpenBackend(ctx, cfg.Database, cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			slog.Error("close backend", "err", err)
		}
	}()
	slog.Info("registry ready", "type", cfg.Database.Type, "storage", cfg.Storage.Path)

	service, err := sandbox.NewVolumeService(backend.Repo, backend.Storage)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	users, err := userbackend.NewUserStore(cfg.Auth.Users)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	if users.Len() == 0 {
		slog.Warn("no users configured, every authentication will fail")
	}

	tokens, err := sandbox.NewTokens([]byte(cfg.Auth.Secret), cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("create token service: %w", err)
	}

	handler := sandbox.NewHandler(&sandbox.HandlerConfig{
		Users:             users,
		Tokens:            tokens,
		Metrics:           sandbox.NewMetrics(),
		CORS:              cfg.CORS,
		PublicURL:         cfg.Server.PublicURL,
		ExistingDirStatus: cfg.Agent.ExistingDirStatus,
		MaxUploadSize:     cfg.Server.MaxUploadSize,
	}, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "users", users.Len(), "existing_dir_status", cfg.Agent.ExistingDirStatus)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
