// Package main implements the degreeplan-api server. It serves the course
// catalog, degree plans, and plan validation, and applies database
// migrations through the migrate subcommand.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/degreeplan-api/internal/config"
	"github.com/phrazzld/degreeplan-api/internal/platform/logger"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Configuration and logging are set up
// once in PersistentPreRunE and shared by every subcommand.
func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "degreeplan-api",
		Short:         "Degree plan validation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadAppConfig()
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}

	root.AddCommand(newServeCmd(func() *config.Config { return cfg }))
	root.AddCommand(newMigrateCmd(func() *config.Config { return cfg }))
	return root
}

func newServeCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background validation workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), cfg())
		},
	}
}

func newMigrateCmd(cfg func() *config.Config) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:       "migrate <up|down|reset|redo|status|version>",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: migrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), cfg(), args[0], verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log each migration goose applies")
	return cmd
}

// loadAppConfig loads configuration and installs the default logger.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if _, err := logger.Setup(cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"cache_in_memory", cfg.Cache.InMemory,
		"task_workers", cfg.Task.WorkerCount)
	return cfg, nil
}

// runServer builds the application and serves until ctx is cancelled.
func runServer(ctx context.Context, cfg *config.Config) error {
	log := slog.Default()

	stopTracing, err := setupTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return err
	}
	defer stopTracing()

	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, log, db)
	if err != nil {
		if cerr := db.Close(); cerr != nil {
			log.Error("Error closing database connection", "error", cerr)
		}
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
