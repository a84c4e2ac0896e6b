package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/config"
	"github.com/phrazzld/degreeplan-api/internal/platform/postgres"
	"github.com/phrazzld/degreeplan-api/internal/redact"
	"github.com/pressly/goose/v3"
)

// migrationCommands are the goose commands the migrate subcommand accepts.
// Migrations are embedded in the binary, so create is not offered.
var migrationCommands = []string{"up", "down", "reset", "redo", "status", "version"}

// slogGooseLogger adapts the goose logger interface to slog
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf forwards goose progress messages at Info
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at Error without exiting; the error reaches main through the
// goose return value.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func validateMigrationCommand(command string) error {
	if !slices.Contains(migrationCommands, command) {
		return fmt.Errorf("unknown migration command %q: expected one of %s",
			command, strings.Join(migrationCommands, ", "))
	}
	return nil
}

// runMigrations connects to the configured database and runs one goose
// command against the embedded migrations.
func runMigrations(ctx context.Context, cfg *config.Config, command string, verbose bool) error {
	if err := validateMigrationCommand(command); err != nil {
		return err
	}

	migrationLogger := slog.Default().With(
		"correlation_id", uuid.New().String(),
		"component", "migrations",
		"command", command,
	)
	migrationLogger.Info("Using database URL", "url", redact.String(cfg.Database.URL))

	db, err := openDatabase(ctx, cfg.Database.URL)
	if err != nil {
		migrationLogger.Error("Failed to connect for migrations", "error", redact.Error(err))
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			migrationLogger.Error("Error closing database connection", "error", err)
		}
	}()

	return executeMigration(ctx, db, command, verbose, migrationLogger)
}

// executeMigration runs command with goose. goose keeps its settings in
// package state, so they are set on every call.
func executeMigration(ctx context.Context, db *sql.DB, command string, verbose bool, logger *slog.Logger) error {
	startTime := time.Now()

	goose.SetLogger(&slogGooseLogger{logger: logger})
	goose.SetVerbose(verbose)
	goose.SetBaseFS(postgres.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	err := goose.RunContext(ctx, command, db, postgres.MigrationsDir)

	logger.Info("Migration operation completed",
		"operation", "goose "+command,
		"duration_ms", time.Since(startTime).Milliseconds(),
		"success", err == nil)
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	return nil
}
