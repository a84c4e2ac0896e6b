package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
	"github.com/phrazzld/degreeplan-api/internal/config"
	"github.com/phrazzld/degreeplan-api/internal/redact"
)

const pingTimeout = 5 * time.Second

// setupAppDatabase opens the pgx pool sized from cfg.Database.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	dbCfg := cfg.Database
	db, err := openDatabase(ctx, dbCfg.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(dbCfg.MaxOpenConns)
	db.SetMaxIdleConns(dbCfg.MaxIdleConns)
	db.SetConnMaxLifetime(dbCfg.ConnMaxLifetime())

	logger.Info("Database connection established",
		"url", redact.String(dbCfg.URL),
		"max_open_conns", dbCfg.MaxOpenConns,
		"max_idle_conns", dbCfg.MaxIdleConns)
	return db, nil
}

func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database URL is empty: check your configuration")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
