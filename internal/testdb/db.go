package testdb

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/degreeplan-api/internal/platform/postgres"
	"github.com/phrazzld/degreeplan-api/internal/redact"
	"github.com/pressly/goose/v3"
)

// URL environment variables, in lookup order.
const (
	EnvTestDatabaseURL = "PLANNER_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

// goose settings are package globals; serialize migrations across tests.
var migrateMu sync.Mutex

// DatabaseURL returns the first configured test database URL, or "".
func DatabaseURL() string {
	for _, name := range []string{EnvTestDatabaseURL, EnvDatabaseURL} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Open connects to the test database and applies all migrations. The test
// is skipped when no URL is configured. The connection closes at cleanup.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dsn := DatabaseURL()
	if dsn == "" {
		t.Skipf("%s or %s not set - skipping integration test", EnvTestDatabaseURL, EnvDatabaseURL)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("failed to open test database %s: %v", redact.String(dsn), err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("warning: failed to close test database: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping test database %s: %v", redact.String(dsn), err)
	}

	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// Migrate applies the embedded migrations to db.
func Migrate(db *sql.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(postgres.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, postgres.MigrationsDir)
}
