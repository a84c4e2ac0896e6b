package postgres

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/stretchr/testify/require"
)

// newMockDB returns a sqlmock-backed database and a silent logger.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *slog.Logger) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock, slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPgErrorCode(code string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, ConstraintName: "test_constraint"}
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopValidator struct{}

func (nopValidator) ComputeValidation(ctx context.Context, planID uuid.UUID) (*domain.ValidationResult, error) {
	return domain.NewValidationResult(nil, nil, time.Now()), nil
}

type nopCache struct{}

func (nopCache) Generation(ctx context.Context, planID uuid.UUID) (string, error) {
	return "", nil
}

func (nopCache) SetCachedIfCurrent(ctx context.Context, planID uuid.UUID, generation string, result *domain.ValidationResult) (bool, error) {
	return true, nil
}
