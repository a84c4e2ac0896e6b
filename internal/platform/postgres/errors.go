package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/store"
)

// SQLSTATE codes the stores translate
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// constraintErrors gives schema constraints a meaning more specific than
// their SQLSTATE class. Check constraint names are the Postgres defaults.
var constraintErrors = map[string]error{
	"plan_entries_plan_course_key": store.ErrEntryExists,
	"plan_entries_year_check":      domain.ErrInvalidYear,
	"plan_entries_term_check":      domain.ErrInvalidTerm,
	"plan_entries_status_check":    domain.ErrInvalidEntryStatus,
}

// MapError translates driver errors into store sentinels. Unique violations
// become store.ErrDuplicate (store.ErrEntryExists for a course already in
// the plan); foreign key, check and not-null violations become
// store.ErrInvalidEntity, also wrapping the domain error a known check
// constraint enforces. Other errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	specific := constraintErrors[pgErr.ConstraintName]

	switch pgErr.Code {
	case uniqueViolationCode:
		if specific != nil {
			return fmt.Errorf("%w: %v", specific, err)
		}
		return fmt.Errorf("%w: %s: %v", store.ErrDuplicate, pgErr.ConstraintName, err)
	case foreignKeyViolationCode, checkViolationCode, notNullViolationCode:
		if specific != nil {
			return fmt.Errorf("%w: %w: %v", store.ErrInvalidEntity, specific, err)
		}
		return fmt.Errorf("%w: %s violation (%s%s): %v",
			store.ErrInvalidEntity, violationKind(pgErr.Code), pgErr.ConstraintName, pgErr.ColumnName, err)
	}
	return err
}

func violationKind(code string) string {
	switch code {
	case foreignKeyViolationCode:
		return "foreign key"
	case checkViolationCode:
		return "check constraint"
	default:
		return "not null"
	}
}

// IsUniqueViolation reports whether err is a Postgres unique violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// IsForeignKeyViolation reports whether err is a Postgres foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode
}

// CheckRowsAffected returns notFound when an UPDATE or DELETE touched no rows.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return fmt.Errorf("nil result provided to CheckRowsAffected")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
