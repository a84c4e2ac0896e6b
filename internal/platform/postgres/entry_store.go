package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/platform/logger"
	"github.com/phrazzld/degreeplan-api/internal/store"
)

// PostgresEntryStore implements the store.EntryStore interface
// using a PostgreSQL database as the storage backend.
type PostgresEntryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresEntryStore creates a new PostgreSQL implementation of the EntryStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresEntryStore(db store.DBTX, logger *slog.Logger) *PostgresEntryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresEntryStore{
		db:     db,
		logger: logger.With(slog.String("component", "entry_store")),
	}
}

// Ensure PostgresEntryStore implements store.EntryStore interface
var _ store.EntryStore = (*PostgresEntryStore)(nil)

// Create implements store.EntryStore.Create
// A negative Position is replaced by one past the plan's highest position,
// and the assigned value is written back to entry.
func (s *PostgresEntryStore) Create(ctx context.Context, entry *domain.PlanEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("entry validation failed during create",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()))
		return err
	}

	var position interface{} = entry.Position
	if entry.Position < 0 {
		position = nil
	}

	query := `
		INSERT INTO plan_entries
			(id, plan_id, course_id, year, term, status, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6,
			COALESCE($7, (SELECT COALESCE(MAX(position) + 1, 0) FROM plan_entries WHERE plan_id = $2)),
			$8, $9)
		RETURNING position
	`
	err := s.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.PlanID,
		entry.CourseID,
		entry.Year,
		string(entry.Term),
		string(entry.Status),
		position,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Scan(&entry.Position)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("course already in plan",
				slog.String("plan_id", entry.PlanID.String()),
				slog.String("course_id", entry.CourseID))
			return fmt.Errorf("%w: %v", store.ErrEntryExists, err)
		}
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during entry creation",
				slog.String("plan_id", entry.PlanID.String()),
				slog.String("course_id", entry.CourseID))
			return fmt.Errorf("%w: plan %s or course %s not found",
				store.ErrInvalidEntity, entry.PlanID, entry.CourseID)
		}
		log.Error("failed to create entry",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()))
		return MapError(err)
	}

	log.Info("entry created successfully",
		slog.String("entry_id", entry.ID.String()),
		slog.String("plan_id", entry.PlanID.String()),
		slog.String("course_id", entry.CourseID))
	return nil
}

// GetByID implements store.EntryStore.GetByID
func (s *PostgresEntryStore) GetByID(
	ctx context.Context,
	planID, entryID uuid.UUID,
) (*domain.PlanEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, plan_id, course_id, year, term, status, position, created_at, updated_at
		FROM plan_entries
		WHERE id = $1 AND plan_id = $2
	`
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, entryID, planID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("entry not found",
				slog.String("plan_id", planID.String()),
				slog.String("entry_id", entryID.String()))
			return nil, store.ErrEntryNotFound
		}
		log.Error("failed to get entry",
			slog.String("error", err.Error()),
			slog.String("entry_id", entryID.String()))
		return nil, MapError(err)
	}
	return entry, nil
}

// ListByPlan implements store.EntryStore.ListByPlan
func (s *PostgresEntryStore) ListByPlan(ctx context.Context, planID uuid.UUID) ([]domain.PlanEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, plan_id, course_id, year, term, status, position, created_at, updated_at
		FROM plan_entries
		WHERE plan_id = $1
		ORDER BY year,
			CASE term WHEN 'W1' THEN 1 WHEN 'W2' THEN 2 WHEN 'S' THEN 3 ELSE 0 END,
			position
	`
	rows, err := s.db.QueryContext(ctx, query, planID)
	if err != nil {
		log.Error("failed to list entries",
			slog.String("error", err.Error()),
			slog.String("plan_id", planID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	entries := []domain.PlanEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			log.Error("failed to scan entry row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating entry rows", slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating entry rows: %w", err)
	}

	log.Debug("entries listed",
		slog.String("plan_id", planID.String()),
		slog.Int("count", len(entries)))
	return entries, nil
}

// Update implements store.EntryStore.Update
func (s *PostgresEntryStore) Update(ctx context.Context, entry *domain.PlanEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("entry validation failed during update",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()))
		return err
	}

	entry.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE plan_entries
		SET year = $1, term = $2, status = $3, position = $4, updated_at = $5
		WHERE id = $6 AND plan_id = $7
	`
	result, err := s.db.ExecContext(ctx, query,
		entry.Year,
		string(entry.Term),
		string(entry.Status),
		entry.Position,
		entry.UpdatedAt,
		entry.ID,
		entry.PlanID,
	)
	if err != nil {
		log.Error("failed to update entry",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrEntryNotFound); err != nil {
		return err
	}

	log.Info("entry updated successfully",
		slog.String("entry_id", entry.ID.String()),
		slog.String("plan_id", entry.PlanID.String()))
	return nil
}

// Delete implements store.EntryStore.Delete
func (s *PostgresEntryStore) Delete(ctx context.Context, planID, entryID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM plan_entries WHERE id = $1 AND plan_id = $2`, entryID, planID)
	if err != nil {
		log.Error("failed to delete entry",
			slog.String("error", err.Error()),
			slog.String("entry_id", entryID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrEntryNotFound); err != nil {
		return err
	}

	log.Info("entry deleted successfully",
		slog.String("entry_id", entryID.String()),
		slog.String("plan_id", planID.String()))
	return nil
}

// Reorder implements store.EntryStore.Reorder
// Callers wanting all-or-nothing semantics run it on a transaction via WithTx.
func (s *PostgresEntryStore) Reorder(
	ctx context.Context,
	planID uuid.UUID,
	positions []store.EntryPosition,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := time.Now().UTC()
	query := `
		UPDATE plan_entries
		SET position = $1, updated_at = $2
		WHERE id = $3 AND plan_id = $4
	`
	for _, p := range positions {
		if _, err := s.db.ExecContext(ctx, query, p.Position, now, p.ID, planID); err != nil {
			log.Error("failed to reorder entry",
				slog.String("error", err.Error()),
				slog.String("entry_id", p.ID.String()))
			return MapError(err)
		}
	}

	log.Info("entries reordered",
		slog.String("plan_id", planID.String()),
		slog.Int("count", len(positions)))
	return nil
}

// WithTx implements store.EntryStore.WithTx
func (s *PostgresEntryStore) WithTx(tx *sql.Tx) store.EntryStore {
	return &PostgresEntryStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanEntry(row rowScanner) (*domain.PlanEntry, error) {
	var entry domain.PlanEntry
	var term, status string
	if err := row.Scan(
		&entry.ID,
		&entry.PlanID,
		&entry.CourseID,
		&entry.Year,
		&term,
		&status,
		&entry.Position,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		return nil, err
	}
	entry.Term = domain.Term(term)
	entry.Status = domain.EntryStatus(status)
	return &entry, nil
}
