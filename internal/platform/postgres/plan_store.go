package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/platform/logger"
	"github.com/phrazzld/degreeplan-api/internal/store"
)

// PostgresPlanStore implements the store.PlanStore interface
// using a PostgreSQL database as the storage backend.
type PostgresPlanStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPlanStore creates a new PostgreSQL implementation of the PlanStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresPlanStore(db store.DBTX, logger *slog.Logger) *PostgresPlanStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPlanStore{
		db:     db,
		logger: logger.With(slog.String("component", "plan_store")),
	}
}

// Ensure PostgresPlanStore implements store.PlanStore interface
var _ store.PlanStore = (*PostgresPlanStore)(nil)

// Create implements store.PlanStore.Create
func (s *PostgresPlanStore) Create(ctx context.Context, plan *domain.Plan) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := plan.Validate(); err != nil {
		log.Warn("plan validation failed during create",
			slog.String("error", err.Error()),
			slog.String("plan_id", plan.ID.String()))
		return err
	}

	query := `
		INSERT INTO plans (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		plan.ID,
		plan.Name,
		plan.Description,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create plan",
			slog.String("error", err.Error()),
			slog.String("plan_id", plan.ID.String()))
		return MapError(err)
	}

	log.Info("plan created successfully", slog.String("plan_id", plan.ID.String()))
	return nil
}

// GetByID implements store.PlanStore.GetByID
func (s *PostgresPlanStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving plan by ID", slog.String("plan_id", id.String()))

	query := `
		SELECT id, name, description, created_at, updated_at
		FROM plans
		WHERE id = $1
	`

	var plan domain.Plan
	var description sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&plan.ID,
		&plan.Name,
		&description,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("plan not found", slog.String("plan_id", id.String()))
			return nil, store.ErrPlanNotFound
		}
		log.Error("failed to get plan by ID",
			slog.String("error", err.Error()),
			slog.String("plan_id", id.String()))
		return nil, MapError(err)
	}
	if description.Valid {
		plan.Description = &description.String
	}

	return &plan, nil
}

// List implements store.PlanStore.List
func (s *PostgresPlanStore) List(ctx context.Context) ([]store.PlanSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT p.id, p.name, p.description, p.created_at, p.updated_at, COUNT(e.id)
		FROM plans p
		LEFT JOIN plan_entries e ON e.plan_id = p.id
		GROUP BY p.id
		ORDER BY p.updated_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.Error("failed to list plans", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	plans := []store.PlanSummary{}
	for rows.Next() {
		var summary store.PlanSummary
		var description sql.NullString
		if err := rows.Scan(
			&summary.ID,
			&summary.Name,
			&description,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&summary.EntryCount,
		); err != nil {
			log.Error("failed to scan plan row", slog.String("error", err.Error()))
			return nil, err
		}
		if description.Valid {
			summary.Description = &description.String
		}
		plans = append(plans, summary)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating plan rows", slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("plans listed", slog.Int("count", len(plans)))
	return plans, nil
}

// Update implements store.PlanStore.Update
func (s *PostgresPlanStore) Update(ctx context.Context, plan *domain.Plan) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := plan.Validate(); err != nil {
		log.Warn("plan validation failed during update",
			slog.String("error", err.Error()),
			slog.String("plan_id", plan.ID.String()))
		return err
	}

	plan.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE plans
		SET name = $1, description = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query,
		plan.Name,
		plan.Description,
		plan.UpdatedAt,
		plan.ID,
	)
	if err != nil {
		log.Error("failed to update plan",
			slog.String("error", err.Error()),
			slog.String("plan_id", plan.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrPlanNotFound); err != nil {
		if errors.Is(err, store.ErrPlanNotFound) {
			log.Debug("plan not found for update", slog.String("plan_id", plan.ID.String()))
			return store.ErrPlanNotFound
		}
		return err
	}

	log.Info("plan updated successfully", slog.String("plan_id", plan.ID.String()))
	return nil
}

// Delete implements store.PlanStore.Delete
func (s *PostgresPlanStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete plan",
			slog.String("error", err.Error()),
			slog.String("plan_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrPlanNotFound); err != nil {
		if errors.Is(err, store.ErrPlanNotFound) {
			log.Debug("plan not found for delete", slog.String("plan_id", id.String()))
			return store.ErrPlanNotFound
		}
		return err
	}

	log.Info("plan deleted successfully", slog.String("plan_id", id.String()))
	return nil
}

// WithTx implements store.PlanStore.WithTx
func (s *PostgresPlanStore) WithTx(tx *sql.Tx) store.PlanStore {
	return &PostgresPlanStore{
		db:     tx,
		logger: s.logger,
	}
}
