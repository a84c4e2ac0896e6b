package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/domain"
)

// PlanSummary is a plan together with its number of entries.
type PlanSummary struct {
	domain.Plan
	EntryCount int `json:"entryCount"`
}

// PlanStore defines the interface for plan data persistence.
type PlanStore interface {
	// Create saves a new plan. Returns validation errors from the domain
	// Plan if data is invalid.
	Create(ctx context.Context, plan *domain.Plan) error

	// GetByID retrieves a plan by its unique ID.
	// Returns ErrPlanNotFound if the plan does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error)

	// List returns all plans, most recently updated first.
	List(ctx context.Context) ([]PlanSummary, error)

	// Update saves the name and description of an existing plan.
	// Returns ErrPlanNotFound if the plan does not exist.
	Update(ctx context.Context, plan *domain.Plan) error

	// Delete removes a plan and, by cascade, its entries.
	// Returns ErrPlanNotFound if the plan does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new PlanStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) PlanStore
}
