package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/domain"
)

// EntryPosition assigns a display position to one entry of a plan.
type EntryPosition struct {
	ID       uuid.UUID `json:"id" validate:"required"`
	Position int       `json:"position" validate:"gte=0"`
}

// EntryStore defines the interface for plan entry persistence.
type EntryStore interface {
	// Create saves a new entry. When the entry's Position is negative the
	// store assigns one past the highest position in the plan.
	// Returns ErrEntryExists if the plan already contains the course and
	// ErrInvalidEntity if the plan or course does not exist.
	Create(ctx context.Context, entry *domain.PlanEntry) error

	// GetByID retrieves an entry of a plan.
	// Returns ErrEntryNotFound if no such entry belongs to the plan.
	GetByID(ctx context.Context, planID, entryID uuid.UUID) (*domain.PlanEntry, error)

	// ListByPlan returns the entries of a plan ordered by year, term and position.
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]domain.PlanEntry, error)

	// Update saves the slot, status and position of an existing entry.
	// Returns ErrEntryNotFound if the entry does not exist.
	Update(ctx context.Context, entry *domain.PlanEntry) error

	// Delete removes an entry of a plan.
	// Returns ErrEntryNotFound if no such entry belongs to the plan.
	Delete(ctx context.Context, planID, entryID uuid.UUID) error

	// Reorder sets the position of each listed entry of the plan.
	// Entries of other plans are left untouched.
	Reorder(ctx context.Context, planID uuid.UUID, positions []EntryPosition) error

	// WithTx returns a new EntryStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) EntryStore
}
