package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/events"
	"github.com/phrazzld/degreeplan-api/internal/platform/logger"
	"github.com/phrazzld/degreeplan-api/internal/store"
)

// PlanCache is the part of the validation cache that plan mutations touch.
type PlanCache interface {
	Invalidate(ctx context.Context, planID uuid.UUID) error
}

// PlanDetail is a plan with its entries grouped by year, then by term.
type PlanDetail struct {
	domain.Plan
	Entries map[string]map[domain.Term][]domain.PlanEntry `json:"entries"`
}

// PlanUpdate holds the plan fields to change. Nil fields are left as they are.
type PlanUpdate struct {
	Name        *string
	Description *string
}

// EntryInput describes a new plan entry. An empty or unknown Status means
// planned; a nil Position appends the entry after the plan's last position.
type EntryInput struct {
	CourseID string
	Year     int
	Term     domain.Term
	Status   string
	Position *int
}

// EntryUpdate holds the entry fields to change. Nil fields are left as they are.
type EntryUpdate struct {
	Year     *int
	Term     *domain.Term
	Status   *string
	Position *int
}

// PlanService provides plan and entry operations
type PlanService interface {
	// CreatePlan creates an empty plan.
	CreatePlan(ctx context.Context, name string, description *string) (*domain.Plan, error)

	// GetPlan returns the plan with its entries grouped by year and term.
	GetPlan(ctx context.Context, planID uuid.UUID) (*PlanDetail, error)

	// ListPlans returns every plan with its entry count.
	ListPlans(ctx context.Context) ([]store.PlanSummary, error)

	// UpdatePlan changes the name or description of a plan.
	UpdatePlan(ctx context.Context, planID uuid.UUID, update PlanUpdate) (*domain.Plan, error)

	// DeletePlan removes a plan and its entries and returns the removed plan.
	DeletePlan(ctx context.Context, planID uuid.UUID) (*domain.Plan, error)

	// AddEntry places a course in a plan.
	AddEntry(ctx context.Context, planID uuid.UUID, input EntryInput) (*domain.PlanEntry, error)

	// UpdateEntry moves an entry or changes its status.
	UpdateEntry(ctx context.Context, planID, entryID uuid.UUID, update EntryUpdate) (*domain.PlanEntry, error)

	// DeleteEntry removes an entry and returns it.
	DeleteEntry(ctx context.Context, planID, entryID uuid.UUID) (*domain.PlanEntry, error)

	// ReorderEntries sets display positions. It does not affect validation.
	ReorderEntries(ctx context.Context, planID uuid.UUID, positions []store.EntryPosition) error
}

// planServiceImpl implements the PlanService interface
type planServiceImpl struct {
	db           *sql.DB
	plans        store.PlanStore
	entries      store.EntryStore
	courses      store.CourseStore
	cache        PlanCache
	eventEmitter events.EventEmitter
	logger       *slog.Logger
}

// NewPlanService creates a new PlanService.
// It returns an error if any of the required dependencies are nil.
func NewPlanService(
	db *sql.DB,
	plans store.PlanStore,
	entries store.EntryStore,
	courses store.CourseStore,
	cache PlanCache,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (PlanService, error) {
	deps := []struct {
		name string
		nil  bool
	}{
		{"db", db == nil},
		{"plans", plans == nil},
		{"entries", entries == nil},
		{"courses", courses == nil},
		{"cache", cache == nil},
		{"eventEmitter", eventEmitter == nil},
	}
	for _, d := range deps {
		if d.nil {
			return nil, &ServiceError{
				Operation: "create_plan_service",
				Message:   d.name + " cannot be nil",
			}
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &planServiceImpl{
		db:           db,
		plans:        plans,
		entries:      entries,
		courses:      courses,
		cache:        cache,
		eventEmitter: eventEmitter,
		logger:       logger.With("component", "plan_service"),
	}, nil
}

// CreatePlan implements PlanService.CreatePlan
func (s *planServiceImpl) CreatePlan(
	ctx context.Context,
	name string,
	description *string,
) (*domain.Plan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	plan, err := domain.NewPlan(name, description)
	if err != nil {
		return nil, err
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		log.Error("failed to create plan", "error", err, "plan_id", plan.ID)
		return nil, storageFailure("create_plan", "failed to save plan", err)
	}

	return plan, nil
}

// GetPlan implements PlanService.GetPlan
func (s *planServiceImpl) GetPlan(ctx context.Context, planID uuid.UUID) (*PlanDetail, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, storageFailure("get_plan", "failed to load plan", err)
	}

	entries, err := s.entries.ListByPlan(ctx, planID)
	if err != nil {
		return nil, storageFailure("get_plan", "failed to load entries", err)
	}

	return &PlanDetail{Plan: *plan, Entries: groupEntries(entries)}, nil
}

// groupEntries nests entries under their year and term, keeping list order.
func groupEntries(entries []domain.PlanEntry) map[string]map[domain.Term][]domain.PlanEntry {
	grouped := make(map[string]map[domain.Term][]domain.PlanEntry)
	for _, e := range entries {
		year := strconv.Itoa(e.Year)
		if grouped[year] == nil {
			grouped[year] = make(map[domain.Term][]domain.PlanEntry)
		}
		grouped[year][e.Term] = append(grouped[year][e.Term], e)
	}
	return grouped
}

// ListPlans implements PlanService.ListPlans
func (s *planServiceImpl) ListPlans(ctx context.Context) ([]store.PlanSummary, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, storageFailure("list_plans", "failed to list plans", err)
	}
	return plans, nil
}

// UpdatePlan implements PlanService.UpdatePlan
func (s *planServiceImpl) UpdatePlan(
	ctx context.Context,
	planID uuid.UUID,
	update PlanUpdate,
) (*domain.Plan, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, storageFailure("update_plan", "failed to load plan", err)
	}

	if update.Name != nil {
		plan.Name = strings.TrimSpace(*update.Name)
	}
	if update.Description != nil {
		plan.Description = update.Description
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, storageFailure("update_plan", "failed to save plan", err)
	}
	return plan, nil
}

// DeletePlan implements PlanService.DeletePlan
// The cached result is invalidated; no recomputation is scheduled.
func (s *planServiceImpl) DeletePlan(ctx context.Context, planID uuid.UUID) (*domain.Plan, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, storageFailure("delete_plan", "failed to load plan", err)
	}

	if err := s.plans.Delete(ctx, planID); err != nil {
		return nil, storageFailure("delete_plan", "failed to delete plan", err)
	}

	if err := s.invalidate(ctx, planID); err != nil {
		return nil, err
	}
	return plan, nil
}

// AddEntry implements PlanService.AddEntry
func (s *planServiceImpl) AddEntry(
	ctx context.Context,
	planID uuid.UUID,
	input EntryInput,
) (*domain.PlanEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.plans.GetByID(ctx, planID); err != nil {
		return nil, storageFailure("create_entry", "failed to load plan", err)
	}

	courseID := domain.NormalizeCourseID(input.CourseID)
	if courseID == "" {
		return nil, domain.ErrEmptyCourseID
	}
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, storageFailure("create_entry", "failed to load course", err)
	}

	position := -1
	if input.Position != nil {
		position = *input.Position
	}

	entry, err := domain.NewPlanEntry(planID, courseID, input.Year, input.Term, input.Status, position)
	if err != nil {
		return nil, err
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		if errors.Is(err, store.ErrInvalidEntity) {
			// plan or course vanished between the checks and the insert
			log.Warn("entry references missing plan or course",
				"plan_id", planID,
				"course_id", courseID,
				"error", err)
			return nil, ErrCourseNotFound
		}
		return nil, storageFailure("create_entry", "failed to save entry", err)
	}

	if err := s.afterMutation(ctx, planID); err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateEntry implements PlanService.UpdateEntry
func (s *planServiceImpl) UpdateEntry(
	ctx context.Context,
	planID, entryID uuid.UUID,
	update EntryUpdate,
) (*domain.PlanEntry, error) {
	entry, err := s.entries.GetByID(ctx, planID, entryID)
	if err != nil {
		return nil, storageFailure("update_entry", "failed to load entry", err)
	}

	if update.Year != nil {
		entry.Year = *update.Year
	}
	if update.Term != nil {
		entry.Term = *update.Term
	}
	if update.Status != nil {
		entry.Status = domain.ParseEntryStatus(*update.Status)
	}
	if update.Position != nil {
		entry.Position = *update.Position
	}
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, storageFailure("update_entry", "failed to save entry", err)
	}

	if err := s.afterMutation(ctx, planID); err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteEntry implements PlanService.DeleteEntry
func (s *planServiceImpl) DeleteEntry(
	ctx context.Context,
	planID, entryID uuid.UUID,
) (*domain.PlanEntry, error) {
	entry, err := s.entries.GetByID(ctx, planID, entryID)
	if err != nil {
		return nil, storageFailure("delete_entry", "failed to load entry", err)
	}

	if err := s.entries.Delete(ctx, planID, entryID); err != nil {
		return nil, storageFailure("delete_entry", "failed to delete entry", err)
	}

	if err := s.afterMutation(ctx, planID); err != nil {
		return nil, err
	}
	return entry, nil
}

// ReorderEntries implements PlanService.ReorderEntries
// All positions are written in one transaction.
func (s *planServiceImpl) ReorderEntries(
	ctx context.Context,
	planID uuid.UUID,
	positions []store.EntryPosition,
) error {
	if _, err := s.plans.GetByID(ctx, planID); err != nil {
		return storageFailure("reorder_entries", "failed to load plan", err)
	}
	if len(positions) == 0 {
		return nil
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.entries.WithTx(tx).Reorder(ctx, planID, positions)
	})
	if err != nil {
		return storageFailure("reorder_entries", "failed to reorder entries", err)
	}
	return nil
}

// afterMutation invalidates the plan's cached result and then requests a
// background recomputation. A failed invalidation is returned; a failed
// emission is only logged.
func (s *planServiceImpl) afterMutation(ctx context.Context, planID uuid.UUID) error {
	if err := s.invalidate(ctx, planID); err != nil {
		return err
	}
	s.requestValidation(ctx, planID)
	return nil
}

func (s *planServiceImpl) invalidate(ctx context.Context, planID uuid.UUID) error {
	if err := s.cache.Invalidate(ctx, planID); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to invalidate cached validation",
			"plan_id", planID,
			"error", err)
		return infraError(ComponentCache, err)
	}
	return nil
}

func (s *planServiceImpl) requestValidation(ctx context.Context, planID uuid.UUID) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewPlanValidationEvent(planID)
	if err != nil {
		log.Error("failed to build validation event", "plan_id", planID, "error", err)
		return
	}
	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to request validation",
			"plan_id", planID,
			"event_id", event.ID,
			"error", err)
	}
}

// storageFailure translates store sentinels and passes domain validation
// errors through. Anything else is marked as a storage fault.
func storageFailure(operation, message string, err error) error {
	if isDomainError(err) {
		return err
	}
	if store.IsNotFoundError(err) || store.IsDuplicateError(err) {
		return NewServiceError(operation, message, err)
	}
	return NewServiceError(operation, message, infraError(ComponentStorage, err))
}

// isDomainError reports whether err is an input validation error from the
// domain package.
func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrValidation,
		domain.ErrInvalidFormat,
		domain.ErrInvalidID,
		domain.ErrInvalidTerm,
		domain.ErrInvalidYear,
		domain.ErrInvalidEntryStatus,
		domain.ErrEmptyPlanID,
		domain.ErrEmptyPlanName,
		domain.ErrEmptyCourseID,
		domain.ErrEmptyEntryID,
		domain.ErrEmptyEntryPlanID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
