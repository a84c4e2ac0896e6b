package task

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// PlanValidationTaskFactory creates PlanValidationTask instances
type PlanValidationTaskFactory struct {
	validator Validator
	cache     ResultCache
	logger    *slog.Logger
}

// NewPlanValidationTaskFactory creates a new factory for PlanValidationTasks
func NewPlanValidationTaskFactory(
	validator Validator,
	cache ResultCache,
	logger *slog.Logger,
) *PlanValidationTaskFactory {
	return &PlanValidationTaskFactory{
		validator: validator,
		cache:     cache,
		logger:    logger.With("component", "plan_validation_task_factory"),
	}
}

// CreateTask creates a new PlanValidationTask for the specified plan
func (f *PlanValidationTaskFactory) CreateTask(planID uuid.UUID) (Task, error) {
	task, err := NewPlanValidationTask(planID, f.validator, f.cache, f.logger)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Restore rebuilds a persisted PlanValidationTask, keeping its id.
// It satisfies Restorer.
func (f *PlanValidationTaskFactory) Restore(id uuid.UUID, payload []byte) (Task, error) {
	var p planValidationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("invalid plan validation payload: %w", err)
	}
	task, err := newPlanValidationTask(id, p.PlanID, f.validator, f.cache, f.logger)
	if err != nil {
		return nil, err
	}
	return task, nil
}
