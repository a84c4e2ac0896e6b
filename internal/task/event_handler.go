package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/events"
	"github.com/phrazzld/degreeplan-api/internal/platform/logger"
)

// TaskCreator builds a task for a plan.
type TaskCreator interface {
	CreateTask(planID uuid.UUID) (Task, error)
}

// TaskSubmitter accepts tasks for background execution and returns the
// job id that will run them.
type TaskSubmitter interface {
	Submit(ctx context.Context, task Task) (uuid.UUID, error)
}

// TaskFactoryEventHandler implements the events.EventHandler interface
// to handle task creation events and delegate them to the appropriate task factory.
type TaskFactoryEventHandler struct {
	taskFactory TaskCreator
	taskRunner  TaskSubmitter
	logger      *slog.Logger
}

// NewTaskFactoryEventHandler creates a new event handler that uses the given task factory
// to create tasks, and submits them to the provided task runner.
func NewTaskFactoryEventHandler(
	taskFactory TaskCreator,
	taskRunner TaskSubmitter,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		taskFactory: taskFactory,
		taskRunner:  taskRunner,
		logger:      logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent turns a plan_validation event into a submitted task.
// Events of other types are ignored.
func (h *TaskFactoryEventHandler) HandleEvent(
	ctx context.Context,
	event *events.TaskRequestEvent,
) error {
	log := logger.FromContextOrDefault(ctx, h.logger)

	if event.Type != events.EventTypePlanValidation {
		log.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload events.PlanValidationPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		log.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.PlanID == uuid.Nil {
		log.Error("event payload has no plan ID", "event_id", event.ID)
		return fmt.Errorf("invalid plan ID: %w", ErrEmptyPlanID)
	}

	task, err := h.taskFactory.CreateTask(payload.PlanID)
	if err != nil {
		log.Error("failed to create task",
			"error", err,
			"plan_id", payload.PlanID,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	jobID, err := h.taskRunner.Submit(ctx, task)
	if err != nil {
		log.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"plan_id", payload.PlanID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	log.Info("validation job scheduled",
		"job_id", jobID,
		"deduplicated", jobID != task.ID(),
		"plan_id", payload.PlanID,
		"event_id", event.ID)
	return nil
}

// Ensure TaskFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
