package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state persisted in tasks.status.
type TaskStatus string

// A task moves pending -> processing -> completed or failed. Recovery
// resubmits pending tasks and processing tasks that look abandoned.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskTypePlanValidation recomputes and caches the validation result of one plan.
const TaskTypePlanValidation = "plan_validation"

// Task is one unit of background work. Payload is what gets persisted;
// Execute is reattached on recovery by the Restorer for Type.
type Task interface {
	ID() uuid.UUID
	Type() string
	Payload() []byte
	Status() TaskStatus

	// DedupKey groups submissions that should run once. Empty disables
	// coalescing.
	DedupKey() string

	Execute(ctx context.Context) error
}

// Restorer rebuilds an executable task from its persisted id and payload.
type Restorer func(id uuid.UUID, payload []byte) (Task, error)

// TaskQueueReader is the consumer side of the queue, used by workers.
type TaskQueueReader interface {
	GetChannel() <-chan Task
}

// TaskQueueWriter is the producer side of the queue. Enqueue fails with
// ErrQueueFull or ErrQueueClosed rather than blocking.
type TaskQueueWriter interface {
	Enqueue(task Task) error
	Close()
}

// TaskStore persists tasks so queued validations survive a restart.
type TaskStore interface {
	SaveTask(ctx context.Context, task Task) error
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error
	GetPendingTasks(ctx context.Context) ([]Task, error)

	// GetProcessingTasks returns processing tasks; a non-zero olderThan
	// limits it to tasks that entered that state at least that long ago.
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error)
}
