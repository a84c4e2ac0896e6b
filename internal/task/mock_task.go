package task

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// MockTask is an in-memory Task whose behavior is set per test.
type MockTask struct {
	TaskID      uuid.UUID
	TaskType    string
	TaskPayload []byte
	TaskStatus  TaskStatus
	Key         string
	ExecuteFn   func(ctx context.Context) error
}

// NewMockTask returns a pending task that succeeds when executed.
func NewMockTask(id uuid.UUID, taskType string, payload []byte) *MockTask {
	return &MockTask{
		TaskID:      id,
		TaskType:    taskType,
		TaskPayload: payload,
		TaskStatus:  TaskStatusPending,
	}
}

func (t *MockTask) ID() uuid.UUID      { return t.TaskID }
func (t *MockTask) Type() string       { return t.TaskType }
func (t *MockTask) Payload() []byte    { return t.TaskPayload }
func (t *MockTask) Status() TaskStatus { return t.TaskStatus }
func (t *MockTask) DedupKey() string   { return t.Key }

// Execute calls ExecuteFn; a nil ExecuteFn succeeds.
func (t *MockTask) Execute(ctx context.Context) error {
	if t.ExecuteFn == nil {
		return nil
	}
	return t.ExecuteFn(ctx)
}

// CreateMockTaskWithPayload returns an unkeyed task of type "mock_task"
// carrying label in its JSON payload.
func CreateMockTaskWithPayload(label string) *MockTask {
	data, _ := json.Marshal(map[string]string{"label": label})
	return NewMockTask(uuid.New(), "mock_task", data)
}

// CreateMockTaskWithKey returns a task that the runner coalesces on key.
func CreateMockTaskWithKey(key string) *MockTask {
	t := CreateMockTaskWithPayload(key)
	t.Key = key
	return t
}
