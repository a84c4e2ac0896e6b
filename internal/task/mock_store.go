package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type mockRecord struct {
	task    *MockTask
	changed time.Time
	errMsg  string
}

// MockTaskStore is an in-memory TaskStore. SaveFn and UpdateStatusFn can be
// swapped to inject failures; the defaults record into the store.
type MockTaskStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*mockRecord

	SaveFn         func(ctx context.Context, task Task) error
	UpdateStatusFn func(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error
}

// NewMockTaskStore returns an empty store.
func NewMockTaskStore() *MockTaskStore {
	s := &MockTaskStore{records: make(map[uuid.UUID]*mockRecord)}
	s.SaveFn = s.save
	s.UpdateStatusFn = s.updateStatus
	return s
}

// save copies non-mock tasks so later status updates never touch the
// caller's value.
func (s *MockTaskStore) save(_ context.Context, task Task) error {
	mt, ok := task.(*MockTask)
	if !ok {
		mt = NewMockTask(task.ID(), task.Type(), task.Payload())
		mt.TaskStatus = task.Status()
		mt.Key = task.DedupKey()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[task.ID()] = &mockRecord{task: mt, changed: time.Now()}
	return nil
}

// updateStatus ignores unknown ids.
func (s *MockTaskStore) updateStatus(_ context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[taskID]
	if !ok {
		return nil
	}
	rec.task.TaskStatus = status
	rec.changed = time.Now()
	rec.errMsg = errorMsg
	return nil
}

func (s *MockTaskStore) SaveTask(ctx context.Context, task Task) error {
	return s.SaveFn(ctx, task)
}

func (s *MockTaskStore) UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
	return s.UpdateStatusFn(ctx, taskID, status, errorMsg)
}

func (s *MockTaskStore) GetPendingTasks(_ context.Context) ([]Task, error) {
	return s.filter(func(rec *mockRecord) bool {
		return rec.task.TaskStatus == TaskStatusPending
	}), nil
}

// GetProcessingTasks returns processing tasks unchanged for longer than
// olderThan, or all of them when olderThan is zero.
func (s *MockTaskStore) GetProcessingTasks(_ context.Context, olderThan time.Duration) ([]Task, error) {
	return s.filter(func(rec *mockRecord) bool {
		return rec.task.TaskStatus == TaskStatusProcessing &&
			(olderThan == 0 || time.Since(rec.changed) > olderThan)
	}), nil
}

func (s *MockTaskStore) filter(keep func(*mockRecord) bool) []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Task
	for _, rec := range s.records {
		if keep(rec) {
			out = append(out, rec.task)
		}
	}
	return out
}

// StatusOf returns the stored status of a task and whether it exists.
func (s *MockTaskStore) StatusOf(taskID uuid.UUID) (TaskStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[taskID]
	if !ok {
		return "", false
	}
	return rec.task.TaskStatus, true
}

// ErrorOf returns the last error message recorded for a task.
func (s *MockTaskStore) ErrorOf(taskID uuid.UUID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[taskID]; ok {
		return rec.errMsg
	}
	return ""
}

// Count returns the number of saved tasks.
func (s *MockTaskStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ TaskStore = (*MockTaskStore)(nil)
