package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/platform/logger"
	"github.com/phrazzld/degreeplan-api/internal/store"
	"github.com/phrazzld/degreeplan-api/internal/task"
)

// ErrTaskNotRestored is returned when a task loaded from the database is
// executed without first being rebuilt by its task type's restorer.
var ErrTaskNotRestored = errors.New("recovered task has no restorer")

// PostgresTaskStore implements the task.TaskStore interface using PostgreSQL
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgresTaskStore
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements task.TaskStore interface
var _ task.TaskStore = (*PostgresTaskStore)(nil)

// SaveTask persists a task to the database
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (id, type, dedup_key, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var dedupKey interface{}
	if key := t.DedupKey(); key != "" {
		dedupKey = key
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, query,
		t.ID(),
		t.Type(),
		dedupKey,
		t.Payload(),
		string(t.Status()),
		now,
		now,
	)
	if err != nil {
		log.Error("failed to save task",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to save task to database: %w", MapError(err))
	}

	log.Debug("task saved",
		slog.String("task_id", t.ID().String()),
		slog.String("task_type", t.Type()))
	return nil
}

// UpdateTaskStatus updates the status of a task in the database.
// An unknown task id is logged and treated as a no-op.
func (s *PostgresTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status task.TaskStatus,
	errorMsg string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`

	var errorMessage interface{}
	if errorMsg != "" {
		errorMessage = errorMsg
	}

	result, err := s.db.ExecContext(ctx, query,
		string(status),
		errorMessage,
		time.Now().UTC(),
		taskID,
	)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("task_id", taskID.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update task status: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			log.Warn("no task found with ID to update status",
				slog.String("task_id", taskID.String()))
			return nil
		}
		return err
	}

	return nil
}

// GetPendingTasks retrieves all tasks with "pending" status
func (s *PostgresTaskStore) GetPendingTasks(ctx context.Context) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks retrieves tasks with "processing" status whose last
// update is older than olderThan. A zero duration returns all of them.
func (s *PostgresTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusProcessing, olderThan)
}

func (s *PostgresTaskStore) getTasksByStatus(
	ctx context.Context,
	status task.TaskStatus,
	olderThan time.Duration,
) ([]task.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, type, dedup_key, payload, status, error_message
		FROM tasks
		WHERE status = $1
	`
	args := []interface{}{string(status)}
	if olderThan > 0 {
		query += ` AND updated_at < $2`
		args = append(args, time.Now().UTC().Add(-olderThan))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by status",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query tasks by status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []task.Task
	for rows.Next() {
		var (
			t            StoredTask
			dedupKey     sql.NullString
			taskStatus   string
			errorMessage sql.NullString
		)
		if err := rows.Scan(&t.TaskID, &t.TaskType, &dedupKey, &t.TaskPayload, &taskStatus, &errorMessage); err != nil {
			log.Error("failed to scan task row",
				slog.String("status", string(status)),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		t.Key = dedupKey.String
		t.TaskStatus = task.TaskStatus(taskStatus)
		t.ErrorMessage = errorMessage.String
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// StoredTask is a task row loaded from the database. It carries the
// persisted fields only; the runner rebuilds an executable task from it with
// the restorer registered for TaskType.
type StoredTask struct {
	TaskID       uuid.UUID
	TaskType     string
	TaskPayload  []byte
	TaskStatus   task.TaskStatus
	Key          string
	ErrorMessage string
}

// ID returns the task's unique identifier
func (t *StoredTask) ID() uuid.UUID { return t.TaskID }

// Type returns the task type identifier
func (t *StoredTask) Type() string { return t.TaskType }

// Payload returns the persisted task data
func (t *StoredTask) Payload() []byte { return t.TaskPayload }

// Status returns the persisted task status
func (t *StoredTask) Status() task.TaskStatus { return t.TaskStatus }

// DedupKey returns the persisted dedup key, or "" when the task had none.
func (t *StoredTask) DedupKey() string { return t.Key }

// Execute always fails: a stored task must be restored before it can run.
func (t *StoredTask) Execute(ctx context.Context) error {
	return fmt.Errorf("%w: type %q", ErrTaskNotRestored, t.TaskType)
}
