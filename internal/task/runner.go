package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/metrics"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// TaskTimeout bounds a single execution. If zero, defaults to 1 minute
	TaskTimeout time.Duration

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and reset
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks
	// If zero, defaults to 5 minutes
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		TaskTimeout:            time.Minute,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRunner persists submitted tasks, coalesces pending submissions that
// share a deduplication key, and executes them on a worker pool.
type TaskRunner struct {
	store  TaskStore
	queue  *TaskQueue
	pool   *WorkerPool
	config TaskRunnerConfig
	logger *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	errHandler func(task Task, err error)

	restorersMu sync.RWMutex
	restorers   map[string]Restorer

	// pending maps a dedup key to the id of the queued task holding it.
	// A key is held from submission until a worker picks the task up.
	pendingMu sync.Mutex
	pending   map[string]uuid.UUID
}

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(store TaskStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}
	if config.TaskTimeout == 0 {
		config.TaskTimeout = time.Minute
	}
	logger = logger.With("component", "task_runner")

	queue := NewTaskQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger)

	ctx, cancel := context.WithCancel(context.Background())

	r := &TaskRunner{
		store:      store,
		queue:      queue,
		pool:       pool,
		config:     config,
		logger:     logger,
		ctx:        ctx,
		cancelFunc: cancel,
		restorers:  make(map[string]Restorer),
		pending:    make(map[string]uuid.UUID),
	}
	pool.SetHandler(r.processTask)

	return r
}

// SetErrorHandler sets a function called after a task fails. The failure is
// already logged and recorded in the store when it runs.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// RegisterRestorer registers the function that rebuilds persisted tasks of
// taskType during recovery.
func (r *TaskRunner) RegisterRestorer(taskType string, restore Restorer) {
	r.restorersMu.Lock()
	defer r.restorersMu.Unlock()
	r.restorers[taskType] = restore
}

// Submit persists and queues a task and returns its job id. If a task with
// the same dedup key is still waiting for a worker, nothing is saved or
// queued and the id of the waiting task is returned instead.
func (r *TaskRunner) Submit(ctx context.Context, task Task) (uuid.UUID, error) {
	key := task.DedupKey()

	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()

	if key != "" {
		if existing, ok := r.pending[key]; ok {
			r.logger.Debug("task deduplicated",
				"dedup_key", key,
				"task_id", existing,
				"task_type", task.Type())
			metrics.Job(metrics.JobDeduplicated)
			return existing, nil
		}
	}

	if err := r.store.SaveTask(ctx, task); err != nil {
		return uuid.Nil, fmt.Errorf("failed to save task: %w", err)
	}

	if err := r.queue.Enqueue(task); err != nil {
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			r.logger.Error("failed to mark unqueued task as failed",
				"task_id", task.ID(),
				"error", updateErr)
		}
		return uuid.Nil, fmt.Errorf("failed to queue task: %w", err)
	}

	if key != "" {
		r.pending[key] = task.ID()
	}
	metrics.Job(metrics.JobEnqueued)

	return task.ID(), nil
}

// PendingID returns the id of the queued task holding key, if any.
func (r *TaskRunner) PendingID(key string) (uuid.UUID, bool) {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	id, ok := r.pending[key]
	return id, ok
}

// Start recovers unfinished tasks and begins processing
func (r *TaskRunner) Start() error {
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	r.pool.Start()

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop gracefully shuts down the task runner. Running tasks see their
// context cancelled; queued tasks stay pending in the store.
func (r *TaskRunner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	r.pool.Stop()
	r.queue.Close()
}

// Recover loads any unfinished tasks from the store and queues them again.
func (r *TaskRunner) Recover() error {
	ctx := context.Background()

	pendingTasks, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	// Tasks left processing were interrupted by a crash; all ages qualify
	processingTasks, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pendingTasks),
		"processing_count", len(processingTasks))

	for _, task := range pendingTasks {
		r.requeue(ctx, task)
	}

	for _, task := range processingTasks {
		if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusPending, "Reset after recovery"); err != nil {
			r.logger.Error("failed to reset processing task status",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
			continue
		}
		r.requeue(ctx, task)
	}

	return nil
}

// requeue restores a persisted task and puts it back on the queue, holding
// its dedup key. A second pending task for a key already held is dropped.
func (r *TaskRunner) requeue(ctx context.Context, stored Task) {
	task, err := r.restore(stored)
	if err != nil {
		r.logger.Error("failed to restore task",
			"task_id", stored.ID(),
			"task_type", stored.Type(),
			"error", err)
		r.markFailed(ctx, stored, err)
		return
	}

	key := task.DedupKey()

	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()

	if key != "" {
		if existing, ok := r.pending[key]; ok && existing != task.ID() {
			r.markFailed(ctx, task, fmt.Errorf("superseded by pending task %s", existing))
			return
		}
	}

	if err := r.queue.Enqueue(task); err != nil {
		r.logger.Error("failed to requeue task",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"error", err)
		return
	}

	if key != "" {
		r.pending[key] = task.ID()
	}
	r.logger.Info("requeued task", "task_id", task.ID(), "task_type", task.Type())
}

func (r *TaskRunner) restore(stored Task) (Task, error) {
	r.restorersMu.RLock()
	restore, ok := r.restorers[stored.Type()]
	r.restorersMu.RUnlock()
	if !ok {
		return stored, nil
	}
	return restore(stored.ID(), stored.Payload())
}

// release frees the task's dedup key so that later submissions schedule a
// fresh run.
func (r *TaskRunner) release(task Task) {
	key := task.DedupKey()
	if key == "" {
		return
	}

	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	if r.pending[key] == task.ID() {
		delete(r.pending, key)
	}
}

// processTask is the worker pool handler.
func (r *TaskRunner) processTask(ctx context.Context, task Task) error {
	r.release(task)

	log := r.logger.With("task_id", task.ID(), "task_type", task.Type())
	storeCtx := context.Background()

	if err := r.store.UpdateTaskStatus(storeCtx, task.ID(), TaskStatusProcessing, ""); err != nil {
		return fmt.Errorf("failed to update task status to processing: %w", err)
	}

	log.Info("processing task")

	execCtx, cancel := context.WithTimeout(ctx, r.config.TaskTimeout)
	defer cancel()

	if err := execute(execCtx, task); err != nil {
		metrics.Job(metrics.JobFailed)
		if updateErr := r.store.UpdateTaskStatus(storeCtx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			log.Error("failed to update task status to failed", "error", updateErr)
		}
		if r.errHandler != nil {
			r.errHandler(task, err)
		}
		return err
	}

	metrics.Job(metrics.JobSucceeded)
	log.Info("task completed successfully")
	if err := r.store.UpdateTaskStatus(storeCtx, task.ID(), TaskStatusCompleted, ""); err != nil {
		log.Error("failed to update task status to completed", "error", err)
	}
	return nil
}

// execute runs the task, turning a panic into an error so the task is
// still recorded as failed.
func execute(ctx context.Context, task Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while executing task: %v", p)
		}
	}()
	return task.Execute(ctx)
}

func (r *TaskRunner) markFailed(ctx context.Context, task Task, cause error) {
	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, cause.Error()); err != nil {
		r.logger.Error("failed to mark task as failed",
			"task_id", task.ID(),
			"error", errors.Join(cause, err))
	}
}

// stuckTaskMonitor periodically checks for tasks that have been in "processing"
// state for too long and resets them
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuckTasks, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck tasks", "error", err)
				continue
			}

			if len(stuckTasks) > 0 {
				r.logger.Info("found stuck tasks", "count", len(stuckTasks))
			}

			for _, task := range stuckTasks {
				if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusPending,
					"Reset after being stuck in processing state"); err != nil {
					r.logger.Error("failed to reset stuck task status",
						"task_id", task.ID(),
						"task_type", task.Type(),
						"error", err)
					continue
				}
				r.requeue(ctx, task)
			}
		}
	}
}
