package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// HandlerFunc processes one task taken from the queue.
type HandlerFunc func(ctx context.Context, task Task) error

// WorkerPool runs a fixed number of goroutines draining a TaskQueueReader.
// A failing or panicking task is logged and reported to the error handler;
// it never takes a worker down.
type WorkerPool struct {
	taskQueue   TaskQueueReader
	workerCount int
	wg          sync.WaitGroup

	// ctx is cancelled by Stop and passed to every handler call.
	ctx    context.Context
	cancel context.CancelFunc

	logger       *slog.Logger
	handler      HandlerFunc
	errorHandler func(task Task, err error)
}

type WorkerPoolConfig struct {
	// WorkerCount below one is raised to one.
	WorkerCount int
}

func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{WorkerCount: 2}
}

// NewWorkerPool returns a stopped pool whose handler calls task.Execute.
func NewWorkerPool(taskQueue TaskQueueReader, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	workers := config.WorkerCount
	if workers < 1 {
		logger.Warn("worker count must be positive, running a single worker",
			"configured", config.WorkerCount)
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		taskQueue:   taskQueue,
		workerCount: workers,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
		handler: func(ctx context.Context, task Task) error {
			return task.Execute(ctx)
		},
	}
}

// SetErrorHandler must be called before Start.
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.errorHandler = handler
}

// SetHandler replaces the function that runs each task. Must be called
// before Start.
func (p *WorkerPool) SetHandler(handler HandlerFunc) {
	if handler != nil {
		p.handler = handler
	}
}

// Start launches the workers. It returns immediately.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool", "worker_count", p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop cancels the pool context and waits for running tasks to return.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	log := p.logger.With("worker_id", id)
	tasks := p.taskQueue.GetChannel()

	for {
		select {
		case <-p.ctx.Done():
			log.Debug("worker stopping: pool cancelled")
			return
		case task, ok := <-tasks:
			if !ok {
				log.Debug("worker stopping: queue closed")
				return
			}
			p.process(log, task)
		}
	}
}

func (p *WorkerPool) process(log *slog.Logger, task Task) {
	err := p.run(task)
	if err == nil {
		return
	}
	log.Error("task execution failed",
		"task_id", task.ID(),
		"task_type", task.Type(),
		"dedup_key", task.DedupKey(),
		"error", err)
	if p.errorHandler != nil {
		p.errorHandler(task, err)
	}
}

// run executes the handler, turning a panic into an error.
func (p *WorkerPool) run(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while executing task %s: %v", task.ID(), r)
		}
	}()
	return p.handler(p.ctx, task)
}
