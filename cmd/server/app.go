package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/degreeplan-api/internal/cache"
	"github.com/phrazzld/degreeplan-api/internal/config"
	"github.com/phrazzld/degreeplan-api/internal/events"
	"github.com/phrazzld/degreeplan-api/internal/platform/postgres"
	"github.com/phrazzld/degreeplan-api/internal/service"
	"github.com/phrazzld/degreeplan-api/internal/store"
	"github.com/phrazzld/degreeplan-api/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	cache  *cache.Cache

	courseStore store.CourseStore
	planStore   store.PlanStore
	entryStore  store.EntryStore
	taskStore   task.TaskStore

	planService       service.PlanService
	validationService service.ValidationService

	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.TaskRunner
}

// newApplication creates a new application instance with all dependencies initialized.
// The database connection must already be established; the application
// takes ownership of it and closes it in cleanup.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.cache, err = cache.Open(cache.Config{
		Path:          cfg.Cache.Path,
		InMemory:      cfg.Cache.InMemory,
		ValidationTTL: cfg.Cache.ValidationTTL(),
		DraftTTL:      cfg.Cache.DraftTTL(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	app.courseStore = postgres.NewPostgresCourseStore(db, logger)
	app.planStore = postgres.NewPostgresPlanStore(db, logger)
	app.entryStore = postgres.NewPostgresEntryStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	app.taskRunner = task.NewTaskRunner(app.taskStore, task.TaskRunnerConfig{
		QueueSize:    cfg.Task.QueueSize,
		WorkerCount:  cfg.Task.WorkerCount,
		StuckTaskAge: time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
	}, logger)

	app.validationService, err = service.NewValidationService(
		app.planStore,
		app.entryStore,
		app.courseStore,
		app.cache,
		app.taskRunner,
		logger,
	)
	if err != nil {
		app.closeCache()
		return nil, fmt.Errorf("failed to create validation service: %w", err)
	}

	// Mutations reach the runner through the emitter; recovery rebuilds
	// persisted jobs through the same factory.
	taskFactory := task.NewPlanValidationTaskFactory(app.validationService, app.cache, logger)
	app.taskRunner.RegisterRestorer(task.TaskTypePlanValidation, taskFactory.Restore)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(task.NewTaskFactoryEventHandler(taskFactory, app.taskRunner, logger))

	app.planService, err = service.NewPlanService(
		db,
		app.planStore,
		app.entryStore,
		app.courseStore,
		app.cache,
		app.eventEmitter,
		logger,
	)
	if err != nil {
		app.closeCache()
		return nil, fmt.Errorf("failed to create plan service: %w", err)
	}

	if err := app.taskRunner.Start(); err != nil {
		app.closeCache()
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run serves HTTP until ctx is cancelled, then shuts everything down.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	app.closeCache()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}

func (app *application) closeCache() {
	if app.cache == nil {
		return
	}
	if err := app.cache.Close(); err != nil {
		app.logger.Error("Error closing cache", "error", err)
	}
	app.cache = nil
}
