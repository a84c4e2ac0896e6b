package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DedupKeyPrefix prefixes the plan id in a plan validation dedup key.
const DedupKeyPrefix = "validate:"

// Common errors
var (
	ErrNilValidator = errors.New("validator cannot be nil")
	ErrNilCache     = errors.New("result cache cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
	ErrEmptyPlanID  = errors.New("plan ID cannot be empty")
)

// Validator computes a fresh validation result for a plan.
type Validator interface {
	ComputeValidation(ctx context.Context, planID uuid.UUID) (*domain.ValidationResult, error)
}

// ResultCache stores computed validation results unless the plan was
// invalidated after the generation stamp was read.
type ResultCache interface {
	Generation(ctx context.Context, planID uuid.UUID) (string, error)
	SetCachedIfCurrent(ctx context.Context, planID uuid.UUID, generation string, result *domain.ValidationResult) (bool, error)
}

const tracerName = "github.com/phrazzld/degreeplan-api/internal/task"

// DedupKey returns the key coalescing validation jobs for planID.
func DedupKey(planID uuid.UUID) string {
	return DedupKeyPrefix + planID.String()
}

// planValidationPayload represents the serialized data stored in the task
type planValidationPayload struct {
	PlanID uuid.UUID `json:"plan_id"`
}

// PlanValidationTask recomputes the validation result of a plan and writes
// it to the cache.
type PlanValidationTask struct {
	id        uuid.UUID
	planID    uuid.UUID
	validator Validator
	cache     ResultCache
	logger    *slog.Logger
	tracer    trace.Tracer

	mu     sync.RWMutex
	status TaskStatus
}

// NewPlanValidationTask creates a new plan validation task
func NewPlanValidationTask(
	planID uuid.UUID,
	validator Validator,
	cache ResultCache,
	logger *slog.Logger,
) (*PlanValidationTask, error) {
	return newPlanValidationTask(uuid.New(), planID, validator, cache, logger)
}

func newPlanValidationTask(
	id uuid.UUID,
	planID uuid.UUID,
	validator Validator,
	cache ResultCache,
	logger *slog.Logger,
) (*PlanValidationTask, error) {
	if validator == nil {
		return nil, ErrNilValidator
	}
	if cache == nil {
		return nil, ErrNilCache
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if planID == uuid.Nil {
		return nil, ErrEmptyPlanID
	}

	return &PlanValidationTask{
		id:        id,
		planID:    planID,
		validator: validator,
		cache:     cache,
		logger:    logger.With("task_id", id, "task_type", TaskTypePlanValidation, "plan_id", planID),
		tracer:    otel.Tracer(tracerName),
		status:    TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *PlanValidationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *PlanValidationTask) Type() string {
	return TaskTypePlanValidation
}

// PlanID returns the plan the task validates.
func (t *PlanValidationTask) PlanID() uuid.UUID {
	return t.planID
}

// Payload returns the task data as a byte slice
func (t *PlanValidationTask) Payload() []byte {
	data, err := json.Marshal(planValidationPayload{PlanID: t.planID})
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Status returns the current task status
func (t *PlanValidationTask) Status() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// DedupKey returns "validate:" followed by the plan id.
func (t *PlanValidationTask) DedupKey() string {
	return DedupKey(t.planID)
}

func (t *PlanValidationTask) setStatus(s TaskStatus) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Execute computes the plan's validation result and caches it. Failures are
// returned to the runner, which logs them and marks the task failed; there is
// no retry.
func (t *PlanValidationTask) Execute(ctx context.Context) error {
	ctx, span := t.tracer.Start(ctx, "PlanValidationTask.Execute",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("plan_id", t.planID.String()),
		attribute.String("task_id", t.id.String()),
	)

	t.setStatus(TaskStatusProcessing)
	t.logger.Info("starting plan validation task")

	if err := ctx.Err(); err != nil {
		t.setStatus(TaskStatusFailed)
		span.SetStatus(codes.Error, "cancelled")
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	generation, err := t.cache.Generation(ctx, t.planID)
	if err != nil {
		t.setStatus(TaskStatusFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "cache read failed")
		return fmt.Errorf("failed to read plan generation: %w", err)
	}

	start := time.Now()
	result, err := t.validator.ComputeValidation(ctx, t.planID)
	metrics.ObserveValidation(metrics.PathJob, time.Since(start))
	if err != nil {
		t.setStatus(TaskStatusFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "compute failed")
		return fmt.Errorf("failed to compute validation: %w", err)
	}

	stored, err := t.cache.SetCachedIfCurrent(ctx, t.planID, generation, result)
	if err != nil {
		t.setStatus(TaskStatusFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "cache write failed")
		return fmt.Errorf("failed to cache validation result: %w", err)
	}
	if !stored {
		// The invalidating mutation queued a newer job.
		t.logger.Info("plan changed during validation, result discarded")
	}

	span.SetAttributes(
		attribute.Bool("stored", stored),
		attribute.Bool("valid", result.Valid),
		attribute.Int("error_count", len(result.Errors)),
		attribute.Int("warning_count", len(result.Warnings)),
	)
	t.setStatus(TaskStatusCompleted)
	t.logger.Info("plan validation task completed",
		"valid", result.Valid,
		"error_count", len(result.Errors),
		"warning_count", len(result.Warnings))
	return nil
}
