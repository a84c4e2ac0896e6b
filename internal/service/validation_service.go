package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/domain/validation"
	"github.com/phrazzld/degreeplan-api/internal/metrics"
	"github.com/phrazzld/degreeplan-api/internal/platform/logger"
	"github.com/phrazzld/degreeplan-api/internal/store"
	"github.com/phrazzld/degreeplan-api/internal/task"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// ResultCache reads and writes cached validation results. Writes are
// conditional on the plan's generation stamp so a result computed from
// pre-mutation data is never stored after the mutation's invalidation.
type ResultCache interface {
	GetCached(ctx context.Context, planID uuid.UUID) (*domain.ValidationResult, bool, error)
	Generation(ctx context.Context, planID uuid.UUID) (string, error)
	SetCachedIfCurrent(ctx context.Context, planID uuid.UUID, generation string, result *domain.ValidationResult) (bool, error)
}

// DefaultComputeTimeout bounds a shared synchronous computation. It runs
// detached from any single caller's request.
const DefaultComputeTimeout = 30 * time.Second

const tracerName = "github.com/phrazzld/degreeplan-api/internal/service"

// ValidationService computes and serves plan validation results.
type ValidationService interface {
	// ComputeValidation loads the plan's entries and courses and validates
	// them. It neither reads nor writes the cache.
	ComputeValidation(ctx context.Context, planID uuid.UUID) (*domain.ValidationResult, error)

	// GetValidation returns the cached result when present. On a miss it
	// computes the result, caches it and reports cached as false.
	GetValidation(ctx context.Context, planID uuid.UUID) (result *domain.ValidationResult, cached bool, err error)

	// EnqueueRecompute schedules a background recomputation and returns the
	// job ID. A job already pending for the plan is reused.
	EnqueueRecompute(ctx context.Context, planID uuid.UUID) (uuid.UUID, error)
}

type validationServiceImpl struct {
	plans   store.PlanStore
	entries store.EntryStore
	courses store.CourseStore
	cache   ResultCache
	jobs    task.TaskSubmitter
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time

	computeTimeout time.Duration
	inflight       singleflight.Group
}

// NewValidationService creates a new ValidationService.
// It returns an error if any of the required dependencies are nil.
func NewValidationService(
	plans store.PlanStore,
	entries store.EntryStore,
	courses store.CourseStore,
	cache ResultCache,
	jobs task.TaskSubmitter,
	logger *slog.Logger,
) (ValidationService, error) {
	switch {
	case plans == nil:
		return nil, &ServiceError{Operation: "create_validation_service", Message: "plans cannot be nil"}
	case entries == nil:
		return nil, &ServiceError{Operation: "create_validation_service", Message: "entries cannot be nil"}
	case courses == nil:
		return nil, &ServiceError{Operation: "create_validation_service", Message: "courses cannot be nil"}
	case cache == nil:
		return nil, &ServiceError{Operation: "create_validation_service", Message: "cache cannot be nil"}
	case jobs == nil:
		return nil, &ServiceError{Operation: "create_validation_service", Message: "jobs cannot be nil"}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &validationServiceImpl{
		plans:   plans,
		entries: entries,
		courses: courses,
		cache:   cache,
		jobs:    jobs,
		logger:  logger.With("component", "validation_service"),
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,

		computeTimeout: DefaultComputeTimeout,
	}, nil
}

// ComputeValidation implements ValidationService.ComputeValidation
func (s *validationServiceImpl) ComputeValidation(
	ctx context.Context,
	planID uuid.UUID,
) (*domain.ValidationResult, error) {
	ctx, span := s.tracer.Start(ctx, "ValidationService.ComputeValidation")
	defer span.End()
	span.SetAttributes(attribute.String("plan_id", planID.String()))

	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.plans.GetByID(ctx, planID); err != nil {
		span.RecordError(err)
		return nil, storageFailure("compute_validation", "failed to load plan", err)
	}

	entries, err := s.entries.ListByPlan(ctx, planID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "entries unavailable")
		return nil, storageFailure("compute_validation", "failed to load entries", err)
	}

	courses, err := s.courses.GetByIDs(ctx, referencedCourses(entries))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "courses unavailable")
		return nil, storageFailure("compute_validation", "failed to load courses", err)
	}

	result := validation.Validate(entries, validation.NewCatalog(courses), s.now())

	span.SetAttributes(
		attribute.Int("entry_count", len(entries)),
		attribute.Bool("valid", result.Valid),
	)
	log.Debug("computed plan validation",
		"plan_id", planID,
		"entry_count", len(entries),
		"valid", result.Valid,
		"error_count", len(result.Errors),
		"warning_count", len(result.Warnings))
	return result, nil
}

// referencedCourses returns the distinct course IDs of entries, sorted.
func referencedCourses(entries []domain.PlanEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.CourseID]; ok {
			continue
		}
		seen[e.CourseID] = struct{}{}
		ids = append(ids, e.CourseID)
	}
	sort.Strings(ids)
	return ids
}

// GetValidation implements ValidationService.GetValidation
func (s *validationServiceImpl) GetValidation(
	ctx context.Context,
	planID uuid.UUID,
) (*domain.ValidationResult, bool, error) {
	ctx, span := s.tracer.Start(ctx, "ValidationService.GetValidation")
	defer span.End()
	span.SetAttributes(attribute.String("plan_id", planID.String()))

	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.plans.GetByID(ctx, planID); err != nil {
		return nil, false, storageFailure("get_validation", "failed to load plan", err)
	}

	// Read the stamp before the cache so a computation started now is
	// recognised as stale if a mutation invalidates while it runs.
	generation, err := s.cache.Generation(ctx, planID)
	if err != nil {
		span.RecordError(err)
		return nil, false, infraError(ComponentCache, err)
	}

	cached, ok, err := s.cache.GetCached(ctx, planID)
	if err != nil {
		span.RecordError(err)
		return nil, false, infraError(ComponentCache, err)
	}
	if ok {
		metrics.CacheHit()
		span.SetAttributes(attribute.Bool("cached", true))
		return cached, true, nil
	}
	metrics.CacheMiss()
	span.SetAttributes(attribute.Bool("cached", false))

	// Concurrent misses at the same generation share one computation. It
	// runs on a context detached from this request, so one caller giving
	// up does not fail the others.
	flight := s.inflight.DoChan(planID.String()+"@"+generation, func() (interface{}, error) {
		computeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.computeTimeout)
		defer cancel()
		return s.computeAndStore(computeCtx, planID, generation)
	})

	select {
	case <-ctx.Done():
		err := ctx.Err()
		span.SetStatus(codes.Error, "caller gave up")
		log.Warn("validation request ended before the result was ready",
			"plan_id", planID,
			"error", err)
		return nil, false, err
	case res := <-flight:
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, "validation failed")
			log.Error("failed to compute validation", "plan_id", planID, "error", res.Err)
			return nil, false, res.Err
		}
		if res.Shared {
			log.Debug("joined in-flight validation", "plan_id", planID)
		}
		return res.Val.(*domain.ValidationResult), false, nil
	}
}

// computeAndStore computes the result and writes it through unless the
// plan was invalidated after generation was read.
func (s *validationServiceImpl) computeAndStore(
	ctx context.Context,
	planID uuid.UUID,
	generation string,
) (*domain.ValidationResult, error) {
	start := time.Now()
	result, err := s.ComputeValidation(ctx, planID)
	metrics.ObserveValidation(metrics.PathSync, time.Since(start))
	if err != nil {
		return nil, err
	}

	stored, err := s.cache.SetCachedIfCurrent(ctx, planID, generation, result)
	if err != nil {
		return nil, infraError(ComponentCache, err)
	}
	if !stored {
		logger.FromContextOrDefault(ctx, s.logger).Debug("plan changed during validation, result not cached",
			"plan_id", planID)
	}
	return result, nil
}

// EnqueueRecompute implements ValidationService.EnqueueRecompute
func (s *validationServiceImpl) EnqueueRecompute(ctx context.Context, planID uuid.UUID) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	job, err := task.NewPlanValidationTask(planID, s, s.cache, s.logger)
	if err != nil {
		return uuid.Nil, err
	}

	jobID, err := s.jobs.Submit(ctx, job)
	if err != nil {
		log.Error("failed to enqueue validation", "plan_id", planID, "error", err)
		return uuid.Nil, infraError(ComponentQueue, err)
	}

	log.Debug("validation enqueued", "plan_id", planID, "job_id", jobID)
	return jobID, nil
}
