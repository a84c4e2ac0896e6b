package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/events"
	"github.com/phrazzld/degreeplan-api/internal/store"
	"github.com/phrazzld/degreeplan-api/internal/task"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePlanStore keeps plans in memory; function fields override behavior.
type fakePlanStore struct {
	mu    sync.Mutex
	plans map[uuid.UUID]*domain.Plan

	GetByIDErr error
	WriteErr   error
}

func newFakePlanStore(plans ...*domain.Plan) *fakePlanStore {
	s := &fakePlanStore{plans: make(map[uuid.UUID]*domain.Plan)}
	for _, p := range plans {
		s.plans[p.ID] = p
	}
	return s
}

func (s *fakePlanStore) Create(ctx context.Context, plan *domain.Plan) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *plan
	s.plans[plan.ID] = &cp
	return nil
}

func (s *fakePlanStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Plan, error) {
	if s.GetByIDErr != nil {
		return nil, s.GetByIDErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, store.ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakePlanStore) List(ctx context.Context) ([]store.PlanSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.PlanSummary, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, store.PlanSummary{Plan: *p})
	}
	return out, nil
}

func (s *fakePlanStore) Update(ctx context.Context, plan *domain.Plan) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[plan.ID]; !ok {
		return store.ErrPlanNotFound
	}
	cp := *plan
	s.plans[plan.ID] = &cp
	return nil
}

func (s *fakePlanStore) Delete(ctx context.Context, id uuid.UUID) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plans[id]; !ok {
		return store.ErrPlanNotFound
	}
	delete(s.plans, id)
	return nil
}

func (s *fakePlanStore) WithTx(tx *sql.Tx) store.PlanStore { return s }

// fakeEntryStore keeps entries in memory.
type fakeEntryStore struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*domain.PlanEntry

	CreateErr  error
	ListErr    error
	ReorderErr error
	// ListHook runs before ListByPlan reads; a non-nil return fails the read.
	ListHook  func(ctx context.Context) error
	reordered []store.EntryPosition
	withTx    bool
}

func newFakeEntryStore(entries ...domain.PlanEntry) *fakeEntryStore {
	s := &fakeEntryStore{entries: make(map[uuid.UUID]*domain.PlanEntry)}
	for i := range entries {
		e := entries[i]
		s.entries[e.ID] = &e
	}
	return s
}

func (s *fakeEntryStore) Create(ctx context.Context, entry *domain.PlanEntry) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	max := -1
	for _, e := range s.entries {
		if e.PlanID != entry.PlanID {
			continue
		}
		if e.CourseID == entry.CourseID {
			return store.ErrEntryExists
		}
		if e.Position > max {
			max = e.Position
		}
	}
	if entry.Position < 0 {
		entry.Position = max + 1
	}
	cp := *entry
	s.entries[entry.ID] = &cp
	return nil
}

func (s *fakeEntryStore) GetByID(ctx context.Context, planID, entryID uuid.UUID) (*domain.PlanEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok || e.PlanID != planID {
		return nil, store.ErrEntryNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *fakeEntryStore) ListByPlan(ctx context.Context, planID uuid.UUID) ([]domain.PlanEntry, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	if s.ListHook != nil {
		if err := s.ListHook(ctx); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.PlanEntry
	for _, e := range s.entries {
		if e.PlanID == planID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeEntryStore) Update(ctx context.Context, entry *domain.PlanEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.ID]; !ok {
		return store.ErrEntryNotFound
	}
	cp := *entry
	s.entries[entry.ID] = &cp
	return nil
}

func (s *fakeEntryStore) Delete(ctx context.Context, planID, entryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok || e.PlanID != planID {
		return store.ErrEntryNotFound
	}
	delete(s.entries, entryID)
	return nil
}

func (s *fakeEntryStore) Reorder(ctx context.Context, planID uuid.UUID, positions []store.EntryPosition) error {
	if s.ReorderErr != nil {
		return s.ReorderErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reordered = append(s.reordered, positions...)
	return nil
}

func (s *fakeEntryStore) WithTx(tx *sql.Tx) store.EntryStore {
	s.withTx = true
	return s
}

// fakeCourseStore serves a fixed catalog.
type fakeCourseStore struct {
	courses map[string]*domain.Course

	GetByIDsErr error
}

func newFakeCourseStore(courses ...*domain.Course) *fakeCourseStore {
	s := &fakeCourseStore{courses: make(map[string]*domain.Course)}
	for _, c := range courses {
		s.courses[c.ID] = c
	}
	return s
}

func (s *fakeCourseStore) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	c, ok := s.courses[id]
	if !ok {
		return nil, store.ErrCourseNotFound
	}
	return c, nil
}

func (s *fakeCourseStore) GetByIDs(ctx context.Context, ids []string) ([]*domain.Course, error) {
	if s.GetByIDsErr != nil {
		return nil, s.GetByIDsErr
	}
	var out []*domain.Course
	for _, id := range ids {
		if c, ok := s.courses[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeCourseStore) List(ctx context.Context, filter store.CourseFilter) ([]*domain.Course, int, error) {
	out := make([]*domain.Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, c)
	}
	return out, len(out), nil
}

// fakeCache records invalidations and stores results in memory.
type fakeCache struct {
	mu          sync.Mutex
	results     map[uuid.UUID]*domain.ValidationResult
	generations map[uuid.UUID]string
	invalidated []uuid.UUID
	sets        int

	InvalidateErr error
	GetErr        error
	GenErr        error
	SetErr        error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		results:     make(map[uuid.UUID]*domain.ValidationResult),
		generations: make(map[uuid.UUID]string),
	}
}

func (c *fakeCache) Invalidate(ctx context.Context, planID uuid.UUID) error {
	if c.InvalidateErr != nil {
		return c.InvalidateErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.results, planID)
	c.generations[planID] = uuid.NewString()
	c.invalidated = append(c.invalidated, planID)
	return nil
}

func (c *fakeCache) GetCached(ctx context.Context, planID uuid.UUID) (*domain.ValidationResult, bool, error) {
	if c.GetErr != nil {
		return nil, false, c.GetErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[planID]
	return r, ok, nil
}

func (c *fakeCache) Generation(ctx context.Context, planID uuid.UUID) (string, error) {
	if c.GenErr != nil {
		return "", c.GenErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[planID], nil
}

func (c *fakeCache) SetCachedIfCurrent(ctx context.Context, planID uuid.UUID, generation string, result *domain.ValidationResult) (bool, error) {
	if c.SetErr != nil {
		return false, c.SetErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[planID] != generation {
		return false, nil
	}
	c.results[planID] = result
	c.sets++
	return true, nil
}

func (c *fakeCache) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

func (c *fakeCache) invalidations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.invalidated)
}

// fakeEmitter records emitted events.
type fakeEmitter struct {
	mu      sync.Mutex
	emitted []*events.TaskRequestEvent
	Err     error
}

func (e *fakeEmitter) EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emitted = append(e.emitted, event)
	return e.Err
}

func (e *fakeEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.emitted)
}

// fakeSubmitter records submitted tasks.
type fakeSubmitter struct {
	submitted []task.Task
	Err       error
}

func (s *fakeSubmitter) Submit(ctx context.Context, t task.Task) (uuid.UUID, error) {
	if s.Err != nil {
		return uuid.Nil, s.Err
	}
	s.submitted = append(s.submitted, t)
	return t.ID(), nil
}
