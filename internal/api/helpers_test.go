package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/api/middleware"
	"github.com/phrazzld/degreeplan-api/internal/api/shared"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/service"
	"github.com/phrazzld/degreeplan-api/internal/store"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockPlanService implements service.PlanService with function fields.
type mockPlanService struct {
	CreatePlanFn     func(ctx context.Context, name string, description *string) (*domain.Plan, error)
	GetPlanFn        func(ctx context.Context, planID uuid.UUID) (*service.PlanDetail, error)
	ListPlansFn      func(ctx context.Context) ([]store.PlanSummary, error)
	UpdatePlanFn     func(ctx context.Context, planID uuid.UUID, update service.PlanUpdate) (*domain.Plan, error)
	DeletePlanFn     func(ctx context.Context, planID uuid.UUID) (*domain.Plan, error)
	AddEntryFn       func(ctx context.Context, planID uuid.UUID, input service.EntryInput) (*domain.PlanEntry, error)
	UpdateEntryFn    func(ctx context.Context, planID, entryID uuid.UUID, update service.EntryUpdate) (*domain.PlanEntry, error)
	DeleteEntryFn    func(ctx context.Context, planID, entryID uuid.UUID) (*domain.PlanEntry, error)
	ReorderEntriesFn func(ctx context.Context, planID uuid.UUID, positions []store.EntryPosition) error
}

func (m *mockPlanService) CreatePlan(ctx context.Context, name string, description *string) (*domain.Plan, error) {
	return m.CreatePlanFn(ctx, name, description)
}

func (m *mockPlanService) GetPlan(ctx context.Context, planID uuid.UUID) (*service.PlanDetail, error) {
	return m.GetPlanFn(ctx, planID)
}

func (m *mockPlanService) ListPlans(ctx context.Context) ([]store.PlanSummary, error) {
	return m.ListPlansFn(ctx)
}

func (m *mockPlanService) UpdatePlan(ctx context.Context, planID uuid.UUID, update service.PlanUpdate) (*domain.Plan, error) {
	return m.UpdatePlanFn(ctx, planID, update)
}

func (m *mockPlanService) DeletePlan(ctx context.Context, planID uuid.UUID) (*domain.Plan, error) {
	return m.DeletePlanFn(ctx, planID)
}

func (m *mockPlanService) AddEntry(ctx context.Context, planID uuid.UUID, input service.EntryInput) (*domain.PlanEntry, error) {
	return m.AddEntryFn(ctx, planID, input)
}

func (m *mockPlanService) UpdateEntry(
	ctx context.Context,
	planID, entryID uuid.UUID,
	update service.EntryUpdate,
) (*domain.PlanEntry, error) {
	return m.UpdateEntryFn(ctx, planID, entryID, update)
}

func (m *mockPlanService) DeleteEntry(ctx context.Context, planID, entryID uuid.UUID) (*domain.PlanEntry, error) {
	return m.DeleteEntryFn(ctx, planID, entryID)
}

func (m *mockPlanService) ReorderEntries(ctx context.Context, planID uuid.UUID, positions []store.EntryPosition) error {
	return m.ReorderEntriesFn(ctx, planID, positions)
}

// mockValidationService implements service.ValidationService.
type mockValidationService struct {
	ComputeFn func(ctx context.Context, planID uuid.UUID) (*domain.ValidationResult, error)
	GetFn     func(ctx context.Context, planID uuid.UUID) (*domain.ValidationResult, bool, error)
	EnqueueFn func(ctx context.Context, planID uuid.UUID) (uuid.UUID, error)
}

func (m *mockValidationService) ComputeValidation(ctx context.Context, planID uuid.UUID) (*domain.ValidationResult, error) {
	return m.ComputeFn(ctx, planID)
}

func (m *mockValidationService) GetValidation(ctx context.Context, planID uuid.UUID) (*domain.ValidationResult, bool, error) {
	return m.GetFn(ctx, planID)
}

func (m *mockValidationService) EnqueueRecompute(ctx context.Context, planID uuid.UUID) (uuid.UUID, error) {
	return m.EnqueueFn(ctx, planID)
}

// mockCourseStore implements store.CourseStore.
type mockCourseStore struct {
	GetByIDFn func(ctx context.Context, id string) (*domain.Course, error)
	ListFn    func(ctx context.Context, filter store.CourseFilter) ([]*domain.Course, int, error)
}

func (m *mockCourseStore) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockCourseStore) GetByIDs(ctx context.Context, ids []string) ([]*domain.Course, error) {
	return nil, nil
}

func (m *mockCourseStore) List(ctx context.Context, filter store.CourseFilter) ([]*domain.Course, int, error) {
	return m.ListFn(ctx, filter)
}

// memoryDrafts implements DraftStore in memory.
type memoryDrafts struct {
	drafts map[uuid.UUID]json.RawMessage
	Err    error
}

func (m *memoryDrafts) GetDraft(ctx context.Context, planID uuid.UUID) (json.RawMessage, bool, error) {
	if m.Err != nil {
		return nil, false, m.Err
	}
	d, ok := m.drafts[planID]
	return d, ok, nil
}

func (m *memoryDrafts) SetDraft(ctx context.Context, planID uuid.UUID, draft json.RawMessage) error {
	if m.Err != nil {
		return m.Err
	}
	if m.drafts == nil {
		m.drafts = make(map[uuid.UUID]json.RawMessage)
	}
	m.drafts[planID] = draft
	return nil
}

// newTestRouter mounts handlers under /api/v1 the way the server does.
func newTestRouter(mount ...func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Trace(testLogger()))
	r.Route("/api/v1", func(r chi.Router) {
		for _, m := range mount {
			m(r)
		}
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}
