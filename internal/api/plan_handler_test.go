package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/api/shared"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/service"
	"github.com/phrazzld/degreeplan-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planRouter(svc *mockPlanService) http.Handler {
	return newTestRouter(NewPlanHandler(svc, testLogger()).Routes)
}

func TestNewPlanHandler_Panics(t *testing.T) {
	assert.Panics(t, func() { NewPlanHandler(nil, testLogger()) })
	assert.Panics(t, func() { NewPlanHandler(&mockPlanService{}, nil) })
}

func TestPlanHandler_ListPlans(t *testing.T) {
	t.Run("empty list is an array", func(t *testing.T) {
		svc := &mockPlanService{ListPlansFn: func(ctx context.Context) ([]store.PlanSummary, error) {
			return nil, nil
		}}
		rec := doRequest(t, planRouter(svc), http.MethodGet, "/api/v1/plans", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("entry counts", func(t *testing.T) {
		plan, _ := domain.NewPlan("CS", nil)
		svc := &mockPlanService{ListPlansFn: func(ctx context.Context) ([]store.PlanSummary, error) {
			return []store.PlanSummary{{Plan: *plan, EntryCount: 3}}, nil
		}}
		rec := doRequest(t, planRouter(svc), http.MethodGet, "/api/v1/plans", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var got []map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, plan.ID.String(), got[0]["id"])
		assert.Equal(t, float64(3), got[0]["entryCount"])
	})
}

func TestPlanHandler_CreatePlan(t *testing.T) {
	svc := &mockPlanService{CreatePlanFn: func(ctx context.Context, name string, description *string) (*domain.Plan, error) {
		return domain.NewPlan(name, description)
	}}
	router := planRouter(svc)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantFields map[string]string
	}{
		{"created", `{"name":"BSc CS","description":"major"}`, http.StatusCreated, "", nil},
		{"missing name", `{"description":"x"}`, http.StatusBadRequest, shared.CodeValidation, map[string]string{"name": "required"}},
		{"blank name", `{"name":"   "}`, http.StatusBadRequest, shared.CodeValidation, nil},
		{"malformed json", `{"name":`, http.StatusBadRequest, shared.CodeValidation, nil},
		{"empty body", ``, http.StatusBadRequest, shared.CodeValidation, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/v1/plans", tc.body)
			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			if tc.wantCode == "" {
				var plan domain.Plan
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
				assert.Equal(t, "BSc CS", plan.Name)
				assert.NotEqual(t, uuid.Nil, plan.ID)
				return
			}
			resp := decodeError(t, rec)
			assert.Equal(t, tc.wantCode, resp.Error)
			assert.Equal(t, tc.wantFields, resp.Fields)
		})
	}
}

func TestPlanHandler_GetPlan(t *testing.T) {
	plan, _ := domain.NewPlan("CS", nil)
	entry, _ := domain.NewPlanEntry(plan.ID, "CPSC110", 1, domain.TermWinter1, "completed", 0)

	svc := &mockPlanService{GetPlanFn: func(ctx context.Context, planID uuid.UUID) (*service.PlanDetail, error) {
		if planID != plan.ID {
			return nil, service.ErrPlanNotFound
		}
		return &service.PlanDetail{
			Plan: *plan,
			Entries: map[string]map[domain.Term][]domain.PlanEntry{
				"1": {domain.TermWinter1: {*entry}},
			},
		}, nil
	}}
	router := planRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/plans/"+plan.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		ID      uuid.UUID                                      `json:"id"`
		Entries map[string]map[string][]map[string]interface{} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, plan.ID, body.ID)
	require.Len(t, body.Entries["1"]["W1"], 1)
	assert.Equal(t, "CPSC110", body.Entries["1"]["W1"][0]["courseId"])

	rec = doRequest(t, router, http.MethodGet, "/api/v1/plans/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Plan not found", decodeError(t, rec).Message)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/plans/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlanHandler_UpdatePlan(t *testing.T) {
	var got service.PlanUpdate
	svc := &mockPlanService{UpdatePlanFn: func(ctx context.Context, planID uuid.UUID, update service.PlanUpdate) (*domain.Plan, error) {
		got = update
		return &domain.Plan{ID: planID, Name: *update.Name}, nil
	}}

	rec := doRequest(t, planRouter(svc), http.MethodPut, "/api/v1/plans/"+uuid.NewString(), `{"name":"Renamed"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Renamed", *got.Name)
	assert.Nil(t, got.Description)
}

func TestPlanHandler_DeletePlan(t *testing.T) {
	plan, _ := domain.NewPlan("Gone", nil)
	svc := &mockPlanService{DeletePlanFn: func(ctx context.Context, planID uuid.UUID) (*domain.Plan, error) {
		return plan, nil
	}}

	rec := doRequest(t, planRouter(svc), http.MethodDelete, "/api/v1/plans/"+plan.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted domain.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.Equal(t, plan.ID, deleted.ID)
}

func TestPlanHandler_CreateEntry(t *testing.T) {
	planID := uuid.New()

	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "created",
			body:       `{"courseId":"cpsc110","year":1,"term":"W1"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing year",
			body:       `{"courseId":"CPSC110","term":"W1"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeValidation,
			wantMsg:    "courseId, year, and term are required",
		},
		{
			name:       "unknown course",
			body:       `{"courseId":"MATH999","year":1,"term":"W1"}`,
			serviceErr: service.ErrCourseNotFound,
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeValidation,
			wantMsg:    "Course not found",
		},
		{
			name:       "bad term",
			body:       `{"courseId":"CPSC110","year":1,"term":"F"}`,
			serviceErr: domain.ErrInvalidTerm,
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeValidation,
			wantMsg:    "term must be one of W1, W2, S",
		},
		{
			name:       "year out of range",
			body:       `{"courseId":"CPSC110","year":9,"term":"W1"}`,
			serviceErr: domain.ErrInvalidYear,
			wantStatus: http.StatusBadRequest,
			wantCode:   shared.CodeValidation,
			wantMsg:    "year must be between 1 and 5",
		},
		{
			name:       "duplicate course",
			body:       `{"courseId":"CPSC110","year":2,"term":"W1"}`,
			serviceErr: service.ErrDuplicateEntry,
			wantStatus: http.StatusConflict,
			wantCode:   shared.CodeConflict,
			wantMsg:    "Course already exists in this plan",
		},
		{
			name:       "plan missing",
			body:       `{"courseId":"CPSC110","year":1,"term":"W1"}`,
			serviceErr: service.ErrPlanNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   shared.CodeNotFound,
		},
		{
			name: "cache down",
			body: `{"courseId":"CPSC110","year":1,"term":"W1"}`,
			serviceErr: &service.InfrastructureError{
				Component: service.ComponentCache,
				Err:       errors.New("badger: DB closed"),
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   shared.CodeInternal,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got service.EntryInput
			svc := &mockPlanService{AddEntryFn: func(ctx context.Context, id uuid.UUID, input service.EntryInput) (*domain.PlanEntry, error) {
				got = input
				if tc.serviceErr != nil {
					return nil, tc.serviceErr
				}
				return domain.NewPlanEntry(id, input.CourseID, input.Year, input.Term, input.Status, 0)
			}}

			rec := doRequest(t, planRouter(svc), http.MethodPost,
				fmt.Sprintf("/api/v1/plans/%s/entries", planID), tc.body)
			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())

			if tc.wantCode == "" {
				var entry domain.PlanEntry
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
				assert.Equal(t, "CPSC110", entry.CourseID)
				assert.Equal(t, domain.EntryStatusPlanned, entry.Status)
				assert.Nil(t, got.Position)
				return
			}
			resp := decodeError(t, rec)
			assert.Equal(t, tc.wantCode, resp.Error)
			if tc.wantMsg != "" {
				assert.Equal(t, tc.wantMsg, resp.Message)
			}
			assert.NotContains(t, rec.Body.String(), "badger")
		})
	}
}

func TestPlanHandler_UpdateEntry(t *testing.T) {
	planID, entryID := uuid.New(), uuid.New()

	var got service.EntryUpdate
	svc := &mockPlanService{UpdateEntryFn: func(ctx context.Context, p, e uuid.UUID, update service.EntryUpdate) (*domain.PlanEntry, error) {
		if e != entryID {
			return nil, service.ErrEntryNotFound
		}
		got = update
		return &domain.PlanEntry{ID: e, PlanID: p}, nil
	}}
	router := planRouter(svc)

	path := fmt.Sprintf("/api/v1/plans/%s/entries/%s", planID, entryID)
	rec := doRequest(t, router, http.MethodPut, path, `{"status":"completed","term":"S"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, got.Status)
	assert.Equal(t, "completed", *got.Status)
	require.NotNil(t, got.Term)
	assert.Equal(t, domain.TermSummer, *got.Term)
	assert.Nil(t, got.Year)

	rec = doRequest(t, router, http.MethodPut, path, `{"position":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPut,
		fmt.Sprintf("/api/v1/plans/%s/entries/%s", planID, uuid.New()), `{"year":2}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Entry not found", decodeError(t, rec).Message)
}

func TestPlanHandler_DeleteEntry(t *testing.T) {
	planID := uuid.New()
	entry, _ := domain.NewPlanEntry(planID, "CPSC110", 1, domain.TermWinter1, "", 0)

	svc := &mockPlanService{DeleteEntryFn: func(ctx context.Context, p, e uuid.UUID) (*domain.PlanEntry, error) {
		return entry, nil
	}}

	rec := doRequest(t, planRouter(svc), http.MethodDelete,
		fmt.Sprintf("/api/v1/plans/%s/entries/%s", planID, entry.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted domain.PlanEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.Equal(t, entry.ID, deleted.ID)
}

func TestPlanHandler_ReorderEntries(t *testing.T) {
	planID := uuid.New()
	first, second := uuid.New(), uuid.New()

	var got []store.EntryPosition
	svc := &mockPlanService{ReorderEntriesFn: func(ctx context.Context, p uuid.UUID, positions []store.EntryPosition) error {
		got = positions
		return nil
	}}
	router := planRouter(svc)
	path := fmt.Sprintf("/api/v1/plans/%s/entries/reorder", planID)

	body := fmt.Sprintf(`{"positions":[{"entryId":%q,"position":1},{"entryId":%q,"position":0}]}`, first, second)
	rec := doRequest(t, router, http.MethodPut, path, body)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Equal(t, []store.EntryPosition{{ID: first, Position: 1}, {ID: second, Position: 0}}, got)

	rec = doRequest(t, router, http.MethodPut, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "positions array is required", decodeError(t, rec).Message)

	rec = doRequest(t, router, http.MethodPut, path, fmt.Sprintf(`{"positions":[{"entryId":%q,"position":-2}]}`, first))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
