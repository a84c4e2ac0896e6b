package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/degreeplan-api/internal/api/shared"
	"github.com/phrazzld/degreeplan-api/internal/platform/logger"
	"github.com/phrazzld/degreeplan-api/internal/service"
	"github.com/phrazzld/degreeplan-api/internal/store"
)

// PlanHandler handles plan and plan entry requests
type PlanHandler struct {
	plans  service.PlanService
	logger *slog.Logger
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(plans service.PlanService, logger *slog.Logger) *PlanHandler {
	if plans == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("plans cannot be nil for PlanHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for PlanHandler")
	}
	return &PlanHandler{
		plans:  plans,
		logger: logger.With(slog.String("component", "plan_handler")),
	}
}

// Routes mounts the plan and entry endpoints on r.
func (h *PlanHandler) Routes(r chi.Router) {
	r.Get("/plans", h.ListPlans)
	r.Post("/plans", h.CreatePlan)
	r.Get("/plans/{id}", h.GetPlan)
	r.Put("/plans/{id}", h.UpdatePlan)
	r.Delete("/plans/{id}", h.DeletePlan)

	r.Post("/plans/{id}/entries", h.CreateEntry)
	// registered before the {entryId} route; chi prefers static segments anyway
	r.Put("/plans/{id}/entries/reorder", h.ReorderEntries)
	r.Put("/plans/{id}/entries/{entryId}", h.UpdateEntry)
	r.Delete("/plans/{id}/entries/{entryId}", h.DeleteEntry)
}

// ListPlans handles GET /plans
func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListPlans(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list plans")
		return
	}
	if plans == nil {
		plans = []store.PlanSummary{}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, plans)
}

// CreatePlan handles POST /plans
func (h *PlanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreatePlanRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "name is required", err,
			shared.WithFields(shared.FieldErrors(err)))
		return
	}

	plan, err := h.plans.CreatePlan(r.Context(), req.Name, req.Description)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create plan")
		return
	}

	log.Info("plan created", slog.String("plan_id", plan.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, plan)
}

// GetPlan handles GET /plans/{id}
// Entries are grouped by year, then by term.
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	planID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	detail, err := h.plans.GetPlan(r.Context(), planID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get plan")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, detail)
}

// UpdatePlan handles PUT /plans/{id}
func (h *PlanHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	planID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req UpdatePlanRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	_, err := h.plans.UpdatePlan(r.Context(), planID, service.PlanUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update plan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeletePlan handles DELETE /plans/{id} and returns the deleted plan.
func (h *PlanHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	planID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	plan, err := h.plans.DeletePlan(r.Context(), planID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete plan")
		return
	}

	log.Info("plan deleted", slog.String("plan_id", planID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, plan)
}

// CreateEntry handles POST /plans/{id}/entries
func (h *PlanHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	planID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req CreateEntryRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
			"courseId, year, and term are required", err,
			shared.WithFields(shared.FieldErrors(err)))
		return
	}

	entry, err := h.plans.AddEntry(r.Context(), planID, service.EntryInput{
		CourseID: req.CourseID,
		Year:     *req.Year,
		Term:     req.Term,
		Status:   req.Status,
		Position: req.Position,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add entry")
		return
	}

	log.Info("entry created",
		slog.String("plan_id", planID.String()),
		slog.String("entry_id", entry.ID.String()),
		slog.String("course_id", entry.CourseID))
	shared.RespondWithJSON(w, r, http.StatusCreated, entry)
}

// UpdateEntry handles PUT /plans/{id}/entries/{entryId}
func (h *PlanHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	planID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}
	entryID, ok := handlePathUUID(w, r, "entryId", log)
	if !ok {
		return
	}

	var req UpdateEntryRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	_, err := h.plans.UpdateEntry(r.Context(), planID, entryID, service.EntryUpdate{
		Year:     req.Year,
		Term:     req.Term,
		Status:   req.Status,
		Position: req.Position,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEntry handles DELETE /plans/{id}/entries/{entryId} and returns the
// deleted entry.
func (h *PlanHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	planID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}
	entryID, ok := handlePathUUID(w, r, "entryId", log)
	if !ok {
		return
	}

	entry, err := h.plans.DeleteEntry(r.Context(), planID, entryID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete entry")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, entry)
}

// ReorderEntries handles PUT /plans/{id}/entries/reorder
func (h *PlanHandler) ReorderEntries(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	planID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req ReorderRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if req.Positions == nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "positions array is required")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	positions := make([]store.EntryPosition, 0, len(req.Positions))
	for _, p := range req.Positions {
		positions = append(positions, store.EntryPosition{ID: p.EntryID, Position: p.Position})
	}

	if err := h.plans.ReorderEntries(r.Context(), planID, positions); err != nil {
		HandleAPIError(w, r, err, "Failed to reorder entries")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
