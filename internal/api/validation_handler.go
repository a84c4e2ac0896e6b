package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/api/shared"
	"github.com/phrazzld/degreeplan-api/internal/platform/logger"
	"github.com/phrazzld/degreeplan-api/internal/service"
)

// DraftStore keeps a plan's opaque client-side draft state.
type DraftStore interface {
	GetDraft(ctx context.Context, planID uuid.UUID) (json.RawMessage, bool, error)
	SetDraft(ctx context.Context, planID uuid.UUID, draft json.RawMessage) error
}

// PlanLookup reports whether a plan exists.
type PlanLookup interface {
	GetPlan(ctx context.Context, planID uuid.UUID) (*service.PlanDetail, error)
}

// ValidationHandler serves plan validation results and draft state.
type ValidationHandler struct {
	validation service.ValidationService
	plans      PlanLookup
	drafts     DraftStore
	logger     *slog.Logger
}

// NewValidationHandler creates a new ValidationHandler
func NewValidationHandler(
	validation service.ValidationService,
	plans PlanLookup,
	drafts DraftStore,
	logger *slog.Logger,
) *ValidationHandler {
	if validation == nil || plans == nil || drafts == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("validation, plans and drafts are required for ValidationHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ValidationHandler")
	}
	return &ValidationHandler{
		validation: validation,
		plans:      plans,
		drafts:     drafts,
		logger:     logger.With(slog.String("component", "validation_handler")),
	}
}

// Routes mounts the validation and draft endpoints on r.
func (h *ValidationHandler) Routes(r chi.Router) {
	r.Get("/plans/{id}/validate", h.GetValidation)
	r.Get("/plans/{id}/draft", h.GetDraft)
	r.Put("/plans/{id}/draft", h.PutDraft)
}

// GetValidation handles GET /plans/{id}/validate
// A cached result is returned as is; otherwise the plan is validated inline.
func (h *ValidationHandler) GetValidation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	planID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}

	result, cached, err := h.validation.GetValidation(r.Context(), planID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to validate plan")
		return
	}

	log.Debug("served plan validation",
		slog.String("plan_id", planID.String()),
		slog.Bool("cached", cached),
		slog.Bool("valid", result.Valid))
	shared.RespondWithJSON(w, r, http.StatusOK, ValidationResponse{
		ValidationResult: result,
		Cached:           cached,
	})
}

// GetDraft handles GET /plans/{id}/draft
func (h *ValidationHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	planID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}
	if _, err := h.plans.GetPlan(r.Context(), planID); err != nil {
		HandleAPIError(w, r, err, "Failed to load draft")
		return
	}

	draft, found, err := h.drafts.GetDraft(r.Context(), planID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load draft")
		return
	}
	if !found {
		draft = json.RawMessage("null")
	}
	shared.RespondWithJSON(w, r, http.StatusOK, DraftResponse{PlanID: planID, Draft: draft})
}

// PutDraft handles PUT /plans/{id}/draft. The body is stored verbatim.
func (h *ValidationHandler) PutDraft(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	planID, ok := handlePathUUID(w, r, "id", log)
	if !ok {
		return
	}
	if _, err := h.plans.GetPlan(r.Context(), planID); err != nil {
		HandleAPIError(w, r, err, "Failed to save draft")
		return
	}

	var draft json.RawMessage
	if err := shared.DecodeJSON(w, r, &draft); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.drafts.SetDraft(r.Context(), planID, draft); err != nil {
		HandleAPIError(w, r, err, "Failed to save draft")
		return
	}

	log.Debug("draft saved", slog.String("plan_id", planID.String()), slog.Int("bytes", len(draft)))
	w.WriteHeader(http.StatusNoContent)
}
