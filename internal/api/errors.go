package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/degreeplan-api/internal/api/shared"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/service"
	"github.com/phrazzld/degreeplan-api/internal/store"
)

// clientErrors are input errors whose own text is safe to return.
var clientErrors = []error{
	domain.ErrInvalidTerm,
	domain.ErrInvalidYear,
	domain.ErrInvalidEntryStatus,
	domain.ErrEmptyPlanName,
	domain.ErrEmptyCourseID,
	domain.ErrEmptyPlanID,
	domain.ErrEmptyEntryID,
	domain.ErrEmptyEntryPlanID,
	domain.ErrInvalidID,
	domain.ErrInvalidFormat,
	shared.ErrEmptyBody,
	shared.ErrInvalidJSON,
}

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing internal error types to clients. An unknown course is a bad
// request here; the course lookup endpoint maps it to 404 itself.
func MapErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors

	switch {
	case err == nil:
		return http.StatusOK

	// Infrastructure faults win over whatever they wrap
	case service.IsInfrastructureError(err):
		return http.StatusInternalServerError

	// The request ran out of time or was abandoned
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable

	// Not found errors
	case errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrEntryNotFound),
		errors.Is(err, store.ErrPlanNotFound),
		errors.Is(err, store.ErrEntryNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrDuplicateEntry),
		store.IsDuplicateError(err):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, store.ErrCourseNotFound),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.As(err, &verrs),
		isClientError(err):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

func isClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// GetSafeErrorMessage returns a client-facing message for err that leaks no
// internal detail.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verrs validator.ValidationErrors

	switch {
	case service.IsInfrastructureError(err):
		return "Service temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	case errors.Is(err, context.Canceled):
		return "Request cancelled"
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, store.ErrPlanNotFound):
		return "Plan not found"
	case errors.Is(err, service.ErrEntryNotFound), errors.Is(err, store.ErrEntryNotFound):
		return "Entry not found"
	case errors.Is(err, service.ErrCourseNotFound), errors.Is(err, store.ErrCourseNotFound):
		return "Course not found"
	case errors.Is(err, service.ErrDuplicateEntry), store.IsDuplicateError(err):
		return "Course already exists in this plan"
	case errors.As(err, &verrs):
		return SanitizeValidationError(err)
	}

	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}

	if errors.Is(err, store.ErrInvalidEntity) || errors.Is(err, domain.ErrValidation) {
		return "Invalid request"
	}
	return "An unexpected error occurred"
}

// SanitizeValidationError turns validator failures into a short message
// naming the offending fields, e.g. "invalid fields: term (oneof), year (max)".
func SanitizeValidationError(err error) string {
	fields := shared.FieldErrors(err)
	if len(fields) == 0 {
		return "Validation error"
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s (%s)", name, getValidationTagMessage(fields[name])))
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}

// getValidationTagMessage maps validation tags to user-friendly descriptions
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	case "uuid", "uuid4":
		return "invalid id"
	default:
		return "invalid"
	}
}

// HandleAPIError writes the mapped status and safe message for err. Field
// failures from the validator are included in the body.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" && !service.IsInfrastructureError(err) {
		message = defaultMsg
	}

	var opts []shared.ResponseOption
	if fields := shared.FieldErrors(err); fields != nil {
		opts = append(opts, shared.WithFields(fields))
	}
	if service.IsContextError(err) {
		// Abandoned or slow requests are not server faults.
		opts = append(opts, shared.WithLogLevel(slog.LevelWarn))
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
