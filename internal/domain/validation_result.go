package domain

import (
	"time"

	"github.com/google/uuid"
)

// ValidationIssue ties a message to the plan entry and course it concerns.
type ValidationIssue struct {
	EntryID  uuid.UUID `json:"entryId"`
	CourseID string    `json:"courseId"`
	Message  string    `json:"message"`
}

// ValidationError reports an unmet prerequisite. It is a result value, not a Go error.
type ValidationError = ValidationIssue

// ValidationWarning reports a credit overload. Warnings never affect Valid.
type ValidationWarning = ValidationIssue

// ValidationResult is the outcome of one validation run over a plan.
// A result is never mutated after it is produced; a recomputation yields a
// new value.
type ValidationResult struct {
	Valid      bool                `json:"valid"`
	Errors     []ValidationError   `json:"errors"`
	Warnings   []ValidationWarning `json:"warnings"`
	ComputedAt time.Time           `json:"computedAt"`
}

// NewValidationResult builds a result from the collected issues. Valid is
// derived from the error count; nil slices are replaced by empty ones so the
// JSON form always carries arrays.
func NewValidationResult(
	errs []ValidationError,
	warnings []ValidationWarning,
	computedAt time.Time,
) *ValidationResult {
	if errs == nil {
		errs = []ValidationError{}
	}
	if warnings == nil {
		warnings = []ValidationWarning{}
	}
	return &ValidationResult{
		Valid:      len(errs) == 0,
		Errors:     errs,
		Warnings:   warnings,
		ComputedAt: computedAt.UTC(),
	}
}
