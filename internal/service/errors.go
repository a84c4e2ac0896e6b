package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/degreeplan-api/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check them with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrPlanNotFound indicates that the plan does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrEntryNotFound indicates that the plan entry does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrCourseNotFound indicates that a referenced course is not in the catalog.
	// When a new entry references it the API maps this to 400 Bad Request;
	// a course lookup maps it to 404.
	ErrCourseNotFound = errors.New("course not found")

	// ErrDuplicateEntry indicates that the plan already contains the course.
	// API layer should map this to HTTP 409 Conflict.
	ErrDuplicateEntry = errors.New("course already exists in this plan")
)

// ServiceError wraps errors from the service layer with context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "create_entry")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
// Store sentinels are translated to service sentinels and returned without
// wrapping; any other error is wrapped.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrPlanNotFound), errors.Is(err, store.ErrPlanNotFound):
		return ErrPlanNotFound
	case errors.Is(err, ErrEntryNotFound), errors.Is(err, store.ErrEntryNotFound):
		return ErrEntryNotFound
	case errors.Is(err, ErrCourseNotFound), errors.Is(err, store.ErrCourseNotFound):
		return ErrCourseNotFound
	case errors.Is(err, ErrDuplicateEntry), errors.Is(err, store.ErrEntryExists):
		return ErrDuplicateEntry
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// InfrastructureError marks a failure of a collaborator (database, cache or
// job queue) as opposed to a domain error. The service performs no retry.
type InfrastructureError struct {
	// Component names the failing collaborator: "storage", "cache" or "queue".
	Component string
	Err       error
}

// Error implements the error interface for InfrastructureError.
func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Component, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// Infrastructure component names
const (
	ComponentStorage = "storage"
	ComponentCache   = "cache"
	ComponentQueue   = "queue"
)

// infraError leaves context cancellation and deadline errors unwrapped: the
// caller ran out of time, the collaborator did not fail.
func infraError(component string, err error) error {
	if err == nil || IsContextError(err) {
		return err
	}
	return &InfrastructureError{Component: component, Err: err}
}

// IsContextError reports whether err comes from a cancelled or expired
// context.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsInfrastructureError reports whether err is or wraps an InfrastructureError.
func IsInfrastructureError(err error) bool {
	var infra *InfrastructureError
	return errors.As(err, &infra)
}
