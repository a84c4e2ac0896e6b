package store

import (
	"errors"
	"fmt"
)

// Store implementations translate driver errors into these so callers can
// branch with errors.Is without knowing the backend.
var (
	ErrNotFound  = errors.New("entity not found")
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity covers rows the database refused through a foreign
	// key, check or not-null constraint. The specific domain error, when
	// known, is wrapped alongside it.
	ErrInvalidEntity = errors.New("invalid entity")

	ErrCourseNotFound = fmt.Errorf("%w: course", ErrNotFound)
	ErrPlanNotFound   = fmt.Errorf("%w: plan", ErrNotFound)
	ErrEntryNotFound  = fmt.Errorf("%w: plan entry", ErrNotFound)
	ErrTaskNotFound   = fmt.Errorf("%w: task", ErrNotFound)

	// ErrEntryExists means the plan already schedules the course.
	ErrEntryExists = fmt.Errorf("%w: course already in plan", ErrDuplicate)
)

// IsNotFoundError matches ErrNotFound and every entity-specific variant.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError matches ErrDuplicate and ErrEntryExists.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
