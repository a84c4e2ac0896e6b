package store

import (
	"context"

	"github.com/phrazzld/degreeplan-api/internal/domain"
)

// Course list paging bounds
const (
	DefaultCourseLimit = 20
	MaxCourseLimit     = 100
)

// CourseFilter narrows a catalog listing. Zero values mean "no filter".
type CourseFilter struct {
	Dept   string
	Level  string // first digit of the course code, e.g. "3" for 3xx courses
	Query  string // case-insensitive match on id or title
	Offset int
	Limit  int
}

// Normalize clamps Limit to [1, MaxCourseLimit] (DefaultCourseLimit when
// unset) and Offset to a non-negative value.
func (f CourseFilter) Normalize() CourseFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultCourseLimit
	}
	if f.Limit > MaxCourseLimit {
		f.Limit = MaxCourseLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// CourseStore provides read access to the course catalog. The catalog is
// seeded out of band; the service never writes to it.
type CourseStore interface {
	// GetByID retrieves a course by its identifier.
	// Returns ErrCourseNotFound if the course does not exist.
	GetByID(ctx context.Context, id string) (*domain.Course, error)

	// GetByIDs retrieves every course whose id is in ids. Unknown ids are
	// silently absent from the result.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Course, error)

	// List returns one page of courses matching filter, ordered by id, and
	// the total number of matches.
	List(ctx context.Context, filter CourseFilter) ([]*domain.Course, int, error)
}
