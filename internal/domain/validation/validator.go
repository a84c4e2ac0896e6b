package validation

import (
	"fmt"
	"time"

	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/domain/prereq"
)

// Catalog maps course ids to course records. Entries whose course is absent
// from the catalog are skipped for prerequisite and credit purposes.
type Catalog map[string]*domain.Course

// NewCatalog indexes courses by id. Nil records are dropped.
func NewCatalog(courses []*domain.Course) Catalog {
	c := make(Catalog, len(courses))
	for _, course := range courses {
		if course != nil {
			c[course.ID] = course
		}
	}
	return c
}

// weights returns the credit weight of every known course.
func (c Catalog) weights() map[string]float64 {
	w := make(map[string]float64, len(c))
	for id, course := range c {
		w[id] = course.Credits
	}
	return w
}

// BucketOutcome is what one bucket contributes to the result.
type BucketOutcome struct {
	Errors   []domain.ValidationError
	Warnings []domain.ValidationWarning
}

// Step checks one bucket against the courses completed in earlier buckets
// and returns the completed set to use for the buckets after it. The
// bucket's own completions are only visible in the returned set.
func Step(prior prereq.Completed, b Bucket, catalog Catalog) (prereq.Completed, BucketOutcome) {
	var out BucketOutcome

	out.Warnings = CheckCreditLoad(b, catalog.weights())

	completions := make(map[string]float64)
	for _, e := range b.Entries {
		course, ok := catalog[e.CourseID]
		if !ok {
			continue
		}

		if e.Status.ChecksPrerequisites() && course.Prerequisites != nil {
			if !prereq.Satisfied(course.Prerequisites, prior) {
				out.Errors = append(out.Errors, domain.ValidationError{
					EntryID:  e.ID,
					CourseID: e.CourseID,
					Message: fmt.Sprintf("Prerequisites not satisfied for %s: %s",
						e.CourseID, prereq.Describe(course.Prerequisites)),
				})
			}
		}

		if e.Status == domain.EntryStatusCompleted {
			completions[e.CourseID] = course.Credits
		}
	}

	return prior.Extend(completions), out
}

// Validate checks a plan's entries against the catalog and returns a new
// result stamped with now. It never fails: unknown courses are skipped and
// unrecognized rules count as unsatisfied.
func Validate(entries []domain.PlanEntry, catalog Catalog, now time.Time) *domain.ValidationResult {
	if len(entries) == 0 {
		return domain.NewValidationResult(nil, nil, now)
	}

	var (
		errs      []domain.ValidationError
		warnings  []domain.ValidationWarning
		completed prereq.Completed
	)
	for _, b := range BuildTimeline(entries) {
		var out BucketOutcome
		completed, out = Step(completed, b, catalog)
		errs = append(errs, out.Errors...)
		warnings = append(warnings, out.Warnings...)
	}

	return domain.NewValidationResult(errs, warnings, now)
}
