package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Term is one of the three fixed term symbols within an academic year.
type Term string

// Possible term values, listed in chronological order within a year.
const (
	TermWinter1 Term = "W1"
	TermWinter2 Term = "W2"
	TermSummer  Term = "S"
)

// Year bounds for plan entries
const (
	MinPlanYear = 1
	MaxPlanYear = 5
)

// Rank returns the chronological position of the term within a year:
// W1 (0) < W2 (1) < S (2). Unknown symbols rank with W1.
func (t Term) Rank() int {
	switch t {
	case TermWinter2:
		return 1
	case TermSummer:
		return 2
	default:
		return 0
	}
}

// IsSummer reports whether t is the summer term.
func (t Term) IsSummer() bool {
	return t == TermSummer
}

// IsValid reports whether t is one of the known term symbols.
func (t Term) IsValid() bool {
	switch t {
	case TermWinter1, TermWinter2, TermSummer:
		return true
	default:
		return false
	}
}

// EntryStatus is the completion status of a plan entry.
type EntryStatus string

// Possible entry status values
const (
	EntryStatusPlanned    EntryStatus = "planned"
	EntryStatusInProgress EntryStatus = "in_progress"
	EntryStatusCompleted  EntryStatus = "completed"
	EntryStatusFailed     EntryStatus = "failed"
)

// IsValid reports whether s is a recognized entry status.
func (s EntryStatus) IsValid() bool {
	switch s {
	case EntryStatusPlanned, EntryStatusInProgress, EntryStatusCompleted, EntryStatusFailed:
		return true
	default:
		return false
	}
}

// IsPending reports whether the course is planned or being taken.
func (s EntryStatus) IsPending() bool {
	return s == EntryStatusPlanned || s == EntryStatusInProgress
}

// ChecksPrerequisites reports whether an entry with this status must have
// its prerequisites met. A failed course is treated like a pending one.
func (s EntryStatus) ChecksPrerequisites() bool {
	return s.IsPending() || s == EntryStatusFailed
}

// ParseEntryStatus returns the status for raw, defaulting to planned for an
// empty or unrecognized value.
func ParseEntryStatus(raw string) EntryStatus {
	s := EntryStatus(strings.TrimSpace(raw))
	if !s.IsValid() {
		return EntryStatusPlanned
	}
	return s
}

// Plan validation errors
var (
	ErrEmptyPlanID   = errors.New("plan ID cannot be empty")
	ErrEmptyPlanName = errors.New("plan name cannot be empty")
)

// Plan is a named degree plan owning a set of entries.
type Plan struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewPlan creates a new Plan with a fresh ID and timestamps.
// The name is trimmed; an empty name is rejected.
func NewPlan(name string, description *string) (*Plan, error) {
	now := time.Now().UTC()
	plan := &Plan{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}

	return plan, nil
}

// Validate checks if the Plan has valid data.
func (p *Plan) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyPlanID
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyPlanName
	}
	return nil
}

// Plan entry validation errors
var (
	ErrEmptyEntryID     = errors.New("entry ID cannot be empty")
	ErrEmptyEntryPlanID = errors.New("entry plan ID cannot be empty")
)

// PlanEntry places one course of a plan in a (year, term) slot.
// Position only orders entries for display inside a term.
type PlanEntry struct {
	ID        uuid.UUID   `json:"id"`
	PlanID    uuid.UUID   `json:"planId"`
	CourseID  string      `json:"courseId"`
	Year      int         `json:"year"`
	Term      Term        `json:"term"`
	Status    EntryStatus `json:"status"`
	Position  int         `json:"position"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// NewPlanEntry creates a validated entry with a fresh ID. The course ID is
// normalized and an unknown status falls back to planned.
func NewPlanEntry(
	planID uuid.UUID,
	courseID string,
	year int,
	term Term,
	status string,
	position int,
) (*PlanEntry, error) {
	now := time.Now().UTC()
	entry := &PlanEntry{
		ID:        uuid.New(),
		PlanID:    planID,
		CourseID:  NormalizeCourseID(courseID),
		Year:      year,
		Term:      term,
		Status:    ParseEntryStatus(status),
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the PlanEntry has valid data.
func (e *PlanEntry) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEmptyEntryID
	}
	if e.PlanID == uuid.Nil {
		return ErrEmptyEntryPlanID
	}
	if strings.TrimSpace(e.CourseID) == "" {
		return ErrEmptyCourseID
	}
	if e.Year < MinPlanYear || e.Year > MaxPlanYear {
		return ErrInvalidYear
	}
	if !e.Term.IsValid() {
		return ErrInvalidTerm
	}
	if !e.Status.IsValid() {
		return ErrInvalidEntryStatus
	}
	return nil
}
