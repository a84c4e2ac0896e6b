package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/degreeplan-api/internal/domain/prereq"
)

// DefaultCredits is the credit weight used when a course's credits are
// absent or cannot be parsed.
const DefaultCredits = 3.0

// Course validation errors
var (
	ErrEmptyCourseID    = errors.New("course ID cannot be empty")
	ErrEmptyCourseTitle = errors.New("course title cannot be empty")
)

// Course is a catalog entry. Prerequisites is nil when the course has no
// prerequisite rule.
type Course struct {
	ID            string      `json:"id"`
	Dept          string      `json:"dept"`
	Code          string      `json:"code"`
	Title         string      `json:"title"`
	Credits       float64     `json:"credits"`
	Description   *string     `json:"description"`
	Prerequisites prereq.Rule `json:"-"`
	Corequisites  []string    `json:"corequisites"`
	TermsOffered  []Term      `json:"termsOffered"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Validate checks if the Course has valid data.
func (c *Course) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyCourseID
	}
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyCourseTitle
	}
	return nil
}

// ParseCredits converts a stored decimal credit value to a float.
// Empty or unparseable input yields DefaultCredits.
func ParseCredits(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultCredits
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultCredits
	}
	return v
}

// NormalizeCourseID upper-cases and trims a course identifier, e.g. "cpsc110 " -> "CPSC110".
func NormalizeCourseID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
