package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/domain/prereq"
)

// CourseResponse is the JSON form of a catalog course.
type CourseResponse struct {
	ID            string          `json:"id"`
	Dept          string          `json:"dept"`
	Code          string          `json:"code"`
	Title         string          `json:"title"`
	Credits       float64         `json:"credits"`
	Description   *string         `json:"description"`
	Prerequisites prereq.Document `json:"prerequisites"`
	Corequisites  []string        `json:"corequisites"`
	TermsOffered  []domain.Term   `json:"termsOffered"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// CourseListResponse is the response of GET /courses.
type CourseListResponse struct {
	Data       []CourseResponse `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

func courseToResponse(c *domain.Course) CourseResponse {
	coreqs := c.Corequisites
	if coreqs == nil {
		coreqs = []string{}
	}
	terms := c.TermsOffered
	if terms == nil {
		terms = []domain.Term{}
	}
	return CourseResponse{
		ID:            c.ID,
		Dept:          c.Dept,
		Code:          c.Code,
		Title:         c.Title,
		Credits:       c.Credits,
		Description:   c.Description,
		Prerequisites: prereq.Document{Rule: c.Prerequisites},
		Corequisites:  coreqs,
		TermsOffered:  terms,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// CreatePlanRequest is the body of POST /plans.
type CreatePlanRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// UpdatePlanRequest is the body of PUT /plans/{id}.
type UpdatePlanRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// CreateEntryRequest is the body of POST /plans/{id}/entries. Year is a
// pointer so that an absent year is reported as required.
type CreateEntryRequest struct {
	CourseID string      `json:"courseId" validate:"required"`
	Year     *int        `json:"year" validate:"required"`
	Term     domain.Term `json:"term" validate:"required"`
	Status   string      `json:"status"`
	Position *int        `json:"position" validate:"omitempty,gte=0"`
}

// UpdateEntryRequest is the body of PUT /plans/{id}/entries/{entryId}.
type UpdateEntryRequest struct {
	Year     *int         `json:"year"`
	Term     *domain.Term `json:"term"`
	Status   *string      `json:"status"`
	Position *int         `json:"position" validate:"omitempty,gte=0"`
}

// EntryPositionRequest sets the display position of one entry.
type EntryPositionRequest struct {
	EntryID  uuid.UUID `json:"entryId" validate:"required"`
	Position int       `json:"position" validate:"gte=0"`
}

// ReorderRequest is the body of PUT /plans/{id}/entries/reorder.
type ReorderRequest struct {
	Positions []EntryPositionRequest `json:"positions" validate:"dive"`
}

// ValidationResponse is a validation result plus whether it came from the cache.
type ValidationResponse struct {
	*domain.ValidationResult
	Cached bool `json:"cached"`
}

// DraftResponse carries a plan's opaque draft state; Draft is null when none
// is stored.
type DraftResponse struct {
	PlanID uuid.UUID       `json:"planId"`
	Draft  json.RawMessage `json:"draft"`
}
