package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseCredits(t *testing.T) {
	t.Parallel()

	tests := map[string]float64{
		"4.0":  4,
		"1.5":  1.5,
		"0":    0,
		"":     DefaultCredits,
		"abc":  DefaultCredits,
		"NaN":  DefaultCredits,
		"+Inf": DefaultCredits,
		" 6 ":  6,
	}

	for raw, want := range tests {
		assert.Equal(t, want, ParseCredits(raw), "ParseCredits(%q)", raw)
	}
}

func TestNormalizeCourseID(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "CPSC110", NormalizeCourseID(" cpsc110\t"))
}

func TestCourse_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, (&Course{ID: "CPSC110", Title: "Computation"}).Validate())
	assert.ErrorIs(t, (&Course{Title: "x"}).Validate(), ErrEmptyCourseID)
	assert.ErrorIs(t, (&Course{ID: "CPSC110"}).Validate(), ErrEmptyCourseTitle)
}

func TestNewValidationResult(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("PST", -8*3600)
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, loc)

	empty := NewValidationResult(nil, nil, at)
	assert.True(t, empty.Valid)
	assert.NotNil(t, empty.Errors)
	assert.NotNil(t, empty.Warnings)
	assert.Equal(t, time.UTC, empty.ComputedAt.Location())

	withWarning := NewValidationResult(nil, []ValidationWarning{{CourseID: "A"}}, at)
	assert.True(t, withWarning.Valid)

	withError := NewValidationResult([]ValidationError{{CourseID: "B"}}, nil, at)
	assert.False(t, withError.Valid)
}
