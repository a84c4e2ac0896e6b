package validation

import (
	"testing"

	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTimeline_Ordering(t *testing.T) {
	t.Parallel()

	entries := []domain.PlanEntry{
		entry("S2", 2, domain.TermSummer, domain.EntryStatusPlanned),
		entry("W2", 1, domain.TermWinter2, domain.EntryStatusPlanned),
		entry("S1", 1, domain.TermSummer, domain.EntryStatusPlanned),
		entry("W1", 1, domain.TermWinter1, domain.EntryStatusPlanned),
		entry("Y2W1", 2, domain.TermWinter1, domain.EntryStatusPlanned),
	}

	buckets := BuildTimeline(entries)

	var keys []string
	for _, b := range buckets {
		keys = append(keys, b.Key())
	}
	assert.Equal(t, []string{"1:W1", "1:W2", "1:S", "2:W1", "2:S"}, keys)
}

func TestBuildTimeline_GroupsAndOrdersByPosition(t *testing.T) {
	t.Parallel()

	a := entry("A", 1, domain.TermWinter1, domain.EntryStatusPlanned)
	a.Position = 2
	b := entry("B", 1, domain.TermWinter1, domain.EntryStatusPlanned)
	b.Position = 0
	c := entry("C", 1, domain.TermWinter1, domain.EntryStatusPlanned)
	c.Position = 1

	buckets := BuildTimeline([]domain.PlanEntry{a, b, c})

	require.Len(t, buckets, 1)
	require.Len(t, buckets[0].Entries, 3)
	assert.Equal(t, "B", buckets[0].Entries[0].CourseID)
	assert.Equal(t, "C", buckets[0].Entries[1].CourseID)
	assert.Equal(t, "A", buckets[0].Entries[2].CourseID)
}

func TestBuildTimeline_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, BuildTimeline(nil))
}

func TestCreditLimit(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 18.0, CreditLimit(domain.TermWinter1))
	assert.Equal(t, 18.0, CreditLimit(domain.TermWinter2))
	assert.Equal(t, 9.0, CreditLimit(domain.TermSummer))
}
