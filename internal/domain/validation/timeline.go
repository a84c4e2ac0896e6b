package validation

import (
	"fmt"
	"sort"

	"github.com/phrazzld/degreeplan-api/internal/domain"
)

// Bucket holds the entries of one (year, term) slot.
type Bucket struct {
	Year    int
	Term    domain.Term
	Entries []domain.PlanEntry
}

// Key returns the "year:term" label used in messages, e.g. "2:W1".
func (b Bucket) Key() string {
	return fmt.Sprintf("%d:%s", b.Year, b.Term)
}

// before reports whether slot (y1, t1) precedes (y2, t2).
func before(y1 int, t1 domain.Term, y2 int, t2 domain.Term) bool {
	if y1 != y2 {
		return y1 < y2
	}
	return t1.Rank() < t2.Rank()
}

// BuildTimeline groups entries into buckets ordered by year, then by term
// rank (W1 < W2 < S). Entries inside a bucket are ordered by Position; that
// order is for display only.
func BuildTimeline(entries []domain.PlanEntry) []Bucket {
	type slot struct {
		year int
		term domain.Term
	}

	index := make(map[slot]int)
	var buckets []Bucket
	for _, e := range entries {
		key := slot{year: e.Year, term: e.Term}
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Year: e.Year, Term: e.Term})
		}
		buckets[i].Entries = append(buckets[i].Entries, e)
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return before(buckets[i].Year, buckets[i].Term, buckets[j].Year, buckets[j].Term)
	})
	for i := range buckets {
		es := buckets[i].Entries
		sort.SliceStable(es, func(a, b int) bool {
			return es[a].Position < es[b].Position
		})
	}

	return buckets
}
