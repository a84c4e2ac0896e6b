package prereq

// DefaultCredits is the weight assumed for a completed course whose credits
// are not recorded.
const DefaultCredits = 3.0

// Completed is the set of courses finished so far together with their
// credit weights. The zero value is an empty set. A Completed is never
// modified once built; Extend returns a new value.
type Completed struct {
	credits map[string]float64
}

// NewCompleted builds a set from a course id to credit weight map.
func NewCompleted(credits map[string]float64) Completed {
	c := Completed{credits: make(map[string]float64, len(credits))}
	for id, w := range credits {
		c.credits[id] = w
	}
	return c
}

// Has reports whether courseID is completed.
func (c Completed) Has(courseID string) bool {
	_, ok := c.credits[courseID]
	return ok
}

// Credits returns the weight of a completed course, or DefaultCredits when
// the course has no recorded weight.
func (c Completed) Credits(courseID string) float64 {
	if w, ok := c.credits[courseID]; ok {
		return w
	}
	return DefaultCredits
}

// Total sums the weights of all completed courses.
func (c Completed) Total() float64 {
	var total float64
	for _, w := range c.credits {
		total += w
	}
	return total
}

// Len returns the number of completed courses.
func (c Completed) Len() int {
	return len(c.credits)
}

// Extend returns a new set holding c plus the given completions.
// c itself is left unchanged.
func (c Completed) Extend(more map[string]float64) Completed {
	if len(more) == 0 {
		return c
	}
	next := Completed{credits: make(map[string]float64, len(c.credits)+len(more))}
	for id, w := range c.credits {
		next.credits[id] = w
	}
	for id, w := range more {
		next.credits[id] = w
	}
	return next
}
