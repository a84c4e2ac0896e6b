package prereq

// Satisfied reports whether rule holds given the completed courses.
//
// A nil rule is satisfied. Any variant not handled below, including Unknown,
// is unsatisfied so that evaluation never fails.
func Satisfied(rule Rule, completed Completed) bool {
	if rule == nil {
		return true
	}

	switch r := rule.(type) {
	case CourseRule:
		return completed.Has(r.CourseID)

	case AllOf:
		for _, child := range r.Rules {
			if !Satisfied(child, completed) {
				return false
			}
		}
		return true

	case OneOf:
		need := r.threshold()
		count := 0
		for _, child := range r.Rules {
			if Satisfied(child, completed) {
				count++
				if count >= need {
					return true
				}
			}
		}
		return false

	case MinCredits:
		return earnedCredits(r, completed) >= r.Credits

	default:
		return false
	}
}

// earnedCredits sums the credits that count toward a MinCredits rule.
func earnedCredits(r MinCredits, completed Completed) float64 {
	if r.From == nil {
		return completed.Total()
	}

	var total float64
	for _, id := range r.From {
		if completed.Has(id) {
			total += completed.Credits(id)
		}
	}
	return total
}
