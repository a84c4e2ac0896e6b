package prereq

import (
	"strconv"
	"strings"
)

// Describe renders a rule tree as a short human-readable string, e.g.
// "all of [CPSC121, one of [MATH100, MATH180]]".
func Describe(rule Rule) string {
	if rule == nil {
		return "none"
	}

	switch r := rule.(type) {
	case CourseRule:
		return r.CourseID
	case AllOf:
		return "all of [" + describeList(r.Rules) + "]"
	case OneOf:
		if r.threshold() > 1 {
			return strconv.Itoa(r.threshold()) + " of [" + describeList(r.Rules) + "]"
		}
		return "one of [" + describeList(r.Rules) + "]"
	case MinCredits:
		s := FormatCredits(r.Credits) + " credits"
		if r.From != nil {
			s += " from [" + strings.Join(r.From, ", ") + "]"
		}
		return s
	case Unknown:
		return "unrecognized rule " + strconv.Quote(r.Type)
	default:
		return "unrecognized rule"
	}
}

func describeList(rules []Rule) string {
	parts := make([]string, len(rules))
	for i, r := range rules {
		parts[i] = Describe(r)
	}
	return strings.Join(parts, ", ")
}

// FormatCredits prints a credit amount without trailing zeros: 12, 10.5.
func FormatCredits(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
