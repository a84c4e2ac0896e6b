package prereq

// Kind is the discriminator stored in a rule's "type" field.
type Kind string

// Rule kinds
const (
	KindCourse     Kind = "course"
	KindAllOf      Kind = "all_of"
	KindOneOf      Kind = "one_of"
	KindMinCredits Kind = "min_credits"
)

// Rule is a node of a prerequisite rule tree. The set of implementations is
// closed to this package.
type Rule interface {
	Kind() Kind
	isRule()
}

// CourseRule is satisfied when CourseID has been completed.
// MinGrade is carried through storage but not evaluated.
type CourseRule struct {
	CourseID string
	MinGrade *float64
}

// AllOf is satisfied when every child rule is satisfied.
type AllOf struct {
	Rules []Rule
}

// OneOf is satisfied when at least MinCount children are satisfied.
// A MinCount below 1 means 1.
type OneOf struct {
	Rules    []Rule
	MinCount int
}

// MinCredits is satisfied when the credits of completed courses reach
// Credits. When From is non-nil only courses in From count.
type MinCredits struct {
	Credits float64
	From    []string
}

// Unknown holds a rule whose type this package does not recognize.
// It always evaluates as unsatisfied.
type Unknown struct {
	Type string
	Raw  []byte
}

func (CourseRule) Kind() Kind { return KindCourse }
func (AllOf) Kind() Kind      { return KindAllOf }
func (OneOf) Kind() Kind      { return KindOneOf }
func (MinCredits) Kind() Kind { return KindMinCredits }
func (u Unknown) Kind() Kind  { return Kind(u.Type) }

func (CourseRule) isRule() {}
func (AllOf) isRule()      {}
func (OneOf) isRule()      {}
func (MinCredits) isRule() {}
func (Unknown) isRule()    {}

// Course is shorthand for a CourseRule without a grade requirement.
func Course(courseID string) CourseRule {
	return CourseRule{CourseID: courseID}
}

// All is shorthand for an AllOf rule.
func All(rules ...Rule) AllOf {
	return AllOf{Rules: rules}
}

// Any is shorthand for a OneOf rule with the given threshold.
func Any(minCount int, rules ...Rule) OneOf {
	return OneOf{Rules: rules, MinCount: minCount}
}

// threshold returns the effective MinCount.
func (r OneOf) threshold() int {
	if r.MinCount < 1 {
		return 1
	}
	return r.MinCount
}

// CourseIDs returns every course id referenced by the tree, in first-seen
// order and without duplicates.
func CourseIDs(rule Rule) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	var walk func(Rule)
	walk = func(r Rule) {
		switch r := r.(type) {
		case CourseRule:
			add(r.CourseID)
		case AllOf:
			for _, child := range r.Rules {
				walk(child)
			}
		case OneOf:
			for _, child := range r.Rules {
				walk(child)
			}
		case MinCredits:
			for _, id := range r.From {
				add(id)
			}
		}
	}
	if rule != nil {
		walk(rule)
	}
	return ids
}
