// Package prereq models prerequisite rules as a closed set of variants and
// evaluates them against the courses a student has already completed.
//
// A rule tree is persisted as JSON with a "type" discriminator:
//
//	{"type": "course", "courseId": "CPSC110"}
//	{"type": "all_of", "rules": [...]}
//	{"type": "one_of", "rules": [...], "minCount": 2}
//	{"type": "min_credits", "minCredits": 12, "from": ["CPSC110", "CPSC121"]}
//
// Evaluation is pure and total: a variant the evaluator does not recognize is
// treated as unsatisfied.
package prereq
