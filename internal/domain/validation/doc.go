// Package validation checks a degree plan against course prerequisites and
// per-term credit limits.
//
// The plan's entries are grouped into (year, term) buckets and walked once in
// chronological order. Courses completed in a bucket only count toward the
// prerequisites of later buckets, so a plan's own term placement supplies the
// ordering that "taken before" relies on.
package validation
