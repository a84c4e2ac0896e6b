package validation

import (
	"fmt"

	"github.com/phrazzld/degreeplan-api/internal/domain"
	"github.com/phrazzld/degreeplan-api/internal/domain/prereq"
)

// Credit limits per term
const (
	CreditLimitRegular = 18.0
	CreditLimitSummer  = 9.0
)

// CreditLimit returns the maximum credit load for a term.
func CreditLimit(term domain.Term) float64 {
	if term.IsSummer() {
		return CreditLimitSummer
	}
	return CreditLimitRegular
}

// BucketCredits sums the weights of the bucket's entries. Entries whose
// course has no weight in weights are left out of the sum.
func BucketCredits(b Bucket, weights map[string]float64) float64 {
	var total float64
	for _, e := range b.Entries {
		if w, ok := weights[e.CourseID]; ok {
			total += w
		}
	}
	return total
}

// CheckCreditLoad returns one warning per entry of the bucket when its total
// credits strictly exceed the term limit, and nil otherwise.
func CheckCreditLoad(b Bucket, weights map[string]float64) []domain.ValidationWarning {
	total := BucketCredits(b, weights)
	limit := CreditLimit(b.Term)
	if total <= limit {
		return nil
	}

	msg := fmt.Sprintf("Term %s has %s credits, exceeding the %s-credit limit",
		b.Key(), prereq.FormatCredits(total), prereq.FormatCredits(limit))

	warnings := make([]domain.ValidationWarning, 0, len(b.Entries))
	for _, e := range b.Entries {
		warnings = append(warnings, domain.ValidationWarning{
			EntryID:  e.ID,
			CourseID: e.CourseID,
			Message:  msg,
		})
	}
	return warnings
}
