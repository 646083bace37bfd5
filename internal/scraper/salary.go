// Package scraper implements employer and vacancy fetching from the hh.ru API
// and the normalisation applied before vacancies are stored.
package scraper

import (
	"math"

	"jobmate/vacancy-loader/internal/model"
)

// NormalizeSalary collapses a salary range into one comparable value.
//
//	nil / no bounds  → nil (never coerced to zero)
//	from and to      → round((from+to)/2), halves rounded away from zero
//	only one bound   → that bound
//	outside int32    → nil
func NormalizeSalary(s *model.Salary) *int {
	if s == nil {
		return nil
	}

	var v float64
	switch {
	case s.From != nil && s.To != nil:
		v = (*s.From + *s.To) / 2
	case s.From != nil:
		v = *s.From
	case s.To != nil:
		v = *s.To
	default:
		return nil
	}

	v = math.Round(v)
	if math.IsNaN(v) || v < 0 || v > math.MaxInt32 {
		return nil
	}
	n := int(v)
	return &n
}
