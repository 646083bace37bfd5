// Package model defines shared data structures for the vacancy loader.
package model

import (
	"math"

	"github.com/tidwall/gjson"
)

// Employer is an employer profile as returned by GET /employers/{id}.
// ID is the provider-assigned identifier; it never reaches the database,
// where employers get a surrogate company_id at insert time.
type Employer struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	URL          string `json:"alternate_url"`
	VacanciesURL string `json:"vacancies_url"`
}

// RawVacancy mirrors a single item of the paginated vacancies listing.
type RawVacancy struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	AlternateURL string      `json:"alternate_url"`
	Snippet      Snippet     `json:"snippet"`
	Experience   *Experience `json:"experience"`
	Salary       *Salary     `json:"salary"`
}

// Snippet holds the short requirement/responsibility excerpts of a vacancy.
// Both fields may contain <highlighttext> markup.
type Snippet struct {
	Requirement    *string `json:"requirement"`
	Responsibility *string `json:"responsibility"`
}

// Experience is the required experience level of a vacancy.
type Experience struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ExperienceName returns the experience label or nil when absent.
func (v RawVacancy) ExperienceName() *string {
	if v.Experience == nil || v.Experience.Name == "" {
		return nil
	}
	name := v.Experience.Name
	return &name
}

// Salary is a possibly open salary range. Either bound may be missing.
type Salary struct {
	From     *float64 `json:"from"`
	To       *float64 `json:"to"`
	Currency string   `json:"currency"`
}

// UnmarshalJSON decodes a salary leniently: a bound that is not a number in
// 0..math.MaxInt32 (the range of the salary column) is treated as missing
// instead of failing the whole vacancies page.
func (s *Salary) UnmarshalJSON(data []byte) error {
	*s = Salary{}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return nil
	}
	s.From = bound(res.Get("from"))
	s.To = bound(res.Get("to"))
	if cur := res.Get("currency"); cur.Type == gjson.String {
		s.Currency = cur.String()
	}
	return nil
}

func bound(r gjson.Result) *float64 {
	if r.Type != gjson.Number {
		return nil
	}
	v := r.Float()
	if v < 0 || v > math.MaxInt32 {
		return nil
	}
	return &v
}

// EmployerAggregate is one fetched employer with its fetched vacancies,
// prior to persistence.
type EmployerAggregate struct {
	Employer  Employer
	Vacancies []RawVacancy
}

// ─── Query results ────────────────────────────────────────────────────────────

// CompanyVacancyCount is a row of the companies/vacancy-count report.
type CompanyVacancyCount struct {
	CompanyName  string
	VacancyCount int64
}

// VacancyListing is a vacancy joined with its employer name.
type VacancyListing struct {
	Title       string
	CompanyName string
	Salary      *int64
	Link        string
}

// CompanyAverageSalary is the rounded average salary of one employer.
// AverageSalary is nil when none of the employer's vacancies has a salary.
type CompanyAverageSalary struct {
	CompanyName   string
	AverageSalary *int64
}

// Vacancy is a full row of the vacancies table.
type Vacancy struct {
	ID          int64
	CompanyID   int64
	Title       string
	Salary      *int64
	Link        string
	Description *string
	Experience  *string
}
