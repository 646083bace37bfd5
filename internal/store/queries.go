package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/vacancy-loader/internal/model"
)

// QueryService runs the read-only reports over a loaded database.
type QueryService struct {
	pool *pgxpool.Pool
}

// NewQueryService constructs a QueryService.
func NewQueryService(pool *pgxpool.Pool) *QueryService {
	return &QueryService{pool: pool}
}

const vacancyColumns = `vacancy_id, company_id, title_vacancy, salary, link, description, experience`

// CompaniesAndVacancyCounts lists every employer with at least one vacancy
// and the number of its vacancies.
func (s *QueryService) CompaniesAndVacancyCounts(ctx context.Context) ([]model.CompanyVacancyCount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT company_name, COUNT(vacancy_id)
		 FROM employers
		 JOIN vacancies USING (company_id)
		 GROUP BY company_name
		 ORDER BY company_name`,
	)
	if err != nil {
		return nil, &QueryError{Op: "companiesAndVacancyCounts", Err: err}
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.CompanyVacancyCount])
	if err != nil {
		return nil, &QueryError{Op: "companiesAndVacancyCounts", Err: err}
	}
	return out, nil
}

// AllVacancies lists every vacancy with its employer name, salary and link.
func (s *QueryService) AllVacancies(ctx context.Context) ([]model.VacancyListing, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT title_vacancy, company_name, salary, link
		 FROM vacancies
		 JOIN employers USING (company_id)
		 ORDER BY company_name, vacancy_id`,
	)
	if err != nil {
		return nil, &QueryError{Op: "allVacancies", Err: err}
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.VacancyListing])
	if err != nil {
		return nil, &QueryError{Op: "allVacancies", Err: err}
	}
	return out, nil
}

// AverageSalaryByCompany returns the rounded mean of each employer's
// non-null salaries. AverageSalary is nil for employers without any.
func (s *QueryService) AverageSalaryByCompany(ctx context.Context) ([]model.CompanyAverageSalary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT company_name, ROUND(AVG(salary))::bigint
		 FROM employers
		 JOIN vacancies USING (company_id)
		 GROUP BY company_name
		 ORDER BY company_name`,
	)
	if err != nil {
		return nil, &QueryError{Op: "averageSalaryByCompany", Err: err}
	}
	defer rows.Close()

	out := make([]model.CompanyAverageSalary, 0)
	for rows.Next() {
		var r model.CompanyAverageSalary
		if err := rows.Scan(&r.CompanyName, &r.AverageSalary); err != nil {
			return nil, &QueryError{Op: "averageSalaryByCompany", Err: fmt.Errorf("scan: %w", err)}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Op: "averageSalaryByCompany", Err: err}
	}
	return out, nil
}

// VacanciesAboveAverageSalary returns vacancies paid more than the average
// salary of all vacancies (not the employer's own average).
func (s *QueryService) VacanciesAboveAverageSalary(ctx context.Context) ([]model.Vacancy, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+vacancyColumns+`
		 FROM vacancies
		 WHERE salary > (SELECT AVG(salary) FROM vacancies)
		 ORDER BY salary DESC, vacancy_id`,
	)
	if err != nil {
		return nil, &QueryError{Op: "vacanciesAboveAverageSalary", Err: err}
	}
	out, err := scanVacancies(rows)
	if err != nil {
		return nil, &QueryError{Op: "vacanciesAboveAverageSalary", Err: err}
	}
	return out, nil
}

// VacanciesByKeyword returns vacancies whose title contains keyword,
// case-insensitively. The keyword is matched literally: LIKE wildcards in it
// have no special meaning.
func (s *QueryService) VacanciesByKeyword(ctx context.Context, keyword string) ([]model.Vacancy, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, &QueryError{Op: "vacanciesByKeyword", Err: ErrEmptyKeyword}
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+vacancyColumns+`
		 FROM vacancies
		 WHERE title_vacancy ILIKE $1 ESCAPE '\'
		 ORDER BY vacancy_id`,
		"%"+escapeLike(keyword)+"%",
	)
	if err != nil {
		return nil, &QueryError{Op: "vacanciesByKeyword", Err: err}
	}
	out, err := scanVacancies(rows)
	if err != nil {
		return nil, &QueryError{Op: "vacanciesByKeyword", Err: err}
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike quotes the LIKE metacharacters of s.
func escapeLike(s string) string { return likeEscaper.Replace(s) }

func scanVacancies(rows pgx.Rows) ([]model.Vacancy, error) {
	defer rows.Close()

	out := make([]model.Vacancy, 0)
	for rows.Next() {
		var v model.Vacancy
		if err := rows.Scan(
			&v.ID, &v.CompanyID, &v.Title, &v.Salary,
			&v.Link, &v.Description, &v.Experience,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
