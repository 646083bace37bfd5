package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/vacancy-loader/internal/model"
	"jobmate/vacancy-loader/internal/scraper"
)

const insertEmployer = `
	INSERT INTO employers (company_name, company_url)
	VALUES ($1, $2)
	RETURNING company_id`

const insertVacancy = `
	INSERT INTO vacancies
	       (vacancy_id, company_id, title_vacancy, salary, link, description, experience)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// LoadStats summarises a successful load.
type LoadStats struct {
	Employers int
	Vacancies int
}

// Loader bulk-inserts fetched aggregates.
type Loader struct {
	pool *pgxpool.Pool
}

// NewLoader constructs a Loader.
func NewLoader(pool *pgxpool.Pool) *Loader {
	return &Loader{pool: pool}
}

// Load inserts every employer and its vacancies in one transaction. On any
// failure the transaction is rolled back, nothing is persisted, and a
// *LoadError is returned.
func (l *Loader) Load(ctx context.Context, aggs []model.EmployerAggregate) (LoadStats, error) {
	var stats LoadStats

	err := pgx.BeginFunc(ctx, l.pool, func(tx pgx.Tx) error {
		for _, agg := range aggs {
			n, err := insertAggregate(ctx, tx, agg)
			if err != nil {
				return err
			}
			stats.Employers++
			stats.Vacancies += n
		}
		return nil
	})
	if err != nil {
		var le *LoadError
		if !errors.As(err, &le) {
			le = &LoadError{Err: err}
		}
		return LoadStats{}, le
	}

	slog.Info("load committed", "employers", stats.Employers, "vacancies", stats.Vacancies)
	return stats, nil
}

// insertAggregate writes one employer row, then queues its vacancies in a
// single batch bound to the returned company_id.
func insertAggregate(ctx context.Context, tx pgx.Tx, agg model.EmployerAggregate) (int, error) {
	emp := agg.Employer

	var companyID int64
	if err := tx.QueryRow(ctx, insertEmployer, emp.Name, emp.URL).Scan(&companyID); err != nil {
		return 0, &LoadError{EmployerID: emp.ID, Err: fmt.Errorf("insert employer: %w", err)}
	}

	if len(agg.Vacancies) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, v := range agg.Vacancies {
		vacancyID, err := strconv.ParseInt(v.ID, 10, 32)
		if err != nil {
			return 0, &LoadError{EmployerID: emp.ID, VacancyID: v.ID, Err: fmt.Errorf("vacancy id is not an integer: %w", err)}
		}
		batch.Queue(insertVacancy,
			vacancyID,
			companyID,
			v.Name,
			scraper.NormalizeSalary(v.Salary),
			v.AlternateURL,
			scraper.CleanSnippet(v.Snippet.Responsibility),
			v.ExperienceName(),
		)
	}

	br := tx.SendBatch(ctx, batch)
	for _, v := range agg.Vacancies {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return 0, &LoadError{EmployerID: emp.ID, VacancyID: v.ID, Err: fmt.Errorf("insert vacancy: %w", err)}
		}
	}
	if err := br.Close(); err != nil {
		return 0, &LoadError{EmployerID: emp.ID, Err: fmt.Errorf("close batch: %w", err)}
	}

	return len(agg.Vacancies), nil
}
