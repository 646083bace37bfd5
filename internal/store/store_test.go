package store_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"jobmate/vacancy-loader/internal/model"
)

func f64(v float64) *float64 { return &v }

func strPtr(s string) *string { return &s }

// vacancy builds a raw vacancy with an optional single salary bound.
func vacancy(id int, title string, salary *float64) model.RawVacancy {
	v := model.RawVacancy{
		ID:           fmt.Sprint(id),
		Name:         title,
		AlternateURL: fmt.Sprintf("https://hh.ru/vacancy/%d", id),
		Snippet:      model.Snippet{Responsibility: strPtr("Build <highlighttext>things</highlighttext>")},
		Experience:   &model.Experience{ID: "noExperience", Name: "No experience"},
	}
	if salary != nil {
		v.Salary = &model.Salary{From: salary}
	}
	return v
}

func aggregate(id, name string, vacancies ...model.RawVacancy) model.EmployerAggregate {
	return model.EmployerAggregate{
		Employer: model.Employer{
			ID:   id,
			Name: name,
			URL:  "https://hh.ru/employer/" + id,
		},
		Vacancies: vacancies,
	}
}

func count(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
