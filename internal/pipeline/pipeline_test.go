package pipeline_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/vacancy-loader/internal/config"
	"jobmate/vacancy-loader/internal/events"
	"jobmate/vacancy-loader/internal/pipeline"
	"jobmate/vacancy-loader/internal/store"
	"jobmate/vacancy-loader/internal/testdb"
)

type recordingPublisher struct {
	got []events.VacanciesLoaded
}

func (r *recordingPublisher) PublishLoaded(_ context.Context, ev events.VacanciesLoaded) error {
	r.got = append(r.got, ev)
	return nil
}

// newHH serves employer 1740 with one vacancy (salary from=500) and 404 for
// everything else.
func newHH(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("GET /employers/{id}", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.PathValue("id") != "1740" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "1740", "name": "Yandex", "alternate_url": "https://hh.ru/employer/1740",
			"vacancies_url": srv.URL + "/vacancies?employer_id=1740",
		})
	})
	mux.HandleFunc("GET /vacancies", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"pages": 1,
			"items": []map[string]any{{
				"id": "9001", "name": "Go developer", "alternate_url": "https://hh.ru/vacancy/9001",
				"snippet":    map[string]any{"responsibility": nil},
				"experience": map[string]any{"name": "No experience"},
				"salary":     map[string]any{"from": 500, "to": nil},
			}},
		})
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string, target testdb.Target) *config.Config {
	t.Helper()
	u, err := url.Parse(target.AdminURL)
	require.NoError(t, err)
	port, _ := strconv.Atoi(u.Port())
	if port == 0 {
		port = 5432
	}
	password, _ := u.User.Password()

	return &config.Config{
		EmployerIDs:      []string{"1740", "404"},
		BaseURL:          baseURL,
		PageSize:         100,
		MaxPages:         2,
		RequestTimeout:   2 * time.Second,
		FetchConcurrency: 1,
		DB: config.DBConfig{
			Host:     u.Hostname(),
			Port:     port,
			User:     u.User.Username(),
			Password: password,
			Name:     target.Name,
			AdminDB:  u.Path[1:],
			SSLMode:  u.Query().Get("sslmode"),
		},
	}
}

func TestPipeline_Run(t *testing.T) {
	var hits atomic.Int32
	hh := newHH(t, &hits)
	target := testdb.NewTarget(t)
	pub := &recordingPublisher{}

	sess, err := pipeline.New(testConfig(t, hh.URL, target), pipeline.WithPublisher(pub)).Run(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	assert.Equal(t, store.LoadStats{Employers: 1, Vacancies: 1}, sess.Stats)
	require.Len(t, sess.Skipped, 1)
	assert.Equal(t, "404", sess.Skipped[0].EmployerID)

	rows, err := sess.Queries.AllVacancies(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Yandex", rows[0].CompanyName)
	require.NotNil(t, rows[0].Salary)
	assert.EqualValues(t, 500, *rows[0].Salary)

	require.Len(t, pub.got, 1)
	assert.Equal(t, 1, pub.got[0].Vacancies)
	assert.Equal(t, []string{"404"}, pub.got[0].Skipped)
}

// Running twice rebuilds the database instead of accumulating rows.
func TestPipeline_LoadTwiceDoesNotDuplicate(t *testing.T) {
	var hits atomic.Int32
	hh := newHH(t, &hits)
	target := testdb.NewTarget(t)
	p := pipeline.New(testConfig(t, hh.URL, target))

	for i := 0; i < 2; i++ {
		stats, err := p.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Vacancies)
	}

	sess, err := p.Run(context.Background())
	require.NoError(t, err)
	defer sess.Close()
	counts, err := sess.Queries.CompaniesAndVacancyCounts(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.EqualValues(t, 1, counts[0].VacancyCount)
}

// A schema failure stops the run before anything is fetched.
func TestPipeline_SchemaErrorAbortsBeforeFetch(t *testing.T) {
	var hits atomic.Int32
	hh := newHH(t, &hits)
	cfg := &config.Config{
		EmployerIDs: []string{"1740"},
		BaseURL:     hh.URL,
		DB:          config.DBConfig{Host: "127.0.0.1", Port: 1, User: "nobody", Name: "hh_info", AdminDB: "postgres", SSLMode: "disable"},
	}

	_, err := pipeline.New(cfg).Run(context.Background())

	var se *store.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Zero(t, hits.Load())
}

func TestFetcherConfig(t *testing.T) {
	cfg := &config.Config{
		BaseURL:          "https://api.hh.ru",
		PageSize:         50,
		MaxPages:         3,
		RequestTimeout:   time.Second,
		FetchConcurrency: 4,
		UserAgent:        "ua",
	}

	fc := pipeline.FetcherConfig(cfg)

	assert.Equal(t, "https://api.hh.ru", fc.BaseURL)
	assert.Equal(t, 50, fc.PageSize)
	assert.Equal(t, 3, fc.MaxPages)
	assert.Equal(t, time.Second, fc.RequestTimeout)
	assert.Equal(t, 4, fc.Concurrency)
	assert.Equal(t, "ua", fc.UserAgent)
}
