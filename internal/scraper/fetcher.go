package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"jobmate/vacancy-loader/internal/model"
)

const (
	defaultBaseURL  = "https://api.hh.ru"
	defaultPageSize = 100
	defaultMaxPages = 2 // hard cap: at most 200 vacancies per employer
	httpTimeout     = 15 * time.Second
	maxErrorBody    = 512
)

// FetcherConfig configures an HHFetcher. Zero values fall back to the
// defaults above, except MaxPages where 0 means "follow the provider's page
// count until exhausted".
type FetcherConfig struct {
	BaseURL        string
	PageSize       int
	MaxPages       int
	RequestTimeout time.Duration
	Concurrency    int
	UserAgent      string

	// OnEmployerDone is called once per employer ID after it has been
	// fetched or skipped. It may be called from several goroutines.
	OnEmployerDone func()
}

// DefaultFetcherConfig returns the configuration matching the hh.ru defaults.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		BaseURL:        defaultBaseURL,
		PageSize:       defaultPageSize,
		MaxPages:       defaultMaxPages,
		RequestTimeout: httpTimeout,
		Concurrency:    1,
	}
}

// HHFetcher fetches employers and their vacancies from the hh.ru public API.
// It keeps no state between calls besides the shared HTTP client.
type HHFetcher struct {
	cfg    FetcherConfig
	client *http.Client
}

// NewHHFetcher constructs a fetcher with a shared HTTP client.
func NewHHFetcher(cfg FetcherConfig) *HHFetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxPages < 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = httpTimeout
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &HHFetcher{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// FetchError reports that one employer could not be fetched. It covers both
// non-200 responses (StatusCode set) and network or decoding failures.
type FetchError struct {
	EmployerID string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch employer %s: status %d: %v", e.EmployerID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch employer %s: %v", e.EmployerID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// statusError carries a non-200 status up to FetchError.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("hh.ru returned %d: %s", e.code, e.body)
}

// vacanciesResponse mirrors one page of GET {vacancies_url}.
type vacanciesResponse struct {
	Items   []model.RawVacancy `json:"items"`
	Found   int                `json:"found"`
	Pages   int                `json:"pages"`
	Page    int                `json:"page"`
	PerPage int                `json:"per_page"`
}

// Fetch returns one aggregate per employer that could be fetched, in the
// order of employerIDs. Employers that fail are logged, reported in the
// second return value and skipped; they never abort the batch. Only a
// cancelled ctx stops the batch early.
func (f *HHFetcher) Fetch(ctx context.Context, employerIDs []string) ([]model.EmployerAggregate, []*FetchError) {
	slots := make([]*model.EmployerAggregate, len(employerIDs))
	failures := make([]*FetchError, len(employerIDs))

	var g errgroup.Group
	g.SetLimit(f.cfg.Concurrency)

	for i, id := range employerIDs {
		g.Go(func() error {
			if f.cfg.OnEmployerDone != nil {
				defer f.cfg.OnEmployerDone()
			}
			if err := ctx.Err(); err != nil {
				failures[i] = &FetchError{EmployerID: id, Err: err}
				return nil
			}

			agg, err := f.FetchEmployer(ctx, id)
			if err != nil {
				var fe *FetchError
				if !errors.As(err, &fe) {
					fe = &FetchError{EmployerID: id, Err: err}
				}
				slog.Warn("employer skipped", "employerId", id, "status", fe.StatusCode, "err", fe.Err)
				failures[i] = fe
				return nil
			}
			slots[i] = agg
			return nil
		})
	}
	_ = g.Wait()

	var (
		results []model.EmployerAggregate
		errs    []*FetchError
	)
	for i := range employerIDs {
		if slots[i] != nil {
			results = append(results, *slots[i])
		}
		if failures[i] != nil {
			errs = append(errs, failures[i])
		}
	}
	return results, errs
}

// FetchEmployer fetches one employer profile and its vacancy pages.
// Any failure is returned as a *FetchError.
func (f *HHFetcher) FetchEmployer(ctx context.Context, employerID string) (*model.EmployerAggregate, error) {
	var emp model.Employer
	endpoint := fmt.Sprintf("%s/employers/%s", f.cfg.BaseURL, url.PathEscape(employerID))
	if err := f.getJSON(ctx, endpoint, &emp); err != nil {
		return nil, newFetchError(employerID, err)
	}
	if emp.ID == "" {
		emp.ID = employerID
	}
	if emp.VacanciesURL == "" {
		return nil, &FetchError{EmployerID: employerID, Err: errors.New("response has no vacancies_url")}
	}

	vacancies, err := f.fetchVacancies(ctx, emp.VacanciesURL)
	if err != nil {
		return nil, newFetchError(employerID, err)
	}

	slog.Debug("employer fetched", "employerId", employerID, "name", emp.Name, "vacancies", len(vacancies))
	return &model.EmployerAggregate{Employer: emp, Vacancies: vacancies}, nil
}

// fetchVacancies pages through vacanciesURL. It stops after MaxPages pages
// (when MaxPages > 0), on an empty page, or once the provider's "pages"
// count is reached. Vacancies beyond the cap are silently truncated.
func (f *HHFetcher) fetchVacancies(ctx context.Context, vacanciesURL string) ([]model.RawVacancy, error) {
	var vacancies []model.RawVacancy

	for page := 0; f.cfg.MaxPages == 0 || page < f.cfg.MaxPages; page++ {
		resp, err := f.fetchPage(ctx, vacanciesURL, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		vacancies = append(vacancies, resp.Items...)
		if len(resp.Items) == 0 || (resp.Pages > 0 && page+1 >= resp.Pages) {
			break // last page
		}
	}

	return vacancies, nil
}

func (f *HHFetcher) fetchPage(ctx context.Context, vacanciesURL string, page int) (*vacanciesResponse, error) {
	u, err := url.Parse(vacanciesURL)
	if err != nil {
		return nil, fmt.Errorf("parse vacancies_url: %w", err)
	}
	params := u.Query()
	params.Set("per_page", strconv.Itoa(f.cfg.PageSize))
	params.Set("page", strconv.Itoa(page))
	u.RawQuery = params.Encode()

	var resp vacanciesResponse
	if err := f.getJSON(ctx, u.String(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// getJSON performs a GET bounded by RequestTimeout and decodes a 200 body
// into dst.
func (f *HHFetcher) getJSON(ctx context.Context, reqURL string, dst any) error {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
		req.Header.Set("HH-User-Agent", f.cfg.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &statusError{code: resp.StatusCode, body: string(body)}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}

func newFetchError(employerID string, err error) *FetchError {
	fe := &FetchError{EmployerID: employerID, Err: err}
	var se *statusError
	if errors.As(err, &se) {
		fe.StatusCode = se.code
	}
	return fe
}
