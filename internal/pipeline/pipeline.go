// Package pipeline wires fetching, schema creation and loading into one run:
//
//	CreateDatabase ──► CreateTables ──► Fetch ──► Load ──► publish event
//
// Schema and load failures abort the run; per-employer fetch failures do not.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/vacancy-loader/internal/config"
	"jobmate/vacancy-loader/internal/db"
	"jobmate/vacancy-loader/internal/events"
	"jobmate/vacancy-loader/internal/model"
	"jobmate/vacancy-loader/internal/scraper"
	"jobmate/vacancy-loader/internal/store"
)

// Pipeline runs a full rebuild of the vacancies database.
type Pipeline struct {
	cfg          *config.Config
	publisher    events.Publisher
	showProgress bool
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithProgress renders a progress bar on stderr while employers are fetched.
func WithProgress() Option {
	return func(p *Pipeline) { p.showProgress = true }
}

// WithPublisher sets the publisher notified after each committed load.
func WithPublisher(pub events.Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// New constructs a Pipeline.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, publisher: events.Nop{}}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Session is a loaded database ready to be queried. Close must be called
// on every exit path.
type Session struct {
	Pool    *pgxpool.Pool
	Queries *store.QueryService
	Stats   store.LoadStats
	Skipped []*scraper.FetchError
}

// Close releases the database connection.
func (s *Session) Close() {
	if s != nil && s.Pool != nil {
		s.Pool.Close()
	}
}

// Run recreates the database, fetches every configured employer and loads
// the results. The returned Session keeps the connection open for queries.
func (p *Pipeline) Run(ctx context.Context) (*Session, error) {
	start := time.Now()
	dbCfg := p.cfg.DB

	schema := store.NewSchemaManager(dbCfg.AdminURL(), dbCfg.Name)
	if err := schema.CreateDatabase(ctx); err != nil {
		return nil, err
	}

	pool, err := db.NewPostgresPool(ctx, dbCfg.TargetURL())
	if err != nil {
		return nil, &store.SchemaError{Op: "connect " + dbCfg.Name, Err: err}
	}
	sess := &Session{Pool: pool, Queries: store.NewQueryService(pool)}

	if err := schema.CreateTables(ctx, pool); err != nil {
		sess.Close()
		return nil, err
	}

	aggs, skipped := p.fetch(ctx)
	if err := ctx.Err(); err != nil {
		sess.Close()
		return nil, fmt.Errorf("fetch cancelled: %w", err)
	}
	sess.Skipped = skipped

	stats, err := store.NewLoader(pool).Load(ctx, aggs)
	if err != nil {
		sess.Close()
		return nil, err
	}
	sess.Stats = stats

	p.publish(ctx, stats, skipped)

	slog.Info("pipeline finished",
		"employers", stats.Employers,
		"vacancies", stats.Vacancies,
		"skipped", len(skipped),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return sess, nil
}

// Load runs the pipeline and closes the connection straight away.
func (p *Pipeline) Load(ctx context.Context) (store.LoadStats, error) {
	sess, err := p.Run(ctx)
	if err != nil {
		return store.LoadStats{}, err
	}
	defer sess.Close()
	return sess.Stats, nil
}

func (p *Pipeline) fetch(ctx context.Context) ([]model.EmployerAggregate, []*scraper.FetchError) {
	fcfg := FetcherConfig(p.cfg)
	if p.showProgress {
		bar := pb.StartNew(len(p.cfg.EmployerIDs))
		defer bar.Finish()
		fcfg.OnEmployerDone = func() { bar.Increment() }
	}

	slog.Info("fetching employers", "count", len(p.cfg.EmployerIDs), "maxPages", fcfg.MaxPages)
	return scraper.NewHHFetcher(fcfg).Fetch(ctx, p.cfg.EmployerIDs)
}

func (p *Pipeline) publish(ctx context.Context, stats store.LoadStats, skipped []*scraper.FetchError) {
	ev := events.VacanciesLoaded{
		Database:  p.cfg.DB.Name,
		Employers: stats.Employers,
		Vacancies: stats.Vacancies,
		LoadedAt:  time.Now().UTC(),
	}
	for _, s := range skipped {
		ev.Skipped = append(ev.Skipped, s.EmployerID)
	}
	if err := p.publisher.PublishLoaded(ctx, ev); err != nil {
		slog.Warn("publish load event failed", "err", err)
	}
}

// FetcherConfig maps the application configuration onto the fetcher's.
func FetcherConfig(cfg *config.Config) scraper.FetcherConfig {
	return scraper.FetcherConfig{
		BaseURL:        cfg.BaseURL,
		PageSize:       cfg.PageSize,
		MaxPages:       cfg.MaxPages,
		RequestTimeout: cfg.RequestTimeout,
		Concurrency:    cfg.FetchConcurrency,
		UserAgent:      cfg.UserAgent,
	}
}
