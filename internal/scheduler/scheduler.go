// Package scheduler wires up the cron job that periodically rebuilds the
// vacancies database from scratch.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"jobmate/vacancy-loader/internal/store"
)

// Loader runs one full load. *pipeline.Pipeline satisfies it.
type Loader interface {
	Load(ctx context.Context) (store.LoadStats, error)
}

// Scheduler wraps robfig/cron and manages the reload loop.
type Scheduler struct {
	cron   *cron.Cron
	loader Loader
	spec   string // cron spec, e.g. "@every 24h"

	mu      sync.Mutex // serialises loads: the database is dropped on each one
	lastErr error
}

// New creates a Scheduler that fires every intervalHours hours.
func New(loader Loader, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		loader: loader,
		spec:   fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. It also runs one load
// immediately so the database is populated without waiting for the first
// tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	slog.Info("scheduler started", "spec", s.spec)

	go s.RunOnce(ctx)

	return nil
}

// Stop shuts the scheduler down and waits for a running load to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.mu.Lock()
	defer s.mu.Unlock()
	slog.Info("scheduler stopped")
}

// RunOnce performs one load. Errors are logged and kept for LastError; the
// next tick tries again.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	slog.Info("scheduled load started")
	stats, err := s.loader.Load(ctx)
	s.lastErr = err
	if err != nil {
		slog.Error("scheduled load failed", "err", err)
		return
	}
	slog.Info("scheduled load complete", "employers", stats.Employers, "vacancies", stats.Vacancies)
}

// LastError returns the error of the most recent load, nil on success.
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
