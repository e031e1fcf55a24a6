// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic directory refresh and event log
// pruning on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/ibiza-nights/internal/service"
)

// Job names.
const (
	JobRefresh  = "directory-refresh"
	JobPruneLog = "event-log-prune"
)

// Refresher reloads the in-memory listings. *service.Directory implements it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// LogPruner removes old event log entries. *service.EventService implements it.
type LogPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Options configures the scheduled jobs.
type Options struct {
	RefreshSchedule string
	PruneSchedule   string
	LogRetention    time.Duration
	// JobTimeout bounds a single run of either job.
	JobTimeout time.Duration
}

// DefaultOptions returns the schedules used when none are configured.
func DefaultOptions() Options {
	return Options{
		RefreshSchedule: "@every 5m",
		PruneSchedule:   "@daily",
		LogRetention:    30 * 24 * time.Hour,
		JobTimeout:      time.Minute,
	}
}

// Scheduler handles the directory refresh and event log pruning jobs.
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
	logger   *slog.Logger
	dir      Refresher
	log      LogPruner
	opts     Options
}

// New creates a new scheduler instance. Overlapping runs of the same job
// are skipped.
func New(dir Refresher, log LogPruner, logger *slog.Logger, opts Options) *Scheduler {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	return &Scheduler{
		cron:     c,
		registry: NewRegistry(c, logger),
		logger:   logger,
		dir:      dir,
		log:      log,
		opts:     opts,
	}
}

// Registry returns the job registry, used by the admin API.
func (s *Scheduler) Registry() *Registry {
	return s.registry
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if err := s.registry.Register(JobRefresh, "Reload events, DJs, clubs and promoters from the datastore",
		s.opts.RefreshSchedule, s.refresh); err != nil {
		return err
	}
	if err := s.registry.Register(JobPruneLog, "Delete event log entries past the retention period",
		s.opts.PruneSchedule, s.prune); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) jobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.JobTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.JobTimeout)
}

// refresh reloads the directory. A refresh already in flight (from the API
// or a write) makes the tick a no-op.
func (s *Scheduler) refresh(ctx context.Context) error {
	ctx, cancel := s.jobContext(ctx)
	defer cancel()

	err := s.dir.Refresh(ctx)
	if errors.Is(err, service.ErrRefreshInProgress) {
		s.logger.Debug("skipping scheduled refresh, one is already running")
		return nil
	}
	return err
}

// prune deletes event log entries older than the retention period.
func (s *Scheduler) prune(ctx context.Context) error {
	if s.opts.LogRetention <= 0 {
		return nil
	}
	ctx, cancel := s.jobContext(ctx)
	defer cancel()

	removed, err := s.log.DeleteOldEvents(ctx, s.opts.LogRetention)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.Info("pruned event log", "removed", removed, "retention", s.opts.LogRetention)
	}
	return nil
}
