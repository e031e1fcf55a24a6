// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/olegiv/ibiza-nights/internal/cache"
	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/store"
)

var tracer = otel.Tracer("github.com/olegiv/ibiza-nights/internal/service")

// ErrRefreshInProgress is returned by Refresh while another refresh runs.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// Snapshot is the in-memory copy of every listing held by a Directory.
type Snapshot struct {
	Events      []model.Event    `json:"events"`
	DJs         []model.DJ       `json:"djs"`
	Clubs       []model.Club     `json:"clubs"`
	Promoters   []model.Promoter `json:"promoters"`
	RefreshedAt time.Time        `json:"refreshedAt"`
}

// Approved returns a copy of s holding approved records only.
func (s Snapshot) Approved() Snapshot {
	return Snapshot{
		Events:      approvedOnly(s.Events),
		DJs:         approvedOnly(s.DJs),
		Clubs:       approvedOnly(s.Clubs),
		Promoters:   approvedOnly(s.Promoters),
		RefreshedAt: s.RefreshedAt,
	}
}

// RefreshStatus describes the outcome of the most recent refresh.
type RefreshStatus struct {
	LastAttempt time.Time
	LastSuccess time.Time
	Err         error
}

// Config wires a Directory to its collaborators.
type Config struct {
	// Elevated serves writes, moderation and authenticated reads.
	Elevated *store.Store
	// Public serves anonymous reads. Nil means Elevated.
	Public *store.Store
	// Cache holds public listings and slug lookups. Nil means an
	// in-process cache.
	Cache    cache.Cacher
	CacheTTL time.Duration
	Logger   *slog.Logger
	// RefreshTimeout bounds the snapshot refresh that follows a write.
	// Zero means DefaultRefreshTimeout.
	RefreshTimeout time.Duration
}

// DefaultRefreshTimeout bounds post-write refreshes when Config leaves it unset.
const DefaultRefreshTimeout = 30 * time.Second

// Directory owns the listings of events, DJs, clubs and promoters. Every
// command performs its store round trip, invalidates cached listings and
// refreshes the snapshot before returning.
type Directory struct {
	Events    *Catalog[model.Event]
	DJs       *Catalog[model.DJ]
	Clubs     *Catalog[model.Club]
	Promoters *Catalog[model.Promoter]

	store  *store.Store
	cache  cache.Cacher
	events *EventService
	logger *slog.Logger
	now    func() time.Time

	refreshTimeout time.Duration

	// load fetches a fresh snapshot; replaced in tests.
	load func(ctx context.Context) (Snapshot, error)

	mu       sync.RWMutex
	snapshot Snapshot
	status   RefreshStatus

	refreshing atomic.Bool
	dirty      atomic.Bool
}

// NewDirectory creates a Directory. The snapshot is empty until the first
// Refresh.
func NewDirectory(cfg Config) *Directory {
	public := cfg.Public
	if public == nil {
		public = cfg.Elevated
	}
	c := cfg.Cache
	if c == nil {
		c = cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: cfg.CacheTTL})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Directory{
		store:          cfg.Elevated,
		cache:          c,
		events:         NewEventService(cfg.Elevated.Log),
		logger:         logger,
		now:            time.Now,
		refreshTimeout: cmp.Or(cfg.RefreshTimeout, DefaultRefreshTimeout),
	}
	d.load = d.fetch
	d.Events = newCatalog(d, public.Events, cfg.Elevated.Events, cfg.CacheTTL)
	d.DJs = newCatalog(d, public.DJs, cfg.Elevated.DJs, cfg.CacheTTL)
	d.Clubs = newCatalog(d, public.Clubs, cfg.Elevated.Clubs, cfg.CacheTTL)
	d.Promoters = newCatalog(d, public.Promoters, cfg.Elevated.Promoters, cfg.CacheTTL)
	return d
}

// EventLog returns the service recording moderation and entity events.
func (d *Directory) EventLog() *EventService {
	return d.events
}

// Snapshot returns the current listings. The slices are copies.
func (d *Directory) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Snapshot{
		Events:      append([]model.Event(nil), d.snapshot.Events...),
		DJs:         append([]model.DJ(nil), d.snapshot.DJs...),
		Clubs:       append([]model.Club(nil), d.snapshot.Clubs...),
		Promoters:   append([]model.Promoter(nil), d.snapshot.Promoters...),
		RefreshedAt: d.snapshot.RefreshedAt,
	}
}

// RefreshStatus reports the outcome of the last refresh.
func (d *Directory) RefreshStatus() RefreshStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// Refresh re-fetches all four listings. Only one refresh runs at a time; a
// call made while one is running returns ErrRefreshInProgress. On failure
// the previous snapshot stays in place.
func (d *Directory) Refresh(ctx context.Context) error {
	if !d.refreshing.CompareAndSwap(false, true) {
		return ErrRefreshInProgress
	}
	d.dirty.Store(false)
	err := d.refresh(ctx)
	d.release(ctx)
	return err
}

// release ends a refresh, running another one for writes that landed while
// it was in flight.
func (d *Directory) release(ctx context.Context) {
	for {
		d.refreshing.Store(false)
		if !d.dirty.Load() || !d.refreshing.CompareAndSwap(false, true) {
			return
		}
		d.dirty.Store(false)
		_ = d.refresh(ctx)
	}
}

func (d *Directory) refresh(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Directory.Refresh")
	defer span.End()

	started := d.now()
	snap, err := d.load(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.status.LastAttempt = started
	d.status.Err = err
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		d.logger.Warn("directory refresh failed, keeping previous listings",
			"op", "refresh", "error", err,
			"last_success", d.status.LastSuccess)
		return err
	}
	snap.RefreshedAt = started
	d.snapshot = snap
	d.status.LastSuccess = started
	return nil
}

// fetch loads every listing concurrently.
func (d *Directory) fetch(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) (err error) {
		snap.Events, err = d.store.Events.List(ctx, model.Filter{})
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		snap.DJs, err = d.store.DJs.List(ctx, model.Filter{})
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		snap.Clubs, err = d.store.Clubs.List(ctx, model.Filter{})
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		snap.Promoters, err = d.store.Promoters.List(ctx, model.Filter{})
		return err
	})
	if err := p.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// afterWrite invalidates cached listings of kind and refreshes the
// snapshot. A running refresh is asked to go again instead. The write has
// already committed, so this work is detached from the caller's
// cancellation and bounded by refreshTimeout instead. Refresh failures are
// logged.
func (d *Directory) afterWrite(ctx context.Context, kind model.Kind) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.refreshTimeout)
	defer cancel()

	if err := cache.InvalidateKind(ctx, d.cache, kind); err != nil {
		d.logger.Warn("cache invalidation failed", "kind", kind, "error", err)
		_ = d.events.LogCacheEvent(ctx, model.LogLevelWarning, "cache invalidation failed",
			map[string]any{"kind": kind, "error": err.Error()})
	}

	d.dirty.Store(true)
	if !d.refreshing.CompareAndSwap(false, true) {
		return
	}
	d.dirty.Store(false)
	_ = d.refresh(ctx)
	d.release(ctx)
}

func approvedOnly[T model.Entity](items []T) []T {
	return lo.Filter(items, func(v T, _ int) bool {
		return v.Meta().Status == model.StatusApproved
	})
}
