// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"cmp"
	"context"
	"slices"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	ierr "github.com/olegiv/ibiza-nights/internal/errors"
	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/util"
)

// Approve moves a pending record to approved.
func (c *Catalog[T]) Approve(ctx context.Context, a model.Actor, id string) (T, error) {
	return c.Decide(ctx, a, id, model.DecisionApprove)
}

// Reject moves a pending record to rejected.
func (c *Catalog[T]) Reject(ctx context.Context, a model.Actor, id string) (T, error) {
	return c.Decide(ctx, a, id, model.DecisionReject)
}

// Decide applies a moderator's decision to the record with the given id.
// Only pending records can be decided; approved and rejected are final.
func (c *Catalog[T]) Decide(ctx context.Context, a model.Actor, id string, d model.Decision) (T, error) {
	ctx, span := c.start(ctx, "Decide", a)
	defer span.End()
	span.SetAttributes(attribute.String("decision", string(d)), attribute.String("id", id))

	var zero T
	if !a.CanModerate() {
		return zero, denied(a, string(d)+" "+c.kind.Table())
	}

	current, err := c.elevated.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	from, to := current.Meta().Status, d.Target()
	if !from.CanTransition(to) {
		return zero, ierr.NewErrorf("cannot %s %s %s: it is %s", d, c.kind, id, from).
			WithHint("Only pending records can be approved or rejected").
			WithReportableDetails(map[string]string{"status": string(from)}).
			Mark(ierr.ErrInvalidTransition)
	}

	decided, err := c.elevated.SetStatus(ctx, current, to)
	if err != nil {
		span.RecordError(err)
		return zero, err
	}

	c.dir.logger.Info("moderation decision",
		"kind", c.kind, "id", id, "moderator", a.UserID, "status", to)
	_ = c.dir.events.LogModerationEvent(ctx, a.UserID, c.kind, id, d)
	c.dir.afterWrite(ctx, c.kind)
	return decided, nil
}

// PendingQueue returns every pending record of every kind, oldest
// submission first. Ties are broken by kind order, then id.
func (d *Directory) PendingQueue(ctx context.Context, a model.Actor) ([]model.PendingItem, error) {
	ctx, span := tracer.Start(ctx, "Directory.PendingQueue")
	defer span.End()

	if !a.CanModerate() {
		return nil, denied(a, "viewing the moderation queue")
	}

	pending := model.Filter{Status: model.StatusPending}
	parts := make([][]model.PendingItem, len(model.Kinds))
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		return collectPending(ctx, d.Events, pending, &parts[0])
	})
	p.Go(func(ctx context.Context) error {
		return collectPending(ctx, d.DJs, pending, &parts[1])
	})
	p.Go(func(ctx context.Context) error {
		return collectPending(ctx, d.Clubs, pending, &parts[2])
	})
	p.Go(func(ctx context.Context) error {
		return collectPending(ctx, d.Promoters, pending, &parts[3])
	})
	if err := p.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	queue := slices.Concat(parts...)
	slices.SortFunc(queue, func(x, y model.PendingItem) int {
		return cmp.Or(
			x.CreatedAt.Compare(y.CreatedAt),
			cmp.Compare(x.Kind.Order(), y.Kind.Order()),
			cmp.Compare(x.ID, y.ID),
		)
	})
	return queue, nil
}

func collectPending[T model.Entity](ctx context.Context, c *Catalog[T], f model.Filter, out *[]model.PendingItem) error {
	items, err := c.elevated.List(ctx, f)
	if err != nil {
		return err
	}
	*out = lo.Map(items, func(v T, _ int) model.PendingItem {
		return model.NewPendingItem(v)
	})
	return nil
}

// DuplicateGroup is a set of records of one kind whose names normalize to
// the same key (and, for events, fall on the same date).
type DuplicateGroup[T model.Entity] struct {
	Key     string `json:"key"`
	Records []T    `json:"records"`
}

// DuplicateKey returns the grouping key of v, or "" when its name has no
// letters or digits to compare.
func DuplicateKey[T model.Entity](v T) string {
	key := util.NormalizeKey(v.Meta().Name)
	if key == "" {
		return ""
	}
	if e, ok := any(v).(model.Event); ok {
		key += "@" + e.Date
	}
	return key
}

// FindDuplicates groups items by DuplicateKey in a single pass. Only groups
// with two or more members are returned, in order of first appearance.
func FindDuplicates[T model.Entity](items []T) []DuplicateGroup[T] {
	index := make(map[string]int, len(items))
	var groups []DuplicateGroup[T]
	for _, v := range items {
		key := DuplicateKey(v)
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DuplicateGroup[T]{Key: key})
		}
		groups[i].Records = append(groups[i].Records, v)
	}
	return lo.Filter(groups, func(g DuplicateGroup[T], _ int) bool {
		return len(g.Records) > 1
	})
}

// Duplicates reports duplicate groups across all records of the kind.
func (c *Catalog[T]) Duplicates(ctx context.Context, a model.Actor) ([]DuplicateGroup[T], error) {
	if !a.CanModerate() {
		return nil, denied(a, "reviewing duplicate "+c.kind.Table())
	}
	items, err := c.elevated.List(ctx, model.Filter{})
	if err != nil {
		return nil, err
	}
	return FindDuplicates(items), nil
}

// Resolution is the outcome of resolving a duplicate group.
type Resolution[T model.Entity] struct {
	Kept    T        `json:"kept"`
	Removed []string `json:"removed"`
}

// ResolveDuplicates keeps the most recently created record of the group
// with the given key and deletes the others. Records already deleted by
// someone else are skipped.
func (c *Catalog[T]) ResolveDuplicates(ctx context.Context, a model.Actor, key string) (Resolution[T], error) {
	ctx, span := c.start(ctx, "ResolveDuplicates", a)
	defer span.End()

	var res Resolution[T]
	if !a.IsAdmin() {
		return res, denied(a, "resolving duplicate "+c.kind.Table())
	}

	groups, err := c.Duplicates(ctx, a)
	if err != nil {
		return res, err
	}
	group, ok := lo.Find(groups, func(g DuplicateGroup[T]) bool { return g.Key == key })
	if !ok {
		return res, ierr.NewErrorf("no duplicate %s group %q", c.kind, key).
			WithHint("The group may already have been resolved; reload the duplicate list").
			Mark(ierr.ErrNotFound)
	}

	res.Kept = lo.MaxBy(group.Records, func(x, y T) bool {
		bx, by := x.Meta(), y.Meta()
		return cmp.Or(bx.CreatedAt.Compare(by.CreatedAt), cmp.Compare(bx.ID, by.ID)) > 0
	})
	keptID := res.Kept.Meta().ID

	res.Removed = []string{}
	for _, v := range group.Records {
		id := v.Meta().ID
		if id == keptID {
			continue
		}
		if err := c.elevated.Delete(ctx, id); err != nil {
			if ierr.IsNotFound(err) {
				continue
			}
			span.RecordError(err)
			return res, err
		}
		res.Removed = append(res.Removed, id)
	}

	if len(res.Removed) > 0 {
		_ = c.dir.events.LogInfo(ctx, model.LogCategoryModeration, "duplicate "+string(c.kind)+" records removed", a.UserID,
			map[string]any{"kind": c.kind, "kept": keptID, "removed": res.Removed})
		c.dir.afterWrite(ctx, c.kind)
	}
	return res, nil
}

// Lineup is an event with its weak references resolved. References that
// point nowhere (or at records the caller may not see) are listed in
// Unresolved.
type Lineup struct {
	Event      model.Event     `json:"event"`
	Club       *model.Club     `json:"club,omitempty"`
	Promoter   *model.Promoter `json:"promoter,omitempty"`
	DJs        []model.DJ      `json:"djs"`
	Unresolved []model.Ref     `json:"unresolved"`
}

// ResolveEvent loads an event and resolves its club, promoter and DJ
// references as seen by the actor.
func (d *Directory) ResolveEvent(ctx context.Context, a model.Actor, id string) (Lineup, error) {
	ctx, span := tracer.Start(ctx, "Directory.ResolveEvent", trace.WithAttributes(attribute.String("id", id)))
	defer span.End()

	ev, err := d.Events.Get(ctx, a, id)
	if err != nil {
		return Lineup{}, err
	}

	lineup := Lineup{Event: ev, DJs: []model.DJ{}, Unresolved: []model.Ref{}}
	for _, ref := range ev.Refs() {
		var found bool
		switch ref.Kind {
		case model.KindClub:
			lineup.Club, found, err = resolve(ctx, d.Clubs, a, ref.ID)
		case model.KindPromoter:
			lineup.Promoter, found, err = resolve(ctx, d.Promoters, a, ref.ID)
		case model.KindDJ:
			var dj *model.DJ
			dj, found, err = resolve(ctx, d.DJs, a, ref.ID)
			if found {
				lineup.DJs = append(lineup.DJs, *dj)
			}
		}
		if err != nil {
			return Lineup{}, err
		}
		if !found {
			lineup.Unresolved = append(lineup.Unresolved, ref)
		}
	}
	return lineup, nil
}

// resolve looks up a referenced record. A missing or hidden target is not
// an error.
func resolve[T model.Entity](ctx context.Context, c *Catalog[T], a model.Actor, id string) (*T, bool, error) {
	v, err := c.Get(ctx, a, id)
	if ierr.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &v, true, nil
}
