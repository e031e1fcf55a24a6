// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/olegiv/ibiza-nights/internal/cache"
	ierr "github.com/olegiv/ibiza-nights/internal/errors"
	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/store"
)

// Catalog serves one entity kind on behalf of an actor. Anonymous reads go
// to the public store and only see approved records; everything else goes
// to the elevated store after the actor's permissions are checked.
type Catalog[T model.Entity] struct {
	kind     model.Kind
	dir      *Directory
	public   *store.Repository[T]
	elevated *store.Repository[T]
	lists    *cache.TypedCache[[]T]
	slugs    *cache.TypedCache[T]
}

func newCatalog[T model.Entity](d *Directory, public, elevated *store.Repository[T], ttl time.Duration) *Catalog[T] {
	return &Catalog[T]{
		kind:     elevated.Kind(),
		dir:      d,
		public:   public,
		elevated: elevated,
		lists:    cache.NewTypedCache[[]T](d.cache, ttl),
		slugs:    cache.NewTypedCache[T](d.cache, ttl),
	}
}

// Kind returns the kind served by the catalog.
func (c *Catalog[T]) Kind() model.Kind {
	return c.kind
}

func (c *Catalog[T]) repoFor(a model.Actor) *store.Repository[T] {
	if a.IsAnonymous() {
		return c.public
	}
	return c.elevated
}

// List returns records matching f. Only moderators may list records that
// are not approved; for everyone else the listing is served from cache.
func (c *Catalog[T]) List(ctx context.Context, a model.Actor, f model.Filter) ([]T, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if a.CanModerate() {
		return c.elevated.List(ctx, f)
	}
	if f.Status != "" && f.Status != model.StatusApproved {
		return nil, denied(a, "listing "+string(f.Status)+" "+c.kind.Table())
	}

	f.Status = model.StatusApproved
	repo := c.repoFor(a)
	return c.lists.GetOrLoad(ctx, cache.ListKey(c.kind, f.Status), func(ctx context.Context) ([]T, error) {
		return repo.List(ctx, f)
	})
}

// Get returns the record with the given id if the actor may see it.
func (c *Catalog[T]) Get(ctx context.Context, a model.Actor, id string) (T, error) {
	var zero T
	v, err := c.repoFor(a).Get(ctx, id)
	if err != nil {
		return zero, err
	}
	if !visible(a, v.Meta()) {
		return zero, c.notFound("id", id)
	}
	return v, nil
}

// GetBySlug returns the record with the given slug if the actor may see it.
// Approved records are cached.
func (c *Catalog[T]) GetBySlug(ctx context.Context, a model.Actor, slug string) (T, error) {
	var zero T
	key := cache.SlugKey(c.kind, slug)
	if v, ok := c.slugs.Get(ctx, key); ok {
		return v, nil
	}

	v, ok, err := c.repoFor(a).FindBySlug(ctx, slug)
	if err != nil {
		return zero, err
	}
	if !ok || !visible(a, v.Meta()) {
		return zero, c.notFound("slug", slug)
	}
	if v.Meta().Status == model.StatusApproved {
		_ = c.slugs.Set(ctx, key, v)
	}
	return v, nil
}

// Create submits a new record. Submissions by admins skip moderation.
func (c *Catalog[T]) Create(ctx context.Context, a model.Actor, v T) (T, error) {
	ctx, span := c.start(ctx, "Create", a)
	defer span.End()

	var zero T
	if a.IsAnonymous() {
		return zero, denied(a, "submitting "+c.kind.Table())
	}

	created, err := c.elevated.Create(ctx, v, store.CreateOptions{
		SubmittedBy: a.UserID,
		Trusted:     a.IsAdmin(),
	})
	if err != nil {
		span.RecordError(err)
		return zero, err
	}

	b := created.Meta()
	_ = c.dir.events.LogEntityEvent(ctx, model.LogLevelInfo, string(c.kind)+" submitted", a.UserID,
		map[string]any{"kind": c.kind, "id": b.ID, "status": b.Status})
	c.dir.afterWrite(ctx, c.kind)
	return created, nil
}

// Update applies mutate to the record. Only its author or an admin may
// update it.
func (c *Catalog[T]) Update(ctx context.Context, a model.Actor, id string, mutate func(*T)) (T, error) {
	ctx, span := c.start(ctx, "Update", a)
	defer span.End()

	var zero T
	if err := c.authorize(ctx, a, id, "updating"); err != nil {
		return zero, err
	}

	updated, err := c.elevated.Update(ctx, id, mutate)
	if err != nil {
		span.RecordError(err)
		return zero, err
	}

	_ = c.dir.events.LogEntityEvent(ctx, model.LogLevelInfo, string(c.kind)+" updated", a.UserID,
		map[string]any{"kind": c.kind, "id": id})
	c.dir.afterWrite(ctx, c.kind)
	return updated, nil
}

// Delete removes the record. Only its author or an admin may delete it.
func (c *Catalog[T]) Delete(ctx context.Context, a model.Actor, id string) error {
	ctx, span := c.start(ctx, "Delete", a)
	defer span.End()

	if err := c.authorize(ctx, a, id, "deleting"); err != nil {
		return err
	}
	if err := c.elevated.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}

	_ = c.dir.events.LogEntityEvent(ctx, model.LogLevelInfo, string(c.kind)+" deleted", a.UserID,
		map[string]any{"kind": c.kind, "id": id})
	c.dir.afterWrite(ctx, c.kind)
	return nil
}

// authorize checks that a may change the record with the given id.
func (c *Catalog[T]) authorize(ctx context.Context, a model.Actor, id, action string) error {
	if a.IsAnonymous() {
		return denied(a, action+" "+c.kind.Table())
	}
	current, err := c.elevated.Get(ctx, id)
	if err != nil {
		return err
	}
	b := current.Meta()
	if !a.IsAdmin() && !a.Owns(b) {
		if !visible(a, b) {
			return c.notFound("id", id)
		}
		return denied(a, action+" a "+string(c.kind)+" submitted by someone else")
	}
	return nil
}

func (c *Catalog[T]) start(ctx context.Context, op string, a model.Actor) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Catalog."+op, trace.WithAttributes(
		attribute.String("kind", string(c.kind)),
		attribute.String("actor.role", a.Role),
	))
}

func (c *Catalog[T]) notFound(field, value string) error {
	return ierr.NewErrorf("%s %s %s not found", c.kind, field, value).
		WithHintf("No %s with %s %s", c.kind, field, value).
		Mark(ierr.ErrNotFound)
}

// visible reports whether a may read a record with the given metadata.
func visible(a model.Actor, b model.Base) bool {
	return b.Status == model.StatusApproved || a.CanModerate() || a.Owns(b)
}

// denied builds the error for an actor lacking permission for action.
func denied(a model.Actor, action string) error {
	if a.IsAnonymous() {
		return ierr.NewErrorf("%s requires authentication", action).
			WithHint("Send a bearer token in the Authorization header").
			Mark(ierr.ErrUnauthenticated)
	}
	role := a.Role
	if role == "" {
		role = model.RoleUser
	}
	return ierr.NewErrorf("%s is not allowed for role %s", action, role).
		WithHintf("Your role (%s) does not permit this operation", role).
		Mark(ierr.ErrPermissionDenied)
}
