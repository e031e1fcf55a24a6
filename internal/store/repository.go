// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"slices"
	"time"

	ierr "github.com/olegiv/ibiza-nights/internal/errors"
	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/util"
	"github.com/olegiv/ibiza-nights/internal/validator"
)

// CreateOptions controls how a new record enters the store.
type CreateOptions struct {
	// SubmittedBy is recorded as the record's author.
	SubmittedBy string
	// Trusted records skip moderation and are stored as approved.
	Trusted bool
}

// Repository stores one entity kind. All kinds share the same lifecycle:
// ids, slugs, timestamps and the initial status are assigned here and
// cannot be changed through Update.
type Repository[T model.Entity] struct {
	desc  kindDesc[T]
	table table[T]
	clock func() time.Time
	newID func() string
}

func newRepository[T model.Entity](desc kindDesc[T], t table[T], o options) *Repository[T] {
	return &Repository[T]{desc: desc, table: t, clock: o.clock, newID: o.newID}
}

// Kind returns the entity kind this repository stores.
func (r *Repository[T]) Kind() model.Kind {
	return r.desc.kind
}

// List returns the records matching filter in the kind's natural order.
func (r *Repository[T]) List(ctx context.Context, filter model.Filter) ([]T, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var conds []condition
	if filter.Status != "" {
		conds = append(conds, eq("status", string(filter.Status)))
	}

	items, err := r.table.selectWhere(ctx, conds...)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(items, r.desc.compare)
	return items, nil
}

// FindByID returns the record with the given id. A missing record is
// reported through the boolean, not as an error.
func (r *Repository[T]) FindByID(ctx context.Context, id string) (T, bool, error) {
	var zero T
	if id == "" {
		return zero, false, nil
	}
	items, err := r.table.selectWhere(ctx, eq("id", id))
	if err != nil || len(items) == 0 {
		return zero, false, err
	}
	return items[0], true, nil
}

// FindBySlug returns the oldest record with the given slug.
func (r *Repository[T]) FindBySlug(ctx context.Context, slug string) (T, bool, error) {
	var zero T
	if slug == "" {
		return zero, false, nil
	}
	items, err := r.table.selectWhere(ctx, eq("slug", slug))
	if err != nil || len(items) == 0 {
		return zero, false, err
	}
	return slices.MinFunc(items, func(a, b T) int {
		return compareCreated(a.Meta(), b.Meta())
	}), true, nil
}

// Get is FindByID with a missing record reported as a not-found error.
func (r *Repository[T]) Get(ctx context.Context, id string) (T, error) {
	v, ok, err := r.FindByID(ctx, id)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, r.notFound(id)
	}
	return v, nil
}

// Create validates v and stores it as a new record. The id, slug, status,
// author and timestamps on v are ignored and assigned here.
func (r *Repository[T]) Create(ctx context.Context, v T, opts CreateOptions) (T, error) {
	var zero T
	now := r.clock()

	b := r.desc.base(&v)
	b.ID = r.newID()
	b.Status = model.StatusPending
	if opts.Trusted {
		b.Status = model.StatusApproved
	}
	b.SubmittedBy = opts.SubmittedBy
	b.CreatedAt = now
	b.UpdatedAt = now

	r.desc.clean(&v)
	b.Slug = slugFor(*b)

	if err := validator.Struct(v); err != nil {
		return zero, err
	}
	if err := r.table.insert(ctx, v); err != nil {
		return zero, err
	}
	return r.reload(ctx, b.ID)
}

// Update applies mutate to the current record and stores the result if the
// record has not changed in the meantime. Protected fields (id, slug,
// status, author, creation time) are restored after mutate runs.
func (r *Repository[T]) Update(ctx context.Context, id string, mutate func(*T)) (T, error) {
	var zero T
	current, err := r.Get(ctx, id)
	if err != nil {
		return zero, err
	}

	next := r.desc.clone(current)
	mutate(&next)

	cb, nb := r.desc.base(&current), r.desc.base(&next)
	nb.ID = cb.ID
	nb.Slug = cb.Slug
	nb.Status = cb.Status
	nb.SubmittedBy = cb.SubmittedBy
	nb.CreatedAt = cb.CreatedAt
	nb.UpdatedAt = r.stamp(cb.UpdatedAt)

	r.desc.clean(&next)
	if err := validator.Struct(next); err != nil {
		return zero, err
	}
	return r.write(ctx, next, cb.UpdatedAt)
}

// SetStatus moves current to status to. The write only lands if the stored
// record still carries current's status and update time; otherwise the
// caller gets a conflict (or not-found if it was deleted).
func (r *Repository[T]) SetStatus(ctx context.Context, current T, to model.Status) (T, error) {
	var zero T
	if !to.Valid() {
		return zero, ierr.NewErrorf("unknown status %q", to).
			WithHint("Status must be one of pending, approved, rejected").
			Mark(ierr.ErrValidation)
	}

	next := r.desc.clone(current)
	cb, nb := r.desc.base(&current), r.desc.base(&next)
	nb.Status = to
	nb.UpdatedAt = r.stamp(cb.UpdatedAt)

	return r.write(ctx, next, cb.UpdatedAt, eq("status", string(cb.Status)))
}

// Delete removes the record with the given id.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	deleted, err := r.table.delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return r.notFound(id)
	}
	return nil
}

// write stores next guarded on the previous update time and re-reads it.
func (r *Repository[T]) write(ctx context.Context, next T, prev time.Time, guards ...condition) (T, error) {
	var zero T
	id := next.Meta().ID

	guards = append(guards, eq("updated_at", prev.UTC()))
	matched, err := r.table.update(ctx, id, next, guards...)
	if err != nil {
		return zero, err
	}
	if !matched {
		_, exists, err := r.FindByID(ctx, id)
		if err != nil {
			return zero, err
		}
		if !exists {
			return zero, r.notFound(id)
		}
		return zero, ierr.NewErrorf("%s %s was modified concurrently", r.desc.kind, id).
			WithHint("The record changed since it was read; reload and try again").
			Mark(ierr.ErrConflict)
	}
	return r.reload(ctx, id)
}

func (r *Repository[T]) reload(ctx context.Context, id string) (T, error) {
	v, ok, err := r.FindByID(ctx, id)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, ierr.NewErrorf("%s %s missing after write", r.desc.kind, id).
			Mark(ierr.ErrSystem)
	}
	return v, nil
}

// stamp returns a fresh update time strictly after prev.
func (r *Repository[T]) stamp(prev time.Time) time.Time {
	now := r.clock()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func (r *Repository[T]) notFound(id string) error {
	return ierr.NewErrorf("%s %s not found", r.desc.kind, id).
		WithHintf("No %s with id %s", r.desc.kind, id).
		Mark(ierr.ErrNotFound)
}

// slugFor derives the slug from the name, falling back to the id for
// names with no ASCII-representable characters.
func slugFor(b model.Base) string {
	if s := util.Slugify(b.Name); s != "" {
		return s
	}
	return b.ID
}
