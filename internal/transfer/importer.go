// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	ierr "github.com/olegiv/ibiza-nights/internal/errors"
	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/service"
	"github.com/olegiv/ibiza-nights/internal/store"
	"github.com/olegiv/ibiza-nights/internal/util"
)

// Importer loads datasets into a store through the trusted path: records
// are created approved and attributed to model.SystemImportUser.
type Importer struct {
	store  *store.Store
	events *service.EventService
	logger *slog.Logger
}

// NewImporter creates a new Importer. events may be nil.
func NewImporter(s *store.Store, events *service.EventService, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: s, events: events, logger: logger}
}

// Import creates the records of ds that do not exist yet. A record exists
// when a record of the same kind has the same slug (events: the same slug
// on the same date), so running an import twice creates nothing the second
// time. Records failing validation are reported in the result and skipped;
// a datastore failure aborts the import.
//
// Clubs, promoters and DJs are imported before events so event slug
// references can be resolved to ids.
func (i *Importer) Import(ctx context.Context, ds *Dataset, opts ImportOptions) (*Result, error) {
	res := newResult(opts.DryRun)

	clubs, err := importAll(ctx, i.store.Clubs, ds.Clubs, opts.DryRun, res)
	if err != nil {
		return res, err
	}
	promoters, err := importAll(ctx, i.store.Promoters, ds.Promoters, opts.DryRun, res)
	if err != nil {
		return res, err
	}
	djs, err := importAll(ctx, i.store.DJs, ds.DJs, opts.DryRun, res)
	if err != nil {
		return res, err
	}

	events := lo.Map(ds.Events, func(rec EventRecord, _ int) model.Event {
		return i.linkEvent(rec, clubs, promoters, djs, res)
	})
	if _, err := importAll(ctx, i.store.Events, events, opts.DryRun, res); err != nil {
		return res, err
	}

	i.logger.Info("dataset imported",
		"dry_run", opts.DryRun,
		"created", res.TotalCreated(),
		"skipped", res.TotalSkipped(),
		"errors", len(res.Errors))
	if i.events != nil && !opts.DryRun {
		level := model.LogLevelInfo
		if res.HasErrors() {
			level = model.LogLevelWarning
		}
		_ = i.events.LogImportEvent(ctx, level, "dataset imported", map[string]any{
			"created": res.Created,
			"skipped": res.Skipped,
			"errors":  len(res.Errors),
		})
	}
	return res, nil
}

// ImportFile reads the dataset at path and imports it.
func (i *Importer) ImportFile(ctx context.Context, path string, opts ImportOptions) (*Result, error) {
	ds, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return i.Import(ctx, ds, opts)
}

// linkEvent replaces slug references with the ids of the records they
// name. Unknown slugs leave the reference as given and add a warning.
func (i *Importer) linkEvent(rec EventRecord, clubs, promoters, djs map[string]string, res *Result) model.Event {
	ev := rec.Event
	lookup := func(kind model.Kind, slug string, index map[string]string) (string, bool) {
		id, ok := index[slug]
		if !ok {
			res.Warnings = append(res.Warnings,
				"event "+ev.Name+": unknown "+string(kind)+" slug "+slug)
		}
		return id, ok
	}

	if rec.ClubSlug != "" {
		if id, ok := lookup(model.KindClub, rec.ClubSlug, clubs); ok {
			ev.ClubID = id
		}
	}
	if rec.PromoterSlug != "" {
		if id, ok := lookup(model.KindPromoter, rec.PromoterSlug, promoters); ok {
			ev.PromoterID = id
		}
	}
	if len(rec.DJSlugs) > 0 {
		ids := make([]string, 0, len(rec.DJSlugs))
		for _, slug := range rec.DJSlugs {
			if id, ok := lookup(model.KindDJ, slug, djs); ok {
				ids = append(ids, id)
			}
		}
		ev.DJIDs = ids
	}
	return ev
}

// importAll creates the items of one kind that are not stored yet. It
// returns the slug to id index of the kind, covering existing and new
// records.
func importAll[T model.Entity](ctx context.Context, repo *store.Repository[T], items []T, dryRun bool, res *Result) (map[string]string, error) {
	kind := repo.Kind()

	existing, err := repo.List(ctx, model.Filter{})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing))
	ids := make(map[string]string, len(existing))
	for _, v := range existing {
		b := v.Meta()
		seen[importKey(v, b.Slug)] = true
		if _, ok := ids[b.Slug]; !ok {
			ids[b.Slug] = b.ID
		}
	}

	for _, v := range items {
		name := v.Meta().Name
		slug := util.Slugify(name)
		if slug == "" {
			res.addError(kind, name, "name has no letters or digits", nil)
			continue
		}
		key := importKey(v, slug)
		if seen[key] {
			res.Skipped[kind]++
			continue
		}
		seen[key] = true

		if dryRun {
			res.Created[kind]++
			if _, ok := ids[slug]; !ok {
				ids[slug] = ""
			}
			continue
		}

		created, err := repo.Create(ctx, v, store.CreateOptions{
			SubmittedBy: model.SystemImportUser,
			Trusted:     true,
		})
		if err != nil {
			if ierr.IsValidation(err) {
				res.addError(kind, name, "validation failed", ierr.Details(err))
				continue
			}
			return nil, err
		}
		res.Created[kind]++
		if _, ok := ids[slug]; !ok {
			ids[slug] = created.Meta().ID
		}
	}
	return ids, nil
}

// importKey identifies a record for idempotency checks.
func importKey[T model.Entity](v T, slug string) string {
	if e, ok := any(v).(model.Event); ok {
		return slug + "@" + e.Date
	}
	return slug
}
