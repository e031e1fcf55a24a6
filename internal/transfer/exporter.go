// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"

	ierr "github.com/olegiv/ibiza-nights/internal/errors"
	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/store"
)

// Export dumps every record of every kind and status. Event references
// that point at existing records also carry the target's slug.
func Export(ctx context.Context, s *store.Store, now time.Time) (*Dataset, error) {
	var (
		events    []model.Event
		djs       []model.DJ
		clubs     []model.Club
		promoters []model.Promoter
	)
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) (err error) {
		events, err = s.Events.List(ctx, model.Filter{})
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		djs, err = s.DJs.List(ctx, model.Filter{})
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		clubs, err = s.Clubs.List(ctx, model.Filter{})
		return err
	})
	p.Go(func(ctx context.Context) (err error) {
		promoters, err = s.Promoters.List(ctx, model.Filter{})
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	clubSlugs := slugsByID(clubs)
	djSlugs := slugsByID(djs)
	promoterSlugs := slugsByID(promoters)

	return &Dataset{
		Version:    FormatVersion,
		ExportedAt: now.UTC(),
		Events: lo.Map(events, func(e model.Event, _ int) EventRecord {
			rec := EventRecord{
				Event:        e,
				ClubSlug:     clubSlugs[e.ClubID],
				PromoterSlug: promoterSlugs[e.PromoterID],
			}
			for _, id := range e.DJIDs {
				if slug, ok := djSlugs[id]; ok {
					rec.DJSlugs = append(rec.DJSlugs, slug)
				}
			}
			return rec
		}),
		DJs:       nonNil(djs),
		Clubs:     nonNil(clubs),
		Promoters: nonNil(promoters),
	}, nil
}

// Write encodes ds as indented JSON.
func Write(w io.Writer, ds *Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ds)
}

// WriteFile writes ds to path.
func WriteFile(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, ds); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Read decodes a dataset and checks its version.
func Read(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, ierr.WithError(err).
			WithHint("The dataset is not valid JSON").
			Mark(ierr.ErrValidation)
	}
	if ds.Version < 1 || ds.Version > FormatVersion {
		return nil, ierr.NewErrorf("unsupported dataset version %d", ds.Version).
			WithHintf("Supported dataset versions: 1 to %d", FormatVersion).
			WithReportableDetails(map[string]string{"version": "unsupported"}).
			Mark(ierr.ErrValidation)
	}
	return &ds, nil
}

// ReadFile reads the dataset stored at path.
func ReadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

func slugsByID[T model.Entity](items []T) map[string]string {
	return lo.SliceToMap(items, func(v T) (string, string) {
		b := v.Meta()
		return b.ID, b.Slug
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
