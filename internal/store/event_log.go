// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/olegiv/ibiza-nights/internal/model"
)

// LogRepository stores audit and warning entries.
type LogRepository struct {
	table table[model.LogEntry]
	clock func() time.Time
	newID func() string
}

// Create stores an entry, filling in its id and timestamp when unset.
func (r *LogRepository) Create(ctx context.Context, e model.LogEntry) (model.LogEntry, error) {
	if e.ID == "" {
		e.ID = r.newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.clock()
	}
	if e.Level == "" {
		e.Level = model.LogLevelInfo
	}
	if e.Category == "" {
		e.Category = model.LogCategorySystem
	}
	if e.Metadata == "" {
		e.Metadata = "{}"
	}
	if err := r.table.insert(ctx, e); err != nil {
		return model.LogEntry{}, err
	}
	return e, nil
}

// LogFilter narrows a log listing. Zero values match everything.
type LogFilter struct {
	Level    string
	Category string
	Limit    int
}

// List returns matching entries, newest first.
func (r *LogRepository) List(ctx context.Context, f LogFilter) ([]model.LogEntry, error) {
	var conds []condition
	if f.Level != "" {
		conds = append(conds, eq("level", f.Level))
	}
	if f.Category != "" {
		conds = append(conds, eq("category", f.Category))
	}

	entries, err := r.table.selectWhere(ctx, conds...)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(entries, func(a, b model.LogEntry) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	if f.Limit > 0 && len(entries) > f.Limit {
		entries = entries[:f.Limit]
	}
	return entries, nil
}

// DeleteOlderThan removes entries created before cutoff and reports how many
// were removed.
func (r *LogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.table.deleteBefore(ctx, "created_at", cutoff)
}
