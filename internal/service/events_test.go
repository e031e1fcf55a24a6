// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/store"
	"github.com/olegiv/ibiza-nights/internal/testutil"
)

func TestLogEvent(t *testing.T) {
	s := testutil.TestStore(t)
	svc := NewEventService(s.Log)
	ctx := context.Background()

	err := svc.LogEvent(ctx, model.LogLevelWarning, model.LogCategoryEntity, "club updated", "user-1",
		map[string]any{"kind": "club", "id": "c1"})
	if err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	events, err := svc.ListEvents(ctx, store.LogFilter{})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.Level != model.LogLevelWarning || e.Category != model.LogCategoryEntity || e.UserID != "user-1" {
		t.Errorf("unexpected entry %+v", e)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(e.Metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v", err)
	}
	if meta["kind"] != "club" || meta["id"] != "c1" {
		t.Errorf("metadata = %v", meta)
	}
}

func TestLogEventNilMetadata(t *testing.T) {
	s := testutil.TestStore(t)
	svc := NewEventService(s.Log)
	ctx := context.Background()

	if err := svc.LogSystemEvent(ctx, model.LogLevelInfo, "started", nil); err != nil {
		t.Fatalf("LogSystemEvent failed: %v", err)
	}
	events, _ := svc.ListEvents(ctx, store.LogFilter{Category: model.LogCategorySystem})
	if len(events) != 1 || events[0].Metadata != "{}" || events[0].UserID != "" {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestLogHelpersSetCategory(t *testing.T) {
	s := testutil.TestStore(t)
	svc := NewEventService(s.Log)
	ctx := context.Background()

	tests := []struct {
		name     string
		log      func() error
		category string
		level    string
	}{
		{"moderation", func() error {
			return svc.LogModerationEvent(ctx, "mod", model.KindDJ, "d1", model.DecisionReject)
		}, model.LogCategoryModeration, model.LogLevelInfo},
		{"import", func() error {
			return svc.LogImportEvent(ctx, model.LogLevelInfo, "seeded", nil)
		}, model.LogCategoryImport, model.LogLevelInfo},
		{"cache", func() error {
			return svc.LogCacheEvent(ctx, model.LogLevelWarning, "redis down", nil)
		}, model.LogCategoryCache, model.LogLevelWarning},
		{"error", func() error {
			return svc.LogError(ctx, model.LogCategorySystem, "boom", "", nil)
		}, model.LogCategorySystem, model.LogLevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.log(); err != nil {
				t.Fatalf("log failed: %v", err)
			}
			events, err := svc.ListEvents(ctx, store.LogFilter{Category: tt.category, Level: tt.level})
			if err != nil || len(events) == 0 {
				t.Fatalf("expected a %s/%s entry, got %v, %v", tt.category, tt.level, events, err)
			}
		})
	}

	mod, _ := svc.ListEvents(ctx, store.LogFilter{Category: model.LogCategoryModeration})
	if len(mod) != 1 || mod[0].Message != "dj rejected" || mod[0].UserID != "mod" {
		t.Errorf("unexpected moderation entry %+v", mod)
	}
	imp, _ := svc.ListEvents(ctx, store.LogFilter{Category: model.LogCategoryImport})
	if len(imp) != 1 || imp[0].UserID != model.SystemImportUser {
		t.Errorf("import entries should be attributed to %s: %+v", model.SystemImportUser, imp)
	}
}

func TestDeleteOldEvents(t *testing.T) {
	clock := testutil.NewClock()
	s := testutil.TestStore(t, store.WithClock(clock.Now))
	svc := NewEventService(s.Log)
	ctx := context.Background()

	_ = svc.LogInfo(ctx, model.LogCategorySystem, "old", "", nil)
	clock.Advance(48 * time.Hour)
	_ = svc.LogInfo(ctx, model.LogCategorySystem, "new", "", nil)

	svc.now = clock.Now
	removed, err := svc.DeleteOldEvents(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldEvents failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	events, _ := svc.ListEvents(ctx, store.LogFilter{})
	if len(events) != 1 || events[0].Message != "new" {
		t.Errorf("unexpected remaining events %+v", events)
	}
}
