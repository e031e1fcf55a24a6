// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the moderation workflow and the directory of
// approved listings, plus the event log used as their audit trail.
package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/store"
)

// EventService writes and prunes the event log.
type EventService struct {
	log *store.LogRepository
	now func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(log *store.LogRepository) *EventService {
	return &EventService{log: log, now: time.Now}
}

// LogEvent creates a new event log entry.
func (s *EventService) LogEvent(ctx context.Context, level, category, message, userID string, metadata map[string]any) error {
	metadataJSON := "{}"
	if metadata != nil {
		jsonBytes, err := json.Marshal(metadata)
		if err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	_, err := s.log.Create(ctx, model.LogEntry{
		Level:    level,
		Category: category,
		Message:  message,
		UserID:   userID,
		Metadata: metadataJSON,
	})
	if err != nil {
		slog.Error("failed to log event", "category", category, "error", err)
		return err
	}
	return nil
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message, userID string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.LogLevelInfo, category, message, userID, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message, userID string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.LogLevelWarning, category, message, userID, metadata)
}

// LogError logs an error-level event.
func (s *EventService) LogError(ctx context.Context, category, message, userID string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.LogLevelError, category, message, userID, metadata)
}

// LogModerationEvent records an approve or reject decision.
func (s *EventService) LogModerationEvent(ctx context.Context, moderatorID string, kind model.Kind, id string, d model.Decision) error {
	return s.LogEvent(ctx, model.LogLevelInfo, model.LogCategoryModeration,
		string(kind)+" "+string(d.Target()), moderatorID,
		map[string]any{"kind": kind, "id": id, "decision": d})
}

// LogEntityEvent logs a create, update or delete of an entity.
func (s *EventService) LogEntityEvent(ctx context.Context, level, message, userID string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.LogCategoryEntity, message, userID, metadata)
}

// LogImportEvent logs a seed or import run.
func (s *EventService) LogImportEvent(ctx context.Context, level, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.LogCategoryImport, message, model.SystemImportUser, metadata)
}

// LogCacheEvent logs a cache-related event.
func (s *EventService) LogCacheEvent(ctx context.Context, level, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.LogCategoryCache, message, "", metadata)
}

// LogSystemEvent logs a system-related event.
func (s *EventService) LogSystemEvent(ctx context.Context, level, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.LogCategorySystem, message, "", metadata)
}

// ListEvents returns log entries matching f, newest first.
func (s *EventService) ListEvents(ctx context.Context, f store.LogFilter) ([]model.LogEntry, error) {
	return s.log.List(ctx, f)
}

// DeleteOldEvents removes events older than the specified duration and
// reports how many were removed.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan)
	return s.log.DeleteOlderThan(ctx, cutoff)
}
