// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors warnings and errors
// into the event log so operators see them next to moderation activity.
package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/ibiza-nights/internal/model"
)

// writeTimeout bounds a single event log insert.
const writeTimeout = 5 * time.Second

// LogWriter stores event log entries. *store.LogRepository implements it.
type LogWriter interface {
	Create(ctx context.Context, e model.LogEntry) (model.LogEntry, error)
}

// EventLogHandler is a slog.Handler that wraps another handler and also
// writes records at or above its level (WARN by default) to the event log.
type EventLogHandler struct {
	inner  slog.Handler
	writer LogWriter
	level  slog.Level
	attrs  []slog.Attr
	group  string
}

// NewEventLogHandler creates a new EventLogHandler that wraps the given handler.
func NewEventLogHandler(inner slog.Handler, w LogWriter) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, w, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a new EventLogHandler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, w LogWriter, level slog.Level) *EventLogHandler {
	return &EventLogHandler{inner: inner, writer: w, level: level}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.writeToEventLog(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.inner = h.inner.WithAttrs(attrs)
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), h.qualify(attrs)...)
	return &next
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.inner = h.inner.WithGroup(name)
	if name != "" {
		next.group = h.qualifyKey(name)
	}
	return &next
}

func (h *EventLogHandler) qualifyKey(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *EventLogHandler) qualify(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.qualifyKey(a.Key), Value: a.Value}
	}
	return out
}

// writeToEventLog writes a log record to the event log. The write is
// detached from the request context so cancelled requests still get logged;
// failures are dropped since there is nowhere left to report them.
func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	attrs := append([]slog.Attr(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, slog.Attr{Key: h.qualifyKey(a.Key), Value: a.Value})
		return true
	})

	entry := model.LogEntry{
		Level:     slogLevelToEventLevel(r.Level),
		Category:  extractCategory(r.Message, attrs),
		Message:   r.Message,
		UserID:    extractUserID(attrs),
		Metadata:  extractMetadata(attrs),
		CreatedAt: r.Time.UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	_, _ = h.writer.Create(ctx, entry)
}

// slogLevelToEventLevel converts a slog.Level to an event log level.
func slogLevelToEventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.LogLevelError
	case level >= slog.LevelWarn:
		return model.LogLevelWarning
	default:
		return model.LogLevelInfo
	}
}

// extractCategory uses an explicit "category" attribute, or infers one from
// the message.
func extractCategory(msg string, attrs []slog.Attr) string {
	for _, a := range attrs {
		if a.Key == "category" {
			return a.Value.String()
		}
	}

	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "moderat") || strings.Contains(msg, "approv") || strings.Contains(msg, "reject"):
		return model.LogCategoryModeration
	case strings.Contains(msg, "import") || strings.Contains(msg, "seed") || strings.Contains(msg, "export"):
		return model.LogCategoryImport
	case strings.Contains(msg, "cache") || strings.Contains(msg, "redis"):
		return model.LogCategoryCache
	case containsAny(msg, "event", "club", "dj", "promoter"):
		return model.LogCategoryEntity
	default:
		return model.LogCategorySystem
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// extractUserID picks the acting user from a "moderator" or "user_id"
// attribute.
func extractUserID(attrs []slog.Attr) string {
	for _, a := range attrs {
		if a.Key == "moderator" || a.Key == "user_id" {
			return a.Value.String()
		}
	}
	return ""
}

// extractMetadata collects the attributes, except category, into a JSON
// object of strings.
func extractMetadata(attrs []slog.Attr) string {
	meta := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if a.Key == "category" {
			continue
		}
		meta[a.Key] = a.Value.Resolve().String()
	}
	if len(meta) == 0 {
		return "{}"
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return "{}"
	}
	return string(b)
}
