// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"
)

// Event log levels
const (
	LogLevelInfo    = "info"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
)

// Event log categories
const (
	LogCategoryModeration = "moderation"
	LogCategoryEntity     = "entity"
	LogCategoryImport     = "import"
	LogCategoryCache      = "cache"
	LogCategorySystem     = "system"
)

// LogEntry is one row of the event log.
type LogEntry struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	UserID    string    `json:"userId,omitempty"`
	Metadata  string    `json:"metadata"` // JSON object
	CreatedAt time.Time `json:"createdAt"`
}
