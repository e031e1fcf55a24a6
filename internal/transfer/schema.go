// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer moves listings in and out of the store as JSON
// datasets. The same import routine seeds development databases and loads
// bulk data in production.
package transfer

import (
	"time"

	"github.com/olegiv/ibiza-nights/internal/model"
)

// FormatVersion is the current version of the dataset format.
const FormatVersion = 1

// Dataset is the JSON document produced by Export and read by Import.
type Dataset struct {
	Version    int              `json:"version"`
	ExportedAt time.Time        `json:"exportedAt"`
	Events     []EventRecord    `json:"events"`
	DJs        []model.DJ       `json:"djs"`
	Clubs      []model.Club     `json:"clubs"`
	Promoters  []model.Promoter `json:"promoters"`
}

// EventRecord is an event whose references may also be given by slug.
// Slugs win over ids on import, so a dataset can move between stores.
type EventRecord struct {
	model.Event
	ClubSlug     string   `json:"clubSlug,omitempty"`
	DJSlugs      []string `json:"djSlugs,omitempty"`
	PromoterSlug string   `json:"promoterSlug,omitempty"`
}

// ImportOptions configures an import.
type ImportOptions struct {
	// DryRun counts what would be created without writing.
	DryRun bool
}

// ImportError describes a record that could not be imported.
type ImportError struct {
	Kind    model.Kind        `json:"kind"`
	Name    string            `json:"name"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Result contains the outcome of an import.
type Result struct {
	DryRun   bool               `json:"dryRun"`
	Created  map[model.Kind]int `json:"created"`
	Skipped  map[model.Kind]int `json:"skipped"`
	Errors   []ImportError      `json:"errors,omitempty"`
	Warnings []string           `json:"warnings,omitempty"`
}

func newResult(dryRun bool) *Result {
	return &Result{
		DryRun:  dryRun,
		Created: make(map[model.Kind]int),
		Skipped: make(map[model.Kind]int),
	}
}

// TotalCreated returns the number of records created across kinds.
func (r *Result) TotalCreated() int {
	return total(r.Created)
}

// TotalSkipped returns the number of records that already existed.
func (r *Result) TotalSkipped() int {
	return total(r.Skipped)
}

// HasErrors reports whether any record failed.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

func (r *Result) addError(kind model.Kind, name, message string, details map[string]string) {
	r.Errors = append(r.Errors, ImportError{Kind: kind, Name: name, Message: message, Details: details})
}

func total(m map[model.Kind]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}
