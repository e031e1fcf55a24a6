// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the moderated nightlife entities (events, DJs,
// clubs, promoters), their moderation status machine, the users acting on
// them and the event log entries recording what happened.
package model

import (
	"time"
)

// SystemImportUser is the SubmittedBy value for records created by seeding
// or bulk import rather than by a person.
const SystemImportUser = "system-import"

// SocialLink is one (platform, url) pair. Order within a record is kept and
// duplicates are allowed.
type SocialLink struct {
	Platform string `json:"platform" validate:"notblank,max=50"`
	URL      string `json:"url" validate:"required,url"`
}

// Base holds the fields every entity kind shares.
type Base struct {
	ID          string       `json:"id"`
	Name        string       `json:"name" validate:"notblank,max=200"`
	Slug        string       `json:"slug"`
	Description string       `json:"description,omitempty" validate:"max=5000"`
	SocialLinks []SocialLink `json:"socialLinks" validate:"dive"`
	Status      Status       `json:"status" validate:"oneof=pending approved rejected"`
	SubmittedBy string       `json:"submittedBy" validate:"required"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Meta returns a copy of the shared fields.
func (b Base) Meta() Base {
	return b
}

// Entity is implemented by Event, DJ, Club and Promoter.
type Entity interface {
	Kind() Kind
	Meta() Base
}

// Kinds implement Entity.
var (
	_ Entity = Event{}
	_ Entity = DJ{}
	_ Entity = Club{}
	_ Entity = Promoter{}
)
