// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Ref is a non-owning lookup key pointing at another entity. The target may
// have been deleted or never existed; resolve it at read time.
type Ref struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

// PendingItem is one entry in the cross-kind moderation queue.
type PendingItem struct {
	Kind        Kind      `json:"kind"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	SubmittedBy string    `json:"submittedBy"`
	CreatedAt   time.Time `json:"createdAt"`
	Entity      Entity    `json:"entity"`
}

// NewPendingItem tags an entity with its kind for the moderation queue.
func NewPendingItem(e Entity) PendingItem {
	b := e.Meta()
	return PendingItem{
		Kind:        e.Kind(),
		ID:          b.ID,
		Name:        b.Name,
		Slug:        b.Slug,
		SubmittedBy: b.SubmittedBy,
		CreatedAt:   b.CreatedAt,
		Entity:      e,
	}
}
