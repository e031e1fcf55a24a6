// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Club is a venue.
type Club struct {
	Base
	Address  string `json:"address,omitempty" validate:"max=300"`
	Capacity int    `json:"capacity" validate:"gte=0"`
}

// Kind implements Entity.
func (Club) Kind() Kind { return KindClub }
