// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Promoter organizes events.
type Promoter struct {
	Base
	History        string `json:"history,omitempty" validate:"max=10000"`
	EventTypeFocus string `json:"eventTypeFocus,omitempty" validate:"max=200"`
}

// Kind implements Entity.
func (Promoter) Kind() Kind { return KindPromoter }
