// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"github.com/shopspring/decimal"
)

// Event is a dated night at a club. ClubID, DJIDs and PromoterID are weak
// references: nothing guarantees the targets exist.
type Event struct {
	Base
	Date       string              `json:"date" validate:"required,datetime=2006-01-02"`
	Time       string              `json:"time,omitempty" validate:"omitempty,datetime=15:04"`
	Price      decimal.NullDecimal `json:"price"`
	ClubID     string              `json:"clubId,omitempty"`
	DJIDs      []string            `json:"djIds" validate:"dive,notblank"`
	PromoterID string              `json:"promoterId,omitempty"`
}

// Kind implements Entity.
func (Event) Kind() Kind { return KindEvent }

// Refs returns the event's lookup keys in club, promoter, DJ order.
func (e Event) Refs() []Ref {
	var refs []Ref
	if e.ClubID != "" {
		refs = append(refs, Ref{Kind: KindClub, ID: e.ClubID})
	}
	if e.PromoterID != "" {
		refs = append(refs, Ref{Kind: KindPromoter, ID: e.PromoterID})
	}
	for _, id := range e.DJIDs {
		refs = append(refs, Ref{Kind: KindDJ, ID: id})
	}
	return refs
}
