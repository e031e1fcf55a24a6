// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	ierr "github.com/olegiv/ibiza-nights/internal/errors"
)

// Kind names one of the four moderated entity types.
type Kind string

// Entity kinds, in the order they are listed and tie-broken.
const (
	KindEvent    Kind = "event"
	KindDJ       Kind = "dj"
	KindClub     Kind = "club"
	KindPromoter Kind = "promoter"
)

// Kinds lists every entity kind.
var Kinds = []Kind{KindEvent, KindDJ, KindClub, KindPromoter}

// Table returns the datastore table (and URL segment) for the kind.
func (k Kind) Table() string {
	switch k {
	case KindEvent:
		return "events"
	case KindDJ:
		return "djs"
	case KindClub:
		return "clubs"
	case KindPromoter:
		return "promoters"
	}
	return ""
}

// Order returns the position of k in Kinds, used as a tie-breaker.
func (k Kind) Order() int {
	for i, kk := range Kinds {
		if kk == k {
			return i
		}
	}
	return len(Kinds)
}

// ParseKind accepts a kind in singular ("club") or table form ("clubs").
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if s == string(k) || s == k.Table() {
			return k, nil
		}
	}
	return "", ierr.NewErrorf("unknown kind %q", s).
		WithHint("kind must be one of events, djs, clubs, promoters").
		Mark(ierr.ErrValidation)
}
