// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"cmp"
	"html"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/ibiza-nights/internal/model"
)

// kindDesc captures what differs between entity kinds.
type kindDesc[T model.Entity] struct {
	kind model.Kind
	base func(*T) *model.Base
	// compare orders records naturally for listings.
	compare func(a, b T) int
	// clean trims and sanitizes user-supplied text in place.
	clean func(*T)
	// clone copies a record without sharing slices.
	clone func(T) T
}

// Free-text fields are stored as plain text: markup is stripped and the
// entities the policy emits are decoded again, so "&" and "<3" survive.
var textPolicy = bluemonday.StrictPolicy()

func sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}

func cleanBase(b *model.Base) {
	b.Name = strings.TrimSpace(b.Name)
	b.Description = sanitize(b.Description)
	links := make([]model.SocialLink, 0, len(b.SocialLinks))
	for _, l := range b.SocialLinks {
		links = append(links, model.SocialLink{
			Platform: strings.TrimSpace(l.Platform),
			URL:      strings.TrimSpace(l.URL),
		})
	}
	b.SocialLinks = links
}

func cloneBase(b model.Base) model.Base {
	b.SocialLinks = slices.Clone(nonNil(b.SocialLinks))
	return b
}

// compareNames orders by case-folded name, then id.
func compareNames(a, b model.Base) int {
	return cmp.Or(
		cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
		cmp.Compare(a.ID, b.ID),
	)
}

// compareCreated orders by creation time, then id.
func compareCreated(a, b model.Base) int {
	return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
}

func trimAll(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

var eventDesc = kindDesc[model.Event]{
	kind: model.KindEvent,
	base: func(e *model.Event) *model.Base { return &e.Base },
	compare: func(a, b model.Event) int {
		return cmp.Or(
			cmp.Compare(a.Date, b.Date),
			cmp.Compare(a.Time, b.Time),
			compareNames(a.Base, b.Base),
		)
	},
	clean: func(e *model.Event) {
		cleanBase(&e.Base)
		e.Date = strings.TrimSpace(e.Date)
		e.Time = strings.TrimSpace(e.Time)
		e.ClubID = strings.TrimSpace(e.ClubID)
		e.PromoterID = strings.TrimSpace(e.PromoterID)
		e.DJIDs = trimAll(e.DJIDs)
	},
	clone: func(e model.Event) model.Event {
		e.Base = cloneBase(e.Base)
		e.DJIDs = slices.Clone(nonNil(e.DJIDs))
		return e
	},
}

var djDesc = kindDesc[model.DJ]{
	kind:    model.KindDJ,
	base:    func(d *model.DJ) *model.Base { return &d.Base },
	compare: func(a, b model.DJ) int { return compareNames(a.Base, b.Base) },
	clean: func(d *model.DJ) {
		cleanBase(&d.Base)
		d.Genres = trimAll(d.Genres)
		d.Bio = sanitize(d.Bio)
	},
	clone: func(d model.DJ) model.DJ {
		d.Base = cloneBase(d.Base)
		d.Genres = slices.Clone(nonNil(d.Genres))
		return d
	},
}

var clubDesc = kindDesc[model.Club]{
	kind:    model.KindClub,
	base:    func(c *model.Club) *model.Base { return &c.Base },
	compare: func(a, b model.Club) int { return compareNames(a.Base, b.Base) },
	clean: func(c *model.Club) {
		cleanBase(&c.Base)
		c.Address = strings.TrimSpace(c.Address)
	},
	clone: func(c model.Club) model.Club {
		c.Base = cloneBase(c.Base)
		return c
	},
}

var promoterDesc = kindDesc[model.Promoter]{
	kind:    model.KindPromoter,
	base:    func(p *model.Promoter) *model.Base { return &p.Base },
	compare: func(a, b model.Promoter) int { return compareNames(a.Base, b.Base) },
	clean: func(p *model.Promoter) {
		cleanBase(&p.Base)
		p.History = sanitize(p.History)
		p.EventTypeFocus = strings.TrimSpace(p.EventTypeFocus)
	},
	clone: func(p model.Promoter) model.Promoter {
		p.Base = cloneBase(p.Base)
		return p
	},
}
