// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/olegiv/ibiza-nights/internal/model"
)

// JSONArray stores a slice as a JSON array column (TEXT on SQLite, JSONB on
// PostgreSQL). A NULL or empty column scans to an empty, non-nil slice.
type JSONArray[T any] []T

// Value implements driver.Valuer.
func (a JSONArray[T]) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]T(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (a *JSONArray[T]) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = JSONArray[T]{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into JSONArray", src)
	}
	if len(raw) == 0 {
		*a = JSONArray[T]{}
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decoding JSON array: %w", err)
	}
	if out == nil {
		out = []T{}
	}
	*a = out
	return nil
}

// MarshalJSON keeps empty arrays from being sent to PostgREST as null.
func (a JSONArray[T]) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]T(a))
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *JSONArray[T]) UnmarshalJSON(b []byte) error {
	var out []T
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	if out == nil {
		out = []T{}
	}
	*a = out
	return nil
}

// codec converts between a domain value and its row representation.
type codec[T, R any] struct {
	toRow   func(T) R
	fromRow func(R) T
}

type baseRow struct {
	ID          string                      `db:"id" json:"id"`
	Name        string                      `db:"name" json:"name"`
	Slug        string                      `db:"slug" json:"slug"`
	Description string                      `db:"description" json:"description"`
	SocialLinks JSONArray[model.SocialLink] `db:"social_links" json:"social_links"`
	Status      string                      `db:"status" json:"status"`
	SubmittedBy string                      `db:"submitted_by" json:"submitted_by"`
	CreatedAt   time.Time                   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time                   `db:"updated_at" json:"updated_at"`
}

func baseToRow(b model.Base) baseRow {
	return baseRow{
		ID:          b.ID,
		Name:        b.Name,
		Slug:        b.Slug,
		Description: b.Description,
		SocialLinks: JSONArray[model.SocialLink](b.SocialLinks),
		Status:      string(b.Status),
		SubmittedBy: b.SubmittedBy,
		CreatedAt:   b.CreatedAt.UTC(),
		UpdatedAt:   b.UpdatedAt.UTC(),
	}
}

func baseFromRow(r baseRow) model.Base {
	return model.Base{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		SocialLinks: nonNil([]model.SocialLink(r.SocialLinks)),
		Status:      model.Status(r.Status),
		SubmittedBy: r.SubmittedBy,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type eventRow struct {
	baseRow
	Date       string              `db:"date" json:"date"`
	Time       string              `db:"time" json:"time"`
	Price      decimal.NullDecimal `db:"price" json:"price"`
	ClubID     *string             `db:"club_id" json:"club_id"`
	DJIDs      JSONArray[string]   `db:"dj_ids" json:"dj_ids"`
	PromoterID *string             `db:"promoter_id" json:"promoter_id"`
}

var eventCodec = codec[model.Event, eventRow]{
	toRow: func(e model.Event) eventRow {
		return eventRow{
			baseRow:    baseToRow(e.Base),
			Date:       e.Date,
			Time:       e.Time,
			Price:      e.Price,
			ClubID:     lo.EmptyableToPtr(e.ClubID),
			DJIDs:      JSONArray[string](e.DJIDs),
			PromoterID: lo.EmptyableToPtr(e.PromoterID),
		}
	},
	fromRow: func(r eventRow) model.Event {
		return model.Event{
			Base:       baseFromRow(r.baseRow),
			Date:       r.Date,
			Time:       r.Time,
			Price:      r.Price,
			ClubID:     lo.FromPtr(r.ClubID),
			DJIDs:      nonNil([]string(r.DJIDs)),
			PromoterID: lo.FromPtr(r.PromoterID),
		}
	},
}

type djRow struct {
	baseRow
	Genres JSONArray[string] `db:"genres" json:"genres"`
	Bio    string            `db:"bio" json:"bio"`
}

var djCodec = codec[model.DJ, djRow]{
	toRow: func(d model.DJ) djRow {
		return djRow{baseRow: baseToRow(d.Base), Genres: JSONArray[string](d.Genres), Bio: d.Bio}
	},
	fromRow: func(r djRow) model.DJ {
		return model.DJ{Base: baseFromRow(r.baseRow), Genres: nonNil([]string(r.Genres)), Bio: r.Bio}
	},
}

type clubRow struct {
	baseRow
	Address  string `db:"address" json:"address"`
	Capacity int    `db:"capacity" json:"capacity"`
}

var clubCodec = codec[model.Club, clubRow]{
	toRow: func(c model.Club) clubRow {
		return clubRow{baseRow: baseToRow(c.Base), Address: c.Address, Capacity: c.Capacity}
	},
	fromRow: func(r clubRow) model.Club {
		return model.Club{Base: baseFromRow(r.baseRow), Address: r.Address, Capacity: r.Capacity}
	},
}

type promoterRow struct {
	baseRow
	History        string `db:"history" json:"history"`
	EventTypeFocus string `db:"event_type_focus" json:"event_type_focus"`
}

var promoterCodec = codec[model.Promoter, promoterRow]{
	toRow: func(p model.Promoter) promoterRow {
		return promoterRow{baseRow: baseToRow(p.Base), History: p.History, EventTypeFocus: p.EventTypeFocus}
	},
	fromRow: func(r promoterRow) model.Promoter {
		return model.Promoter{Base: baseFromRow(r.baseRow), History: r.History, EventTypeFocus: r.EventTypeFocus}
	},
}

type userRow struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Role      string    `db:"role" json:"role"`
	TokenHash string    `db:"token_hash" json:"token_hash"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

var userCodec = codec[model.User, userRow]{
	toRow: func(u model.User) userRow {
		return userRow{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      u.Role,
			TokenHash: u.TokenHash,
			CreatedAt: u.CreatedAt.UTC(),
			UpdatedAt: u.UpdatedAt.UTC(),
		}
	},
	fromRow: func(r userRow) model.User {
		return model.User{
			ID:        r.ID,
			Name:      r.Name,
			Email:     r.Email,
			Role:      r.Role,
			TokenHash: r.TokenHash,
			CreatedAt: r.CreatedAt.UTC(),
			UpdatedAt: r.UpdatedAt.UTC(),
		}
	},
}

type logRow struct {
	ID        string    `db:"id" json:"id"`
	Level     string    `db:"level" json:"level"`
	Category  string    `db:"category" json:"category"`
	Message   string    `db:"message" json:"message"`
	UserID    *string   `db:"user_id" json:"user_id"`
	Metadata  string    `db:"metadata" json:"metadata"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

var logCodec = codec[model.LogEntry, logRow]{
	toRow: func(e model.LogEntry) logRow {
		return logRow{
			ID:        e.ID,
			Level:     e.Level,
			Category:  e.Category,
			Message:   e.Message,
			UserID:    lo.EmptyableToPtr(e.UserID),
			Metadata:  lo.Ternary(e.Metadata == "", "{}", e.Metadata),
			CreatedAt: e.CreatedAt.UTC(),
		}
	},
	fromRow: func(r logRow) model.LogEntry {
		return model.LogEntry{
			ID:        r.ID,
			Level:     r.Level,
			Category:  r.Category,
			Message:   r.Message,
			UserID:    lo.FromPtr(r.UserID),
			Metadata:  r.Metadata,
			CreatedAt: r.CreatedAt.UTC(),
		}
	},
}

func nonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}
