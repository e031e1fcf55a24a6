// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store persists events, DJs, clubs, promoters, users and the event
// log. Two backends are supported: a SQL database (SQLite or PostgreSQL)
// accessed through sqlx, and Supabase accessed through its PostgREST API.
// Both expose the same repositories.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/nedpals/supabase-go"

	"github.com/olegiv/ibiza-nights/internal/model"
)

// Store groups the repositories of one backend connection.
type Store struct {
	Events    *Repository[model.Event]
	DJs       *Repository[model.DJ]
	Clubs     *Repository[model.Club]
	Promoters *Repository[model.Promoter]
	Users     *UserRepository
	Log       *LogRepository

	ping func(ctx context.Context) error
}

// Option customizes a Store.
type Option func(*options)

type options struct {
	clock func() time.Time
	newID func() string
}

// WithClock sets the time source used for created/updated stamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithIDGenerator sets the generator used for new record ids.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) { o.newID = gen }
}

func buildOptions(opts []Option) options {
	o := options{
		clock: func() time.Time { return time.Now() },
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	// Stored timestamps carry microsecond precision on every backend.
	clock := o.clock
	o.clock = func() time.Time { return clock().UTC().Truncate(time.Microsecond) }
	return o
}

// tables is the set of backing tables a Store is assembled from.
type tables struct {
	events    table[model.Event]
	djs       table[model.DJ]
	clubs     table[model.Club]
	promoters table[model.Promoter]
	users     table[model.User]
	log       table[model.LogEntry]
}

func assemble(t tables, o options) *Store {
	return &Store{
		Events:    newRepository(eventDesc, t.events, o),
		DJs:       newRepository(djDesc, t.djs, o),
		Clubs:     newRepository(clubDesc, t.clubs, o),
		Promoters: newRepository(promoterDesc, t.promoters, o),
		Users:     &UserRepository{table: t.users, clock: o.clock, newID: o.newID},
		Log:       &LogRepository{table: t.log, clock: o.clock, newID: o.newID},
		ping:      t.users.ping,
	}
}

// NewSQL returns a Store backed by a migrated SQLite or PostgreSQL database.
func NewSQL(db *sqlx.DB, opts ...Option) *Store {
	return assemble(tables{
		events:    newSQLTable(db, model.KindEvent.Table(), eventCodec),
		djs:       newSQLTable(db, model.KindDJ.Table(), djCodec),
		clubs:     newSQLTable(db, model.KindClub.Table(), clubCodec),
		promoters: newSQLTable(db, model.KindPromoter.Table(), promoterCodec),
		users:     newSQLTable(db, "users", userCodec),
		log:       newSQLTable(db, "event_log", logCodec),
	}, buildOptions(opts))
}

// NewSupabase returns a Store backed by a Supabase project. The privileges of
// the store are those of the key the client was created with.
func NewSupabase(client *supabase.Client, opts ...Option) *Store {
	return assemble(tables{
		events:    newSupabaseTable(client, model.KindEvent.Table(), eventCodec),
		djs:       newSupabaseTable(client, model.KindDJ.Table(), djCodec),
		clubs:     newSupabaseTable(client, model.KindClub.Table(), clubCodec),
		promoters: newSupabaseTable(client, model.KindPromoter.Table(), promoterCodec),
		users:     newSupabaseTable(client, "users", userCodec),
		log:       newSupabaseTable(client, "event_log", logCodec),
	}, buildOptions(opts))
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}
