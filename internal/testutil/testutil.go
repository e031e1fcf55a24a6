// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the ibiza-nights project.
package testutil

import (
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/store"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a completely silent test logger (error level only).
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary SQLite database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sqlx.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "ibiza-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewSQLiteDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewSQLiteDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}
}

// TestStore returns a Store over a fresh temporary database. The database
// is closed when the test ends.
func TestStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	db, cleanup := TestDB(t)
	t.Cleanup(cleanup)
	return store.NewSQL(db, opts...)
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock starting at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, time.June, 1, 22, 0, 0, 0, time.UTC)}
}

// Now returns the current time and advances the clock by one second so
// successive stamps are distinct.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(time.Second)
	return now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// CreateUser stores a user with the given role and token.
func CreateUser(t *testing.T, s *store.Store, name, role, token string) model.User {
	t.Helper()
	u, err := s.Users.Create(t.Context(), model.User{
		Name:  name,
		Email: name + "@example.com",
		Role:  role,
	}, token)
	if err != nil {
		t.Fatalf("creating user %s: %v", name, err)
	}
	return u
}

// Club returns an unsaved club with the given name.
func Club(name string) model.Club {
	return model.Club{Base: model.Base{Name: name}, Address: "Ibiza", Capacity: 1000}
}

// DJ returns an unsaved DJ with the given name.
func DJ(name string, genres ...string) model.DJ {
	return model.DJ{Base: model.Base{Name: name}, Genres: genres}
}

// Promoter returns an unsaved promoter with the given name.
func Promoter(name string) model.Promoter {
	return model.Promoter{Base: model.Base{Name: name}}
}

// Event returns an unsaved event on the given date (YYYY-MM-DD).
func Event(name, date string) model.Event {
	return model.Event{Base: model.Base{Name: name}, Date: date}
}
