// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"testing"

	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/store"
	"github.com/olegiv/ibiza-nights/internal/testutil"
)

var (
	anonymous = model.Actor{}
	alice     = model.Actor{UserID: "user-alice", Role: model.RoleUser}
	bob       = model.Actor{UserID: "user-bob", Role: model.RoleUser}
	moderator = model.Actor{UserID: "user-mod", Role: model.RoleModerator}
	admin     = model.Actor{UserID: "user-admin", Role: model.RoleAdmin}
)

// newTestDirectory returns a Directory over a fresh SQLite store whose clock
// advances one second per stamp.
func newTestDirectory(t *testing.T) (*Directory, *store.Store) {
	t.Helper()
	clock := testutil.NewClock()
	s := testutil.TestStore(t, store.WithClock(clock.Now))
	d := NewDirectory(Config{Elevated: s, Logger: testutil.TestLoggerSilent()})
	t.Cleanup(func() { _ = d.cache.Close() })
	return d, s
}
