// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"testing"

	"github.com/olegiv/ibiza-nights/internal/service"
	"github.com/olegiv/ibiza-nights/internal/store"
	"github.com/olegiv/ibiza-nights/internal/testutil"
)

// newTestImporter returns an importer over a fresh store.
func newTestImporter(t *testing.T) (*Importer, *store.Store) {
	t.Helper()
	clock := testutil.NewClock()
	s := testutil.TestStore(t, store.WithClock(clock.Now))
	return NewImporter(s, service.NewEventService(s.Log), testutil.TestLoggerSilent()), s
}
