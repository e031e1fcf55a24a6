// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/olegiv/ibiza-nights/internal/errors"
	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/store"
	"github.com/olegiv/ibiza-nights/internal/testutil"
)

func TestImport_SeedDataset(t *testing.T) {
	imp, s := newTestImporter(t)
	ctx := t.Context()

	ds, err := SeedDataset()
	require.NoError(t, err)

	res, err := imp.Import(ctx, ds, ImportOptions{})
	require.NoError(t, err)
	assert.False(t, res.HasErrors(), "errors: %+v", res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, map[model.Kind]int{
		model.KindClub: 4, model.KindPromoter: 3, model.KindDJ: 4, model.KindEvent: 4,
	}, res.Created)

	clubs, err := s.Clubs.List(ctx, model.Filter{})
	require.NoError(t, err)
	for _, c := range clubs {
		assert.Equal(t, model.StatusApproved, c.Status)
		assert.Equal(t, model.SystemImportUser, c.SubmittedBy)
	}

	amnesia, ok, err := s.Clubs.FindBySlug(ctx, "amnesia")
	require.NoError(t, err)
	require.True(t, ok)
	carola, ok, err := s.DJs.FindBySlug(ctx, "marco-carola")
	require.NoError(t, err)
	require.True(t, ok)

	musicOn, ok, err := s.Events.FindBySlug(ctx, "music-on")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, amnesia.ID, musicOn.ClubID)
	assert.Equal(t, []string{carola.ID}, musicOn.DJIDs)
	assert.True(t, musicOn.Price.Valid)
	assert.Equal(t, "60", musicOn.Price.Decimal.String())
}

func TestImport_Idempotent(t *testing.T) {
	imp, s := newTestImporter(t)
	ctx := t.Context()
	ds, err := SeedDataset()
	require.NoError(t, err)

	_, err = imp.Import(ctx, ds, ImportOptions{})
	require.NoError(t, err)
	res, err := imp.Import(ctx, ds, ImportOptions{})
	require.NoError(t, err)

	assert.Zero(t, res.TotalCreated())
	assert.Equal(t, 15, res.TotalSkipped())

	events, err := s.Events.List(ctx, model.Filter{})
	require.NoError(t, err)
	assert.Len(t, events, 4)
}

func TestImport_SameEventNameOnDifferentDates(t *testing.T) {
	imp, s := newTestImporter(t)
	ds := &Dataset{Version: FormatVersion, Events: []EventRecord{
		{Event: testutil.Event("Circoloco", "2026-07-13")},
		{Event: testutil.Event("Circoloco", "2026-07-20")},
		{Event: testutil.Event("circoloco ", "2026-07-20")},
	}}

	res, err := imp.Import(t.Context(), ds, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created[model.KindEvent])
	assert.Equal(t, 1, res.Skipped[model.KindEvent])

	events, err := s.Events.List(t.Context(), model.Filter{})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestImport_DryRun(t *testing.T) {
	imp, s := newTestImporter(t)
	ds, err := SeedDataset()
	require.NoError(t, err)

	res, err := imp.Import(t.Context(), ds, ImportOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, 15, res.TotalCreated())
	assert.Empty(t, res.Warnings, "slugs of records created in the same run resolve")

	clubs, err := s.Clubs.List(t.Context(), model.Filter{})
	require.NoError(t, err)
	assert.Empty(t, clubs)

	entries, err := s.Log.List(t.Context(), store.LogFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries, "dry runs are not logged")
}

func TestImport_InvalidRecordsAreReported(t *testing.T) {
	imp, s := newTestImporter(t)
	ds := &Dataset{
		Version: FormatVersion,
		Clubs:   []model.Club{testutil.Club("Amnesia"), testutil.Club("!!!")},
		Events: []EventRecord{
			{Event: testutil.Event("Broken", "13/07/2026")},
		},
	}

	res, err := imp.Import(t.Context(), ds, ImportOptions{})
	require.NoError(t, err)
	require.True(t, res.HasErrors())
	assert.Len(t, res.Errors, 2)
	assert.Equal(t, 1, res.Created[model.KindClub])

	byKind := map[model.Kind]ImportError{}
	for _, e := range res.Errors {
		byKind[e.Kind] = e
	}
	assert.Equal(t, "!!!", byKind[model.KindClub].Name)
	assert.Contains(t, byKind[model.KindEvent].Details, "date")

	entries, err := s.Log.List(t.Context(), store.LogFilter{Category: model.LogCategoryImport})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.LogLevelWarning, entries[0].Level)
}

func TestImport_UnknownSlugKeepsEvent(t *testing.T) {
	imp, s := newTestImporter(t)
	ds := &Dataset{Version: FormatVersion, Events: []EventRecord{
		{Event: testutil.Event("Closing Party", "2026-10-04"), ClubSlug: "space"},
	}}

	res, err := imp.Import(t.Context(), ds, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created[model.KindEvent])
	require.Len(t, res.Warnings, 1)
	assert.True(t, strings.Contains(res.Warnings[0], "space"))

	ev, ok, err := s.Events.FindBySlug(t.Context(), "closing-party")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, ev.ClubID)
}

func TestImport_ClosedStoreAborts(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	imp := NewImporter(store.NewSQL(db), nil, testutil.TestLoggerSilent())
	ds, err := SeedDataset()
	require.NoError(t, err)

	_ = db.Close()
	_, err = imp.Import(t.Context(), ds, ImportOptions{})
	require.Error(t, err)
	assert.True(t, ierr.IsConnection(err))
}
