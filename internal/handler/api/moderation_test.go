// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/olegiv/ibiza-nights/internal/errors"
	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/service"
)

func TestQueue(t *testing.T) {
	a := newTestAPI(t, false)
	first := a.createClub(aliceToken, "Amnesia")
	a.createClub(adminToken, "DC10")
	rec := a.do(http.MethodPost, "/djs", bobToken, map[string]any{"name": "Black Coffee"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(http.MethodGet, "/moderation/queue", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodGet, "/moderation/queue", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodGet, "/moderation/queue", modToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	type queued struct {
		Kind model.Kind `json:"kind"`
		ID   string     `json:"id"`
	}
	queue, meta := decodeData[[]queued](t, rec)
	require.Len(t, queue, 2)
	assert.Equal(t, 2, meta.Total)
	assert.Equal(t, first.ID, queue[0].ID, "oldest submission first")
	assert.Equal(t, model.KindClub, queue[0].Kind)
	assert.Equal(t, model.KindDJ, queue[1].Kind)
}

func TestLineup(t *testing.T) {
	a := newTestAPI(t, false)
	club := a.createClub(adminToken, "Amnesia")

	rec := a.do(http.MethodPost, "/djs", adminToken, map[string]any{"name": "Marco Carola"})
	require.Equal(t, http.StatusCreated, rec.Code)
	dj, _ := decodeData[model.DJ](t, rec)

	rec = a.do(http.MethodPost, "/events", adminToken, map[string]any{
		"name":   "Music On",
		"date":   "2026-07-03",
		"time":   "23:30",
		"price":  "60",
		"clubId": club.ID,
		"djIds":  []string{dj.ID, "gone"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ev, _ := decodeData[model.Event](t, rec)
	assert.Equal(t, "60", ev.Price.Decimal.String())

	rec = a.do(http.MethodGet, "/events/"+ev.ID+"/lineup", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lineup, _ := decodeData[service.Lineup](t, rec)
	require.NotNil(t, lineup.Club)
	assert.Equal(t, "Amnesia", lineup.Club.Name)
	assert.Nil(t, lineup.Promoter)
	require.Len(t, lineup.DJs, 1)
	assert.Equal(t, dj.ID, lineup.DJs[0].ID)
	assert.Equal(t, []model.Ref{{Kind: model.KindDJ, ID: "gone"}}, lineup.Unresolved)

	rec = a.do(http.MethodGet, "/events/missing/lineup", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDuplicates(t *testing.T) {
	a := newTestAPI(t, false)
	a.createClub(adminToken, "Pacha")
	a.createClub(aliceToken, "PACHA!")
	newest := a.createClub(bobToken, "Pachá")
	a.createClub(adminToken, "Amnesia")

	rec := a.do(http.MethodGet, "/moderation/duplicates/clubs", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodGet, "/moderation/duplicates/venues", modToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(http.MethodGet, "/moderation/duplicates/club", modToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	groups, meta := decodeData[[]service.DuplicateGroup[model.Club]](t, rec)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, meta.Total)
	assert.Equal(t, "pacha", groups[0].Key)
	assert.Len(t, groups[0].Records, 3)

	// only admins resolve
	rec = a.do(http.MethodPost, "/moderation/duplicates/clubs/resolve", modToken, ResolveRequest{Key: "pacha"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPost, "/moderation/duplicates/clubs/resolve", adminToken, ResolveRequest{})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "is required", decodeError(t, rec).Error.Details["key"])

	rec = a.do(http.MethodPost, "/moderation/duplicates/clubs/resolve", adminToken, ResolveRequest{Key: "pacha"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res, _ := decodeData[service.Resolution[model.Club]](t, rec)
	assert.Equal(t, newest.ID, res.Kept.ID, "most recent record is kept")
	assert.Len(t, res.Removed, 2)

	rec = a.do(http.MethodPost, "/moderation/duplicates/clubs/resolve", adminToken, ResolveRequest{Key: "pacha"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ierr.ErrCodeNotFound, decodeError(t, rec).Error.Code)
}
