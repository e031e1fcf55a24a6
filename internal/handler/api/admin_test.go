// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/olegiv/ibiza-nights/internal/errors"
	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/scheduler"
	"github.com/olegiv/ibiza-nights/internal/store"
	"github.com/olegiv/ibiza-nights/internal/transfer"
)

func TestAdminRoutesRequireAdmin(t *testing.T) {
	a := newTestAPI(t, true)

	paths := []struct{ method, path string }{
		{http.MethodPost, "/admin/refresh"},
		{http.MethodGet, "/admin/export"},
		{http.MethodGet, "/admin/jobs"},
		{http.MethodPost, "/admin/jobs/" + scheduler.JobRefresh + "/run"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rec := a.do(p.method, p.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = a.do(p.method, p.path, modToken, nil)
			require.Equal(t, http.StatusForbidden, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, ierr.ErrCodePermissionDenied, resp.Error.Code)
			assert.Equal(t, model.RoleModerator, resp.Error.Details["role"])
		})
	}
}

func TestRefresh(t *testing.T) {
	a := newTestAPI(t, false)
	a.createClub(adminToken, "Amnesia")
	a.createClub(aliceToken, "DC10")

	rec := a.do(http.MethodPost, "/admin/refresh", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp, _ := decodeData[RefreshResponse](t, rec)
	assert.Equal(t, 2, resp.Clubs, "the snapshot holds every status")
	assert.Zero(t, resp.Events)
	assert.False(t, resp.RefreshedAt.IsZero())

	entries, err := a.store.Log.List(t.Context(), store.LogFilter{Category: model.LogCategorySystem})
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "manual directory refresh", entries[0].Message)
	assert.Equal(t, a.users[adminToken].ID, entries[0].UserID)
}

func TestExport(t *testing.T) {
	a := newTestAPI(t, false)
	club := a.createClub(adminToken, "Amnesia")
	a.createClub(aliceToken, "DC10")
	rec := a.do(http.MethodPost, "/events", adminToken, map[string]any{
		"name": "Paradise", "date": "2026-07-08", "clubId": club.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(http.MethodGet, "/admin/export", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Regexp(t, `^attachment; filename="ibiza-nights-\d{8}-\d{6}\.json"$`, rec.Header().Get("Content-Disposition"))

	var ds transfer.Dataset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ds))
	assert.Equal(t, transfer.FormatVersion, ds.Version)
	assert.Len(t, ds.Clubs, 2)
	require.Len(t, ds.Events, 1)
	assert.Equal(t, "amnesia", ds.Events[0].ClubSlug)
}

func TestJobs(t *testing.T) {
	a := newTestAPI(t, true)

	rec := a.do(http.MethodGet, "/admin/jobs", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	jobs, meta := decodeData[[]scheduler.JobInfo](t, rec)
	assert.Equal(t, 2, meta.Total)
	names := []string{jobs[0].Name, jobs[1].Name}
	assert.ElementsMatch(t, []string{scheduler.JobRefresh, scheduler.JobPruneLog}, names)

	rec = a.do(http.MethodPost, "/admin/jobs/"+scheduler.JobRefresh+"/run", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, a.dir.RefreshStatus().LastSuccess.IsZero())

	rec = a.do(http.MethodPost, "/admin/jobs/nope/run", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodPut, "/admin/jobs/"+scheduler.JobRefresh+"/schedule", adminToken,
		ScheduleRequest{Schedule: "whenever"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error.Details, "schedule")

	rec = a.do(http.MethodPut, "/admin/jobs/"+scheduler.JobRefresh+"/schedule", adminToken,
		ScheduleRequest{Schedule: "@every 1m"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	jobs, _ = decodeData[[]scheduler.JobInfo](t, rec)
	refresh := findJob(t, jobs, scheduler.JobRefresh)
	assert.Equal(t, "@every 1m", refresh.Schedule)
	assert.True(t, refresh.IsOverridden)

	rec = a.do(http.MethodDelete, "/admin/jobs/"+scheduler.JobRefresh+"/schedule", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	jobs, _ = decodeData[[]scheduler.JobInfo](t, rec)
	refresh = findJob(t, jobs, scheduler.JobRefresh)
	assert.Equal(t, refresh.DefaultSchedule, refresh.Schedule)
	assert.False(t, refresh.IsOverridden)
}

func TestJobRoutesAbsentWithoutManager(t *testing.T) {
	a := newTestAPI(t, false)

	rec := a.do(http.MethodGet, "/admin/jobs", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func findJob(t *testing.T, jobs []scheduler.JobInfo, name string) scheduler.JobInfo {
	t.Helper()
	for _, j := range jobs {
		if j.Name == name {
			return j
		}
	}
	t.Fatalf("job %s not listed", name)
	return scheduler.JobInfo{}
}
