// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	ierr "github.com/olegiv/ibiza-nights/internal/errors"
	"github.com/olegiv/ibiza-nights/internal/middleware"
	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/service"
	"github.com/olegiv/ibiza-nights/internal/transfer"
)

// RefreshResponse reports the directory state after a refresh.
type RefreshResponse struct {
	RefreshedAt time.Time `json:"refreshedAt"`
	Events      int       `json:"events"`
	DJs         int       `json:"djs"`
	Clubs       int       `json:"clubs"`
	Promoters   int       `json:"promoters"`
}

// Refresh handles POST /admin/refresh. It is the manual retry point after
// a failed scheduled refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	err := h.dir.Refresh(r.Context())
	if ierr.Is(err, service.ErrRefreshInProgress) {
		WriteError(w, http.StatusConflict, "refresh_in_progress", "A refresh is already running; try again shortly", nil)
		return
	}
	if err != nil {
		h.writeServiceError(w, r, "admin.refresh", err)
		return
	}

	snap := h.dir.Snapshot()
	_ = h.dir.EventLog().LogInfo(r.Context(), model.LogCategorySystem, "manual directory refresh",
		middleware.Actor(r).UserID, nil)
	WriteSuccess(w, RefreshResponse{
		RefreshedAt: snap.RefreshedAt,
		Events:      len(snap.Events),
		DJs:         len(snap.DJs),
		Clubs:       len(snap.Clubs),
		Promoters:   len(snap.Promoters),
	}, nil)
}

// Export handles GET /admin/export. The dataset holds every record of
// every status.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ds, err := transfer.Export(r.Context(), h.store, h.now())
	if err != nil {
		h.writeServiceError(w, r, "admin.export", err)
		return
	}
	filename := fmt.Sprintf("ibiza-nights-%s.json", ds.ExportedAt.Format("20060102-150405"))
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	WriteJSON(w, http.StatusOK, ds)
}

// ListJobs handles GET /admin/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	WriteList(w, h.jobs.List())
}

// RunJob handles POST /admin/jobs/{name}/run.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.jobs.TriggerNow(r.Context(), name); err != nil {
		h.writeServiceError(w, r, "admin.runJob", err)
		return
	}
	WriteSuccess(w, map[string]string{"job": name, "status": "completed"}, nil)
}

// ScheduleRequest sets a job's cron schedule.
type ScheduleRequest struct {
	Schedule string `json:"schedule"`
}

// UpdateJobSchedule handles PUT /admin/jobs/{name}/schedule.
func (h *Handler) UpdateJobSchedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.jobs.UpdateSchedule(chi.URLParam(r, "name"), req.Schedule); err != nil {
		h.writeServiceError(w, r, "admin.updateJobSchedule", err)
		return
	}
	h.ListJobs(w, r)
}

// ResetJobSchedule handles DELETE /admin/jobs/{name}/schedule.
func (h *Handler) ResetJobSchedule(w http.ResponseWriter, r *http.Request) {
	if err := h.jobs.ResetSchedule(chi.URLParam(r, "name")); err != nil {
		h.writeServiceError(w, r, "admin.resetJobSchedule", err)
		return
	}
	h.ListJobs(w, r)
}
