// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON API for events, DJs, clubs and promoters,
// their moderation and the admin operations.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	ierr "github.com/olegiv/ibiza-nights/internal/errors"
	"github.com/olegiv/ibiza-nights/internal/middleware"
	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/scheduler"
	"github.com/olegiv/ibiza-nights/internal/service"
	"github.com/olegiv/ibiza-nights/internal/store"
)

// JobManager lists and controls scheduled jobs. *scheduler.Registry
// implements it.
type JobManager interface {
	List() []scheduler.JobInfo
	TriggerNow(ctx context.Context, name string) error
	UpdateSchedule(name, schedule string) error
	ResetSchedule(name string) error
}

// Config wires a Handler to its collaborators.
type Config struct {
	Directory *service.Directory
	// Store is the elevated store, used for exports.
	Store *store.Store
	// Jobs is optional; without it the job routes are not mounted.
	Jobs   JobManager
	Logger *slog.Logger
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	dir    *service.Directory
	store  *store.Store
	jobs   JobManager
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		dir:    cfg.Directory,
		store:  cfg.Store,
		jobs:   cfg.Jobs,
		logger: logger,
		now:    time.Now,
	}
}

// Routes returns the API router, to be mounted under /api/v1 behind
// middleware.TokenAuth.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Status)

	r.Route("/events", func(r chi.Router) {
		r.Get("/{id}/lineup", h.Lineup)
		mountKind(r, h, h.dir.Events)
	})
	r.Route("/djs", func(r chi.Router) { mountKind(r, h, h.dir.DJs) })
	r.Route("/clubs", func(r chi.Router) { mountKind(r, h, h.dir.Clubs) })
	r.Route("/promoters", func(r chi.Router) { mountKind(r, h, h.dir.Promoters) })

	r.Route("/moderation", func(r chi.Router) {
		r.Get("/queue", h.Queue)
		r.Get("/duplicates/{kind}", h.Duplicates)
		r.Post("/duplicates/{kind}/resolve", h.ResolveDuplicates)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAdmin)
		r.Post("/refresh", h.Refresh)
		r.Get("/export", h.Export)
		if h.jobs != nil {
			r.Get("/jobs", h.ListJobs)
			r.Post("/jobs/{name}/run", h.RunJob)
			r.Put("/jobs/{name}/schedule", h.UpdateJobSchedule)
			r.Delete("/jobs/{name}/schedule", h.ResetJobSchedule)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, ierr.ErrCodeNotFound, "No such endpoint", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})
	return r
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status      string    `json:"status"`
	Version     string    `json:"version"`
	RefreshedAt time.Time `json:"refreshedAt"`
}

// Status returns the API status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{
		Status:      "ok",
		Version:     "v1",
		RefreshedAt: h.dir.RefreshStatus().LastSuccess,
	}, nil)
}

// requireAdmin rejects requests from non-admin actors.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := middleware.Actor(r)
		switch {
		case a.IsAnonymous():
			WriteError(w, http.StatusUnauthorized, ierr.ErrCodeUnauthenticated,
				"Send a bearer token in the Authorization header", nil)
		case !a.IsAdmin():
			WriteError(w, http.StatusForbidden, ierr.ErrCodePermissionDenied,
				"Admin role required", map[string]string{"role": roleOf(a)})
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func roleOf(a model.Actor) string {
	if a.Role == "" {
		return model.RoleUser
	}
	return a.Role
}
