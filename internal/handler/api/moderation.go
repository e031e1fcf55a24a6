// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ibiza-nights/internal/middleware"
	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/service"
)

// Queue handles GET /moderation/queue.
func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	queue, err := h.dir.PendingQueue(r.Context(), middleware.Actor(r))
	if err != nil {
		h.writeServiceError(w, r, "moderation.queue", err)
		return
	}
	WriteList(w, queue)
}

// Lineup handles GET /events/{id}/lineup.
func (h *Handler) Lineup(w http.ResponseWriter, r *http.Request) {
	lineup, err := h.dir.ResolveEvent(r.Context(), middleware.Actor(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, "event.lineup", err)
		return
	}
	WriteSuccess(w, lineup, nil)
}

// Duplicates handles GET /moderation/duplicates/{kind}.
func (h *Handler) Duplicates(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeServiceError(w, r, "moderation.duplicates", err)
		return
	}
	switch kind {
	case model.KindEvent:
		listDuplicates(h, w, r, h.dir.Events)
	case model.KindDJ:
		listDuplicates(h, w, r, h.dir.DJs)
	case model.KindClub:
		listDuplicates(h, w, r, h.dir.Clubs)
	case model.KindPromoter:
		listDuplicates(h, w, r, h.dir.Promoters)
	}
}

// ResolveRequest names the duplicate group to resolve.
type ResolveRequest struct {
	Key string `json:"key"`
}

// ResolveDuplicates handles POST /moderation/duplicates/{kind}/resolve.
func (h *Handler) ResolveDuplicates(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeServiceError(w, r, "moderation.resolve", err)
		return
	}
	var req ResolveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Key == "" {
		WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed",
			map[string]string{"key": "is required"})
		return
	}

	switch kind {
	case model.KindEvent:
		resolveDuplicates(h, w, r, h.dir.Events, req.Key)
	case model.KindDJ:
		resolveDuplicates(h, w, r, h.dir.DJs, req.Key)
	case model.KindClub:
		resolveDuplicates(h, w, r, h.dir.Clubs, req.Key)
	case model.KindPromoter:
		resolveDuplicates(h, w, r, h.dir.Promoters, req.Key)
	}
}

func listDuplicates[T model.Entity](h *Handler, w http.ResponseWriter, r *http.Request, c *service.Catalog[T]) {
	groups, err := c.Duplicates(r.Context(), middleware.Actor(r))
	if err != nil {
		h.writeServiceError(w, r, "moderation.duplicates", err)
		return
	}
	WriteList(w, groups)
}

func resolveDuplicates[T model.Entity](h *Handler, w http.ResponseWriter, r *http.Request, c *service.Catalog[T], key string) {
	res, err := c.ResolveDuplicates(r.Context(), middleware.Actor(r), key)
	if err != nil {
		h.writeServiceError(w, r, "moderation.resolve", err)
		return
	}
	WriteSuccess(w, res, nil)
}
