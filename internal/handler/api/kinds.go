// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ibiza-nights/internal/middleware"
	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/service"
)

// kindHandler serves the CRUD and moderation routes of one entity kind.
type kindHandler[T model.Entity] struct {
	h       *Handler
	catalog *service.Catalog[T]
}

// mountKind registers the routes of catalog on r.
func mountKind[T model.Entity](r chi.Router, h *Handler, catalog *service.Catalog[T]) {
	k := &kindHandler[T]{h: h, catalog: catalog}
	r.Get("/", k.list)
	r.Post("/", k.create)
	r.Get("/slug/{slug}", k.getBySlug)
	r.Get("/{id}", k.get)
	r.Patch("/{id}", k.update)
	r.Delete("/{id}", k.delete)
	r.Post("/{id}/approve", k.decide(model.DecisionApprove))
	r.Post("/{id}/reject", k.decide(model.DecisionReject))
}

func (k *kindHandler[T]) op(name string) string {
	return string(k.catalog.Kind()) + "." + name
}

// list handles GET /{kind}?status=.
func (k *kindHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	var f model.Filter
	if s := r.URL.Query().Get("status"); s != "" {
		st, err := model.ParseStatus(s)
		if err != nil {
			k.h.writeServiceError(w, r, k.op("list"), err)
			return
		}
		f.Status = st
	}

	items, err := k.catalog.List(r.Context(), middleware.Actor(r), f)
	if err != nil {
		k.h.writeServiceError(w, r, k.op("list"), err)
		return
	}
	WriteList(w, items)
}

// get handles GET /{kind}/{id}.
func (k *kindHandler[T]) get(w http.ResponseWriter, r *http.Request) {
	v, err := k.catalog.Get(r.Context(), middleware.Actor(r), chi.URLParam(r, "id"))
	if err != nil {
		k.h.writeServiceError(w, r, k.op("get"), err)
		return
	}
	WriteSuccess(w, v, nil)
}

// getBySlug handles GET /{kind}/slug/{slug}.
func (k *kindHandler[T]) getBySlug(w http.ResponseWriter, r *http.Request) {
	v, err := k.catalog.GetBySlug(r.Context(), middleware.Actor(r), chi.URLParam(r, "slug"))
	if err != nil {
		k.h.writeServiceError(w, r, k.op("getBySlug"), err)
		return
	}
	WriteSuccess(w, v, nil)
}

// create handles POST /{kind}. Server-assigned fields in the body are
// ignored.
func (k *kindHandler[T]) create(w http.ResponseWriter, r *http.Request) {
	var v T
	if !decodeBody(w, r, &v) {
		return
	}

	created, err := k.catalog.Create(r.Context(), middleware.Actor(r), v)
	if err != nil {
		k.h.writeServiceError(w, r, k.op("create"), err)
		return
	}
	WriteCreated(w, created)
}

// update handles PATCH /{kind}/{id}. Fields present in the body replace
// the stored ones; absent fields are kept.
func (k *kindHandler[T]) update(w http.ResponseWriter, r *http.Request) {
	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	var probe T
	if !unmarshalBody(w, raw, &probe) {
		return
	}

	updated, err := k.catalog.Update(r.Context(), middleware.Actor(r), chi.URLParam(r, "id"), func(v *T) {
		// raw already decoded into probe, so this cannot fail.
		_ = json.Unmarshal(raw, v)
	})
	if err != nil {
		k.h.writeServiceError(w, r, k.op("update"), err)
		return
	}
	WriteSuccess(w, updated, nil)
}

// delete handles DELETE /{kind}/{id}.
func (k *kindHandler[T]) delete(w http.ResponseWriter, r *http.Request) {
	if err := k.catalog.Delete(r.Context(), middleware.Actor(r), chi.URLParam(r, "id")); err != nil {
		k.h.writeServiceError(w, r, k.op("delete"), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decide handles POST /{kind}/{id}/approve and /reject.
func (k *kindHandler[T]) decide(d model.Decision) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := k.catalog.Decide(r.Context(), middleware.Actor(r), chi.URLParam(r, "id"), d)
		if err != nil {
			k.h.writeServiceError(w, r, k.op(string(d)), err)
			return
		}
		WriteSuccess(w, v, nil)
	}
}
