// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ibiza-nights/internal/cache"
	"github.com/olegiv/ibiza-nights/internal/middleware"
	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/scheduler"
	"github.com/olegiv/ibiza-nights/internal/service"
	"github.com/olegiv/ibiza-nights/internal/store"
	"github.com/olegiv/ibiza-nights/internal/testutil"
)

// Bearer tokens of the users created by newTestAPI.
const (
	aliceToken = "alice-token"
	bobToken   = "bob-token"
	modToken   = "moderator-token"
	adminToken = "admin-token"
)

type testAPI struct {
	t      *testing.T
	router http.Handler
	dir    *service.Directory
	store  *store.Store
	users  map[string]model.User
}

// newTestAPI serves the API under /api/v1 over a fresh SQLite store with
// four users: alice and bob (role user), a moderator and an admin.
func newTestAPI(t *testing.T, withJobs bool) *testAPI {
	t.Helper()
	clock := testutil.NewClock()
	s := testutil.TestStore(t, store.WithClock(clock.Now))
	c := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = c.Close() })
	logger := testutil.TestLoggerSilent()

	dir := service.NewDirectory(service.Config{Elevated: s, Cache: c, Logger: logger})

	users := map[string]model.User{
		aliceToken: testutil.CreateUser(t, s, "alice", model.RoleUser, aliceToken),
		bobToken:   testutil.CreateUser(t, s, "bob", model.RoleUser, bobToken),
		modToken:   testutil.CreateUser(t, s, "moderator", model.RoleModerator, modToken),
		adminToken: testutil.CreateUser(t, s, "admin", model.RoleAdmin, adminToken),
	}

	cfg := Config{Directory: dir, Store: s, Logger: logger}
	if withJobs {
		sch := scheduler.New(dir, dir.EventLog(), logger, scheduler.DefaultOptions())
		require.NoError(t, sch.Start())
		t.Cleanup(sch.Stop)
		cfg.Jobs = sch.Registry()
	}
	h := NewHandler(cfg)
	h.now = clock.Now

	r := chi.NewRouter()
	r.Use(middleware.TokenAuth(s.Users))
	r.Mount("/api/v1", h.Routes())

	return &testAPI{t: t, router: r, dir: dir, store: s, users: users}
}

// do sends a request as the holder of token ("" for anonymous).
func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, "/api/v1"+path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// decodeData decodes the data field of a success response into T.
func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) (T, *Meta) {
	t.Helper()
	var resp struct {
		Data T     `json:"data"`
		Meta *Meta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Data, resp.Meta
}

// decodeError decodes an error response.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

// createClub submits a club as the holder of token and returns it.
func (a *testAPI) createClub(token, name string) model.Club {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/clubs", token, testutil.Club(name))
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	club, _ := decodeData[model.Club](a.t, rec)
	return club
}
