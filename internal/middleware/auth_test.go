// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ibiza-nights/internal/model"
)

type fakeUsers map[string]model.User

func (f fakeUsers) FindByToken(_ context.Context, token string) (model.User, bool, error) {
	if token == "boom" {
		return model.User{}, false, errors.New("database unavailable")
	}
	u, ok := f[token]
	return u, ok, nil
}

var testUsers = fakeUsers{
	"tok-mod": {ID: "user-mod", Name: "Mia", Role: model.RoleModerator},
}

// actorEcho writes the request's actor as JSON.
func actorEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Actor(r))
	})
}

func TestTokenAuth(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantCode int
		want     model.Actor
	}{
		{name: "no header is anonymous", wantCode: http.StatusOK},
		{name: "valid token", header: "Bearer tok-mod", wantCode: http.StatusOK,
			want: model.Actor{UserID: "user-mod", Role: model.RoleModerator}},
		{name: "scheme is case insensitive", header: "bearer tok-mod", wantCode: http.StatusOK,
			want: model.Actor{UserID: "user-mod", Role: model.RoleModerator}},
		{name: "unknown token", header: "Bearer nope", wantCode: http.StatusUnauthorized},
		{name: "basic auth", header: "Basic dXNlcjpwYXNz", wantCode: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer   ", wantCode: http.StatusUnauthorized},
		{name: "no scheme", header: "tok-mod", wantCode: http.StatusUnauthorized},
		{name: "lookup failure", header: "Bearer boom", wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			TokenAuth(testUsers)(actorEcho()).ServeHTTP(rr, req)

			require.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
			if tt.wantCode != http.StatusOK {
				var apiErr APIError
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiErr))
				assert.NotEmpty(t, apiErr.Error.Code)
				return
			}
			var got model.Actor
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, GetUser(req))
	assert.True(t, Actor(req).IsAnonymous())

	u := model.User{ID: "user-1", Role: model.RoleAdmin}
	req = req.WithContext(WithUser(req.Context(), u))
	require.NotNil(t, GetUser(req))
	assert.Equal(t, "user-1", GetUser(req).ID)
	assert.True(t, Actor(req).IsAdmin())
}
