// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for bearer-token
// authentication, rate limiting and request timeouts.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/ibiza-nights/internal/model"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser holds the authenticated model.User.
const ContextKeyUser ContextKey = "user"

// UserFinder looks users up by bearer token. *store.UserRepository
// implements it.
type UserFinder interface {
	FindByToken(ctx context.Context, token string) (model.User, bool, error)
}

// TokenAuth creates middleware that authenticates "Authorization: Bearer"
// requests against the users table. Requests without the header continue
// anonymously; a malformed header or unknown token is rejected with 401.
func TokenAuth(users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") {
				WriteAPIError(w, http.StatusUnauthorized, "unauthenticated", "Invalid Authorization header format. Use: Bearer <token>", nil)
				return
			}
			token = strings.TrimSpace(token)
			if token == "" {
				WriteAPIError(w, http.StatusUnauthorized, "unauthenticated", "Bearer token is empty", nil)
				return
			}

			user, found, err := users.FindByToken(r.Context(), token)
			if err != nil {
				slog.Error("failed to validate bearer token", "error", err)
				WriteAPIError(w, http.StatusServiceUnavailable, "connection_error", "Failed to validate token", nil)
				return
			}
			if !found {
				WriteAPIError(w, http.StatusUnauthorized, "unauthenticated", "Invalid token", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a context carrying u.
func WithUser(ctx context.Context, u model.User) context.Context {
	return context.WithValue(ctx, ContextKeyUser, u)
}

// GetUser retrieves the authenticated user from the request context.
// Returns nil for anonymous requests.
func GetUser(r *http.Request) *model.User {
	u, ok := r.Context().Value(ContextKeyUser).(model.User)
	if !ok {
		return nil
	}
	return &u
}

// Actor returns the identity a request acts under. Anonymous requests get
// the zero Actor.
func Actor(r *http.Request) model.Actor {
	if u := GetUser(r); u != nil {
		return u.Actor()
	}
	return model.Actor{}
}
