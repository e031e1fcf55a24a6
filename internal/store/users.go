// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	ierr "github.com/olegiv/ibiza-nights/internal/errors"
	"github.com/olegiv/ibiza-nights/internal/model"
	"github.com/olegiv/ibiza-nights/internal/validator"
)

// UserRepository stores accounts and their API token hashes.
type UserRepository struct {
	table table[model.User]
	clock func() time.Time
	newID func() string
}

// Create stores a new user. The plaintext token is hashed before storage
// and never persisted.
func (r *UserRepository) Create(ctx context.Context, u model.User, token string) (model.User, error) {
	now := r.clock()
	u.ID = r.newID()
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	u.TokenHash = ""
	if token != "" {
		u.TokenHash = model.HashToken(token)
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	if err := validator.Struct(u); err != nil {
		return model.User{}, err
	}

	existing, err := r.table.selectWhere(ctx, eq("email", u.Email))
	if err != nil {
		return model.User{}, err
	}
	if len(existing) > 0 {
		return model.User{}, ierr.NewErrorf("user %s already exists", u.Email).
			WithHint("A user with this email already exists").
			Mark(ierr.ErrConflict)
	}

	if err := r.table.insert(ctx, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// FindByID returns the user with the given id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, bool, error) {
	return r.findOne(ctx, eq("id", id))
}

// FindByEmail returns the user with the given email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, bool, error) {
	return r.findOne(ctx, eq("email", strings.ToLower(strings.TrimSpace(email))))
}

// FindByToken resolves a bearer token to its user.
func (r *UserRepository) FindByToken(ctx context.Context, token string) (model.User, bool, error) {
	if token == "" {
		return model.User{}, false, nil
	}
	return r.findOne(ctx, eq("token_hash", model.HashToken(token)))
}

// List returns all users ordered by name.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	users, err := r.table.selectWhere(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(users, func(a, b model.User) int {
		return cmp.Or(cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)), cmp.Compare(a.ID, b.ID))
	})
	return users, nil
}

// RotateToken replaces the user's token hash.
func (r *UserRepository) RotateToken(ctx context.Context, id, token string) error {
	u, ok, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ierr.NewErrorf("user %s not found", id).Mark(ierr.ErrNotFound)
	}
	prev := u.UpdatedAt
	u.TokenHash = model.HashToken(token)
	u.UpdatedAt = r.clock()

	matched, err := r.table.update(ctx, id, u, eq("updated_at", prev))
	if err != nil {
		return err
	}
	if !matched {
		return ierr.NewErrorf("user %s was modified concurrently", id).Mark(ierr.ErrConflict)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, cond condition) (model.User, bool, error) {
	users, err := r.table.selectWhere(ctx, cond)
	if err != nil || len(users) == 0 {
		return model.User{}, false, err
	}
	return users[0], true, nil
}
