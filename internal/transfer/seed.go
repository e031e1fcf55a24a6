// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"bytes"
	"context"
	_ "embed"

	"github.com/olegiv/ibiza-nights/internal/model"
)

//go:embed seed.json
var seedJSON []byte

// EnvProduction is the environment in which the development dataset is
// never loaded.
const EnvProduction = "production"

// SeedOptions parameterizes Seed by environment.
type SeedOptions struct {
	Environment string
	// AdminToken, when set, ensures an admin user holding this token.
	AdminToken string
	AdminEmail string
	AdminName  string
}

// SeedDataset returns the embedded development dataset.
func SeedDataset() (*Dataset, error) {
	return Read(bytes.NewReader(seedJSON))
}

// Seed ensures the bootstrap admin and, outside production, imports the
// embedded development dataset. It is safe to run on every start.
func (i *Importer) Seed(ctx context.Context, opts SeedOptions) (*Result, error) {
	if opts.AdminToken != "" {
		if err := i.EnsureAdmin(ctx, opts); err != nil {
			return nil, err
		}
	}

	if opts.Environment == EnvProduction {
		i.logger.Info("skipping development dataset", "environment", opts.Environment)
		return newResult(false), nil
	}

	ds, err := SeedDataset()
	if err != nil {
		return nil, err
	}
	return i.Import(ctx, ds, ImportOptions{})
}

// EnsureAdmin creates the bootstrap admin, or rotates its token when the
// configured one changed.
func (i *Importer) EnsureAdmin(ctx context.Context, opts SeedOptions) error {
	users := i.store.Users

	holder, found, err := users.FindByToken(ctx, opts.AdminToken)
	if err != nil {
		return err
	}
	if found && holder.Role == model.RoleAdmin {
		return nil
	}

	admin, found, err := users.FindByEmail(ctx, opts.AdminEmail)
	if err != nil {
		return err
	}
	if found {
		i.logger.Info("rotating bootstrap admin token", "email", admin.Email)
		return users.RotateToken(ctx, admin.ID, opts.AdminToken)
	}

	name := opts.AdminName
	if name == "" {
		name = "Administrator"
	}
	created, err := users.Create(ctx, model.User{
		Name:  name,
		Email: opts.AdminEmail,
		Role:  model.RoleAdmin,
	}, opts.AdminToken)
	if err != nil {
		return err
	}
	i.logger.Info("bootstrap admin created", "id", created.ID, "email", created.Email)
	return nil
}
