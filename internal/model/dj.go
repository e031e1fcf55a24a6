// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// DJ is a performing artist.
type DJ struct {
	Base
	Genres []string `json:"genres" validate:"dive,notblank"`
	Bio    string   `json:"bio,omitempty" validate:"max=10000"`
}

// Kind implements Entity.
func (DJ) Kind() Kind { return KindDJ }
