// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"

	"github.com/olegiv/ibiza-nights/internal/model"
)

// Key prefixes. Every cached entry for a kind lives under one of
// KindPrefixes(kind) so InvalidateKind reaches all of them.
const (
	listPrefix = "list:"
	slugPrefix = "slug:"
)

// ListKey is the key of a kind's listing filtered by status ("" for all).
func ListKey(kind model.Kind, status model.Status) string {
	if status == "" {
		status = "all"
	}
	return listPrefix + string(kind) + ":" + string(status)
}

// SlugKey is the key of a single record looked up by slug.
func SlugKey(kind model.Kind, slug string) string {
	return slugPrefix + string(kind) + ":" + slug
}

// KindPrefixes returns the prefixes covering every entry for kind.
func KindPrefixes(kind model.Kind) []string {
	return []string{listPrefix + string(kind) + ":", slugPrefix + string(kind) + ":"}
}

// InvalidateKind drops every cached listing and slug lookup for kind.
func InvalidateKind(ctx context.Context, c Cacher, kind model.Kind) error {
	for _, p := range KindPrefixes(kind) {
		if err := c.DeleteByPrefix(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
