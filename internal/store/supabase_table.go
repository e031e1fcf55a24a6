// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nedpals/supabase-go"
)

// supabaseTable implements table over Supabase's PostgREST endpoint.
// Writes rely on PostgREST echoing the affected rows back; an empty echo
// means no row matched the filters.
type supabaseTable[T, R any] struct {
	client *supabase.Client
	name   string
	codec  codec[T, R]
}

func newSupabaseTable[T, R any](client *supabase.Client, name string, c codec[T, R]) *supabaseTable[T, R] {
	return &supabaseTable[T, R]{client: client, name: name, codec: c}
}

// filterValue renders a condition value the way PostgREST expects it in an
// eq.<value> query parameter.
func filterValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

func (t *supabaseTable[T, R]) selectRows(ctx context.Context, conds ...condition) ([]R, error) {
	if err := ctx.Err(); err != nil {
		return nil, backendError(err, "select", t.name)
	}

	q := t.client.DB.From(t.name).Select("*")
	for _, c := range conds {
		q.Eq(c.column, filterValue(c.value))
	}

	var rows []R
	if err := q.Execute(&rows); err != nil {
		return nil, backendError(err, "select", t.name)
	}
	return rows, nil
}

func (t *supabaseTable[T, R]) selectWhere(ctx context.Context, conds ...condition) ([]T, error) {
	rows, err := t.selectRows(ctx, conds...)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = t.codec.fromRow(r)
	}
	return out, nil
}

func (t *supabaseTable[T, R]) insert(ctx context.Context, v T) error {
	if err := ctx.Err(); err != nil {
		return backendError(err, "insert", t.name)
	}

	var echoed []R
	if err := t.client.DB.From(t.name).Insert(t.codec.toRow(v)).Execute(&echoed); err != nil {
		return backendError(err, "insert", t.name)
	}
	return nil
}

func (t *supabaseTable[T, R]) update(ctx context.Context, id string, v T, guards ...condition) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, backendError(err, "update", t.name)
	}

	row := t.codec.toRow(v)
	q := t.client.DB.From(t.name).Update(row).Eq("id", id)
	for _, g := range guards {
		q.Eq(g.column, filterValue(g.value))
	}

	var echoed []R
	if err := q.Execute(&echoed); err != nil {
		return false, backendError(err, "update", t.name)
	}
	return len(echoed) > 0, nil
}

func (t *supabaseTable[T, R]) delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, backendError(err, "delete", t.name)
	}

	var echoed []R
	if err := t.client.DB.From(t.name).Delete().Eq("id", id).Execute(&echoed); err != nil {
		return false, backendError(err, "delete", t.name)
	}
	return len(echoed) > 0, nil
}

func (t *supabaseTable[T, R]) deleteBefore(ctx context.Context, column string, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, backendError(err, "prune", t.name)
	}

	var echoed []R
	if err := t.client.DB.From(t.name).Delete().Lt(column, filterValue(cutoff)).Execute(&echoed); err != nil {
		return 0, backendError(err, "prune", t.name)
	}
	return int64(len(echoed)), nil
}

func (t *supabaseTable[T, R]) ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return backendError(err, "ping", t.name)
	}

	var rows []R
	q := t.client.DB.From(t.name).Select("id").Eq("id", "00000000-0000-0000-0000-000000000000")
	if err := q.Execute(&rows); err != nil {
		return backendError(err, "ping", t.name)
	}
	return nil
}
