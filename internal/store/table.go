// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	ierr "github.com/olegiv/ibiza-nights/internal/errors"
)

// condition is an equality predicate on a single column.
type condition struct {
	column string
	value  any
}

func eq(column string, value any) condition {
	return condition{column: column, value: value}
}

// table is the persistence contract shared by the SQL and Supabase backends.
// update writes the full row and reports whether a row matched both the id
// and every guard condition.
type table[T any] interface {
	selectWhere(ctx context.Context, conds ...condition) ([]T, error)
	insert(ctx context.Context, v T) error
	update(ctx context.Context, id string, v T, guards ...condition) (bool, error)
	delete(ctx context.Context, id string) (bool, error)
	deleteBefore(ctx context.Context, column string, cutoff time.Time) (int64, error)
	ping(ctx context.Context) error
}

// columnsOf lists the db-tagged columns of a row type, flattening embedded
// structs the same way sqlx does.
func columnsOf[R any]() []string {
	return appendColumns(nil, reflect.TypeOf((*R)(nil)).Elem())
}

func appendColumns(cols []string, t reflect.Type) []string {
	for i := range t.NumField() {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			cols = appendColumns(cols, f.Type)
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, tag)
	}
	return cols
}

// backendError classifies a backend failure as a connection error so that
// callers can tell "the store is unreachable" from "the record is missing".
func backendError(err error, op, tableName string) error {
	return ierr.WithError(err).
		WithMessage(fmt.Sprintf("%s %s", op, tableName)).
		WithHintf("The %s store could not complete the request", strings.TrimSuffix(tableName, "s")).
		Mark(ierr.ErrConnection)
}
