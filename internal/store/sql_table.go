// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// sqlTable implements table over database/sql through sqlx. Statements are
// written with ? placeholders and rebound for the connected driver.
type sqlTable[T, R any] struct {
	db      *sqlx.DB
	name    string
	codec   codec[T, R]
	columns []string

	insertSQL string
	updateSQL string
}

func newSQLTable[T, R any](db *sqlx.DB, name string, c codec[T, R]) *sqlTable[T, R] {
	cols := columnsOf[R]()

	named := make([]string, len(cols))
	assignments := make([]string, 0, len(cols))
	for i, col := range cols {
		named[i] = ":" + col
		if col != "id" {
			assignments = append(assignments, col+" = :"+col)
		}
	}

	return &sqlTable[T, R]{
		db:      db,
		name:    name,
		codec:   c,
		columns: cols,
		insertSQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			name, strings.Join(cols, ", "), strings.Join(named, ", ")),
		updateSQL: fmt.Sprintf("UPDATE %s SET %s",
			name, strings.Join(assignments, ", ")),
	}
}

func (t *sqlTable[T, R]) selectWhere(ctx context.Context, conds ...condition) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(t.columns, ", "), t.name)
	where, args := whereClause(conds)
	query += where

	var rows []R
	if err := t.db.SelectContext(ctx, &rows, t.db.Rebind(query), args...); err != nil {
		return nil, backendError(err, "select", t.name)
	}

	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = t.codec.fromRow(r)
	}
	return out, nil
}

func (t *sqlTable[T, R]) insert(ctx context.Context, v T) error {
	if _, err := t.db.NamedExecContext(ctx, t.insertSQL, t.codec.toRow(v)); err != nil {
		return backendError(err, "insert", t.name)
	}
	return nil
}

func (t *sqlTable[T, R]) update(ctx context.Context, id string, v T, guards ...condition) (bool, error) {
	// Named parameters come from the row; the id and guard values follow
	// as positional arguments.
	query, args, err := sqlx.Named(t.updateSQL, t.codec.toRow(v))
	if err != nil {
		return false, backendError(err, "update", t.name)
	}
	where, whereArgs := whereClause(append([]condition{eq("id", id)}, guards...))
	query += where
	args = append(args, whereArgs...)

	res, err := t.db.ExecContext(ctx, t.db.Rebind(query), args...)
	if err != nil {
		return false, backendError(err, "update", t.name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, backendError(err, "update", t.name)
	}
	return n > 0, nil
}

func (t *sqlTable[T, R]) delete(ctx context.Context, id string) (bool, error) {
	query := t.db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.name))
	res, err := t.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, backendError(err, "delete", t.name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, backendError(err, "delete", t.name)
	}
	return n > 0, nil
}

func (t *sqlTable[T, R]) deleteBefore(ctx context.Context, column string, cutoff time.Time) (int64, error) {
	query := t.db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE %s < ?", t.name, column))
	res, err := t.db.ExecContext(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, backendError(err, "prune", t.name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, backendError(err, "prune", t.name)
	}
	return n, nil
}

func (t *sqlTable[T, R]) ping(ctx context.Context) error {
	if err := t.db.PingContext(ctx); err != nil {
		return backendError(err, "ping", t.name)
	}
	return nil
}

func whereClause(conds []condition) (string, []any) {
	if len(conds) == 0 {
		return "", nil
	}
	parts := make([]string, len(conds))
	args := make([]any, len(conds))
	for i, c := range conds {
		parts[i] = c.column + " = ?"
		args[i] = c.value
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}
