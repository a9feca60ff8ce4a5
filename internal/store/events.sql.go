// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const createEvent = `-- name: CreateEvent :one
INSERT INTO events (level, category, message, actor_email, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, level, category, message, actor_email, metadata, created_at`

type CreateEventParams struct {
	Level      string         `json:"level"`
	Category   string         `json:"category"`
	Message    string         `json:"message"`
	ActorEmail sql.NullString `json:"actor_email"`
	Metadata   string         `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, createEvent,
		arg.Level,
		arg.Category,
		arg.Message,
		arg.ActorEmail,
		arg.Metadata,
		arg.CreatedAt,
	)
	var i Event
	err := row.Scan(
		&i.ID,
		&i.Level,
		&i.Category,
		&i.Message,
		&i.ActorEmail,
		&i.Metadata,
		&i.CreatedAt,
	)
	return i, err
}

// EventFilter narrows event listings; empty fields match everything.
type EventFilter struct {
	Level    string
	Category string
}

func (f EventFilter) where() sq.Eq {
	eq := sq.Eq{}
	if f.Level != "" {
		eq["level"] = f.Level
	}
	if f.Category != "" {
		eq["category"] = f.Category
	}
	return eq
}

// ListEvents returns a page of events, newest first.
func (q *Queries) ListEvents(ctx context.Context, f EventFilter, limit, offset uint64) ([]Event, error) {
	query, args, err := sq.Select("id", "level", "category", "message", "actor_email", "metadata", "created_at").
		From("events").
		Where(f.where()).
		OrderBy("created_at DESC", "id DESC").
		Limit(limit).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building events query: %w", err)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Event
	for rows.Next() {
		var i Event
		if err := rows.Scan(
			&i.ID,
			&i.Level,
			&i.Category,
			&i.Message,
			&i.ActorEmail,
			&i.Metadata,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CountEvents counts events matching the filter.
func (q *Queries) CountEvents(ctx context.Context, f EventFilter) (int64, error) {
	query, args, err := sq.Select("COUNT(*)").From("events").Where(f.where()).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building events count: %w", err)
	}
	var count int64
	err = q.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

const deleteEventsBefore = `-- name: DeleteEventsBefore :execrows
DELETE FROM events WHERE created_at < ?`

func (q *Queries) DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEventsBefore, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
