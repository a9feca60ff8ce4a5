// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const editionColumns = `id, date, hero_summary, hero_description, featured_meme_url, is_current, created_at, updated_at`

func scanEdition(row interface{ Scan(...any) error }) (Edition, error) {
	var i Edition
	err := row.Scan(
		&i.ID,
		&i.Date,
		&i.HeroSummary,
		&i.HeroDescription,
		&i.FeaturedMemeUrl,
		&i.IsCurrent,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createEdition = `-- name: CreateEdition :one
INSERT INTO editions (id, date, hero_summary, hero_description, featured_meme_url, is_current, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, 0, ?, ?)
RETURNING ` + editionColumns

type CreateEditionParams struct {
	ID              string         `json:"id"`
	Date            string         `json:"date"`
	HeroSummary     string         `json:"hero_summary"`
	HeroDescription string         `json:"hero_description"`
	FeaturedMemeUrl sql.NullString `json:"featured_meme_url"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (q *Queries) CreateEdition(ctx context.Context, arg CreateEditionParams) (Edition, error) {
	row := q.db.QueryRowContext(ctx, createEdition,
		arg.ID,
		arg.Date,
		arg.HeroSummary,
		arg.HeroDescription,
		arg.FeaturedMemeUrl,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanEdition(row)
}

const getEdition = `-- name: GetEdition :one
SELECT ` + editionColumns + ` FROM editions WHERE id = ?`

func (q *Queries) GetEdition(ctx context.Context, id string) (Edition, error) {
	return scanEdition(q.db.QueryRowContext(ctx, getEdition, id))
}

const getCurrentEdition = `-- name: GetCurrentEdition :one
SELECT ` + editionColumns + ` FROM editions WHERE is_current = 1
ORDER BY date DESC LIMIT 1`

func (q *Queries) GetCurrentEdition(ctx context.Context) (Edition, error) {
	return scanEdition(q.db.QueryRowContext(ctx, getCurrentEdition))
}

const listEditions = `-- name: ListEditions :many
SELECT ` + editionColumns + ` FROM editions ORDER BY date DESC, created_at DESC`

func (q *Queries) ListEditions(ctx context.Context) ([]Edition, error) {
	rows, err := q.db.QueryContext(ctx, listEditions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Edition
	for rows.Next() {
		i, err := scanEdition(rows)
		if err != nil {
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

const updateEdition = `-- name: UpdateEdition :one
UPDATE editions
SET date = ?, hero_summary = ?, hero_description = ?, featured_meme_url = ?, updated_at = ?
WHERE id = ?
RETURNING ` + editionColumns

type UpdateEditionParams struct {
	Date            string         `json:"date"`
	HeroSummary     string         `json:"hero_summary"`
	HeroDescription string         `json:"hero_description"`
	FeaturedMemeUrl sql.NullString `json:"featured_meme_url"`
	UpdatedAt       time.Time      `json:"updated_at"`
	ID              string         `json:"id"`
}

func (q *Queries) UpdateEdition(ctx context.Context, arg UpdateEditionParams) (Edition, error) {
	row := q.db.QueryRowContext(ctx, updateEdition,
		arg.Date,
		arg.HeroSummary,
		arg.HeroDescription,
		arg.FeaturedMemeUrl,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanEdition(row)
}

const deleteEdition = `-- name: DeleteEdition :execrows
DELETE FROM editions WHERE id = ?`

func (q *Queries) DeleteEdition(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEdition, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const clearCurrentEditionsExcept = `-- name: ClearCurrentEditionsExcept :exec
UPDATE editions SET is_current = 0, updated_at = ? WHERE id <> ? AND is_current = 1`

type ClearCurrentEditionsExceptParams struct {
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
}

func (q *Queries) ClearCurrentEditionsExcept(ctx context.Context, arg ClearCurrentEditionsExceptParams) error {
	_, err := q.db.ExecContext(ctx, clearCurrentEditionsExcept, arg.UpdatedAt, arg.ID)
	return err
}

const markEditionCurrent = `-- name: MarkEditionCurrent :execrows
UPDATE editions SET is_current = 1, updated_at = ? WHERE id = ?`

type MarkEditionCurrentParams struct {
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
}

func (q *Queries) MarkEditionCurrent(ctx context.Context, arg MarkEditionCurrentParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markEditionCurrent, arg.UpdatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countEditions = `-- name: CountEditions :one
SELECT COUNT(*) FROM editions`

func (q *Queries) CountEditions(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countEditions).Scan(&count)
	return count, err
}
