// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const themeColumns = `id, edition_id, name, slug, sort_order, created_at`

func scanTheme(row interface{ Scan(...any) error }) (Theme, error) {
	var i Theme
	err := row.Scan(
		&i.ID,
		&i.EditionID,
		&i.Name,
		&i.Slug,
		&i.SortOrder,
		&i.CreatedAt,
	)
	return i, err
}

const createTheme = `-- name: CreateTheme :one
INSERT INTO themes (id, edition_id, name, slug, sort_order, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + themeColumns

type CreateThemeParams struct {
	ID        string    `json:"id"`
	EditionID string    `json:"edition_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	SortOrder int64     `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

func (q *Queries) CreateTheme(ctx context.Context, arg CreateThemeParams) (Theme, error) {
	row := q.db.QueryRowContext(ctx, createTheme,
		arg.ID,
		arg.EditionID,
		arg.Name,
		arg.Slug,
		arg.SortOrder,
		arg.CreatedAt,
	)
	return scanTheme(row)
}

const getTheme = `-- name: GetTheme :one
SELECT ` + themeColumns + ` FROM themes WHERE id = ?`

func (q *Queries) GetTheme(ctx context.Context, id string) (Theme, error) {
	return scanTheme(q.db.QueryRowContext(ctx, getTheme, id))
}

const listThemesByEdition = `-- name: ListThemesByEdition :many
SELECT ` + themeColumns + ` FROM themes WHERE edition_id = ? ORDER BY sort_order, created_at`

func (q *Queries) ListThemesByEdition(ctx context.Context, editionID string) ([]Theme, error) {
	rows, err := q.db.QueryContext(ctx, listThemesByEdition, editionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Theme
	for rows.Next() {
		i, err := scanTheme(rows)
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

const nextThemeSortOrder = `-- name: NextThemeSortOrder :one
SELECT COALESCE(MAX(sort_order) + 1, 0) FROM themes WHERE edition_id = ?`

func (q *Queries) NextThemeSortOrder(ctx context.Context, editionID string) (int64, error) {
	var next int64
	err := q.db.QueryRowContext(ctx, nextThemeSortOrder, editionID).Scan(&next)
	return next, err
}

const updateTheme = `-- name: UpdateTheme :one
UPDATE themes SET name = ?, slug = ?, sort_order = ? WHERE id = ?
RETURNING ` + themeColumns

type UpdateThemeParams struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	SortOrder int64  `json:"sort_order"`
	ID        string `json:"id"`
}

func (q *Queries) UpdateTheme(ctx context.Context, arg UpdateThemeParams) (Theme, error) {
	row := q.db.QueryRowContext(ctx, updateTheme,
		arg.Name,
		arg.Slug,
		arg.SortOrder,
		arg.ID,
	)
	return scanTheme(row)
}

const unassignThemePosts = `-- name: UnassignThemePosts :exec
UPDATE posts SET theme_id = NULL WHERE theme_id = ?`

func (q *Queries) UnassignThemePosts(ctx context.Context, themeID string) error {
	_, err := q.db.ExecContext(ctx, unassignThemePosts, themeID)
	return err
}

const deleteTheme = `-- name: DeleteTheme :execrows
DELETE FROM themes WHERE id = ?`

func (q *Queries) DeleteTheme(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTheme, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteThemesByEdition = `-- name: DeleteThemesByEdition :exec
DELETE FROM themes WHERE edition_id = ?`

func (q *Queries) DeleteThemesByEdition(ctx context.Context, editionID string) error {
	_, err := q.db.ExecContext(ctx, deleteThemesByEdition, editionID)
	return err
}
