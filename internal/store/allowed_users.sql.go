// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/dose-go/internal/model"
)

const allowedUserColumns = `id, email, name, role, added_by, created_at`

func scanAllowedUser(row interface{ Scan(...any) error }) (AllowedUser, error) {
	var i AllowedUser
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Name,
		&i.Role,
		&i.AddedBy,
		&i.CreatedAt,
	)
	return i, err
}

const createAllowedUser = `-- name: CreateAllowedUser :one
INSERT INTO allowed_users (id, email, email_key, name, role, added_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + allowedUserColumns

type CreateAllowedUserParams struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Name      sql.NullString `json:"name"`
	Role      string         `json:"role"`
	AddedBy   sql.NullString `json:"added_by"`
	CreatedAt time.Time      `json:"created_at"`
}

// CreateAllowedUser stores email as typed and its normalized form in
// email_key, which carries the uniqueness constraint.
func (q *Queries) CreateAllowedUser(ctx context.Context, arg CreateAllowedUserParams) (AllowedUser, error) {
	row := q.db.QueryRowContext(ctx, createAllowedUser,
		arg.ID,
		arg.Email,
		model.NormalizeEmail(arg.Email),
		arg.Name,
		arg.Role,
		arg.AddedBy,
		arg.CreatedAt,
	)
	return scanAllowedUser(row)
}

const getAllowedUser = `-- name: GetAllowedUser :one
SELECT ` + allowedUserColumns + ` FROM allowed_users WHERE id = ?`

func (q *Queries) GetAllowedUser(ctx context.Context, id string) (AllowedUser, error) {
	return scanAllowedUser(q.db.QueryRowContext(ctx, getAllowedUser, id))
}

const getAllowedUserByEmail = `-- name: GetAllowedUserByEmail :one
SELECT ` + allowedUserColumns + ` FROM allowed_users WHERE email_key = ?`

// GetAllowedUserByEmail matches on the normalized address, so the lookup
// ignores case for any script.
func (q *Queries) GetAllowedUserByEmail(ctx context.Context, email string) (AllowedUser, error) {
	return scanAllowedUser(q.db.QueryRowContext(ctx, getAllowedUserByEmail, model.NormalizeEmail(email)))
}

const listAllowedUsers = `-- name: ListAllowedUsers :many
SELECT ` + allowedUserColumns + ` FROM allowed_users ORDER BY created_at DESC, email`

func (q *Queries) ListAllowedUsers(ctx context.Context) ([]AllowedUser, error) {
	rows, err := q.db.QueryContext(ctx, listAllowedUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AllowedUser
	for rows.Next() {
		i, err := scanAllowedUser(rows)
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

const updateAllowedUserRole = `-- name: UpdateAllowedUserRole :one
UPDATE allowed_users SET role = ? WHERE id = ?
RETURNING ` + allowedUserColumns

type UpdateAllowedUserRoleParams struct {
	Role string `json:"role"`
	ID   string `json:"id"`
}

func (q *Queries) UpdateAllowedUserRole(ctx context.Context, arg UpdateAllowedUserRoleParams) (AllowedUser, error) {
	return scanAllowedUser(q.db.QueryRowContext(ctx, updateAllowedUserRole, arg.Role, arg.ID))
}

const deleteAllowedUser = `-- name: DeleteAllowedUser :execrows
DELETE FROM allowed_users WHERE id = ?`

func (q *Queries) DeleteAllowedUser(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAllowedUser, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countAllowedUsers = `-- name: CountAllowedUsers :one
SELECT COUNT(*) FROM allowed_users`

func (q *Queries) CountAllowedUsers(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAllowedUsers).Scan(&count)
	return count, err
}
