// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/store"
	"github.com/olegiv/dose-go/internal/util"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// UserService manages the admin allow-list.
type UserService struct {
	db         *sql.DB
	superAdmin string
	events     *EventService
}

// NewUserService creates a UserService. superAdmin is the always-admitted
// address that can never be changed through the allow-list.
func NewUserService(db *sql.DB, superAdmin string, events *EventService) *UserService {
	return &UserService{db: db, superAdmin: strings.TrimSpace(superAdmin), events: events}
}

// SuperAdmin returns the configured super admin address.
func (s *UserService) SuperAdmin() string {
	return s.superAdmin
}

// IsSuperAdmin reports whether email is the super admin, ignoring case.
func (s *UserService) IsSuperAdmin(email string) bool {
	return model.SameEmail(email, s.superAdmin)
}

// List returns every allowed user, newest first.
func (s *UserService) List(ctx context.Context) ([]store.AllowedUser, error) {
	return store.New(s.db).ListAllowedUsers(ctx)
}

// Lookup returns the allowed user with email, matched case-insensitively.
func (s *UserService) Lookup(ctx context.Context, email string) (store.AllowedUser, error) {
	u, err := store.New(s.db).GetAllowedUserByEmail(ctx, strings.TrimSpace(email))
	if store.IsNotFound(err) {
		return u, ErrNotFound
	}
	return u, err
}

// Add puts email on the allow-list with role. The address is stored as
// typed; an existing entry differing only in case is a duplicate.
func (s *UserService) Add(ctx context.Context, actor, email, name, role string) (store.AllowedUser, error) {
	email = strings.TrimSpace(email)
	role = strings.TrimSpace(role)
	if role == "" {
		role = model.RoleViewer
	}

	v := validator{}
	v.check(email != "", "email", "Email is required")
	v.check(email == "" || IsValidEmail(email), "email", "Enter a valid email address")
	v.check(model.IsValidRole(role), "role", "Role must be admin, editor or viewer")
	if err := v.err(); err != nil {
		return store.AllowedUser{}, err
	}

	if s.IsSuperAdmin(email) {
		return store.AllowedUser{}, ErrDuplicateEmail
	}

	q := store.New(s.db)
	if _, err := q.GetAllowedUserByEmail(ctx, email); err == nil {
		return store.AllowedUser{}, ErrDuplicateEmail
	} else if !store.IsNotFound(err) {
		return store.AllowedUser{}, fmt.Errorf("checking email: %w", err)
	}

	u, err := q.CreateAllowedUser(ctx, store.CreateAllowedUserParams{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      util.NullStringTrimmed(name),
		Role:      role,
		AddedBy:   util.NullStringTrimmed(actor),
		CreatedAt: time.Now().UTC(),
	})
	if store.IsUniqueViolation(err) {
		return u, ErrDuplicateEmail
	}
	if err != nil {
		return u, fmt.Errorf("adding user: %w", err)
	}

	s.logEvent(ctx, actor, "Allowed user added", map[string]any{"email": u.Email, "role": u.Role})
	return u, nil
}

// SetRole changes the role of an allowed user. The super admin and the
// acting admin's own row are protected.
func (s *UserService) SetRole(ctx context.Context, actor, id, role string) (store.AllowedUser, error) {
	role = strings.TrimSpace(role)
	if !model.IsValidRole(role) {
		return store.AllowedUser{}, &ValidationError{Fields: map[string]string{"role": "Role must be admin, editor or viewer"}}
	}

	q := store.New(s.db)
	u, err := s.protectedLookup(ctx, q, actor, id)
	if err != nil {
		return u, err
	}

	updated, err := q.UpdateAllowedUserRole(ctx, store.UpdateAllowedUserRoleParams{Role: role, ID: id})
	if err != nil {
		return updated, fmt.Errorf("updating role: %w", err)
	}

	s.logEvent(ctx, actor, "Allowed user role changed", map[string]any{"email": u.Email, "from": u.Role, "to": role})
	return updated, nil
}

// Remove deletes an allowed user. The super admin and the acting admin's
// own row are protected.
func (s *UserService) Remove(ctx context.Context, actor, id string) (store.AllowedUser, error) {
	q := store.New(s.db)
	u, err := s.protectedLookup(ctx, q, actor, id)
	if err != nil {
		return u, err
	}

	n, err := q.DeleteAllowedUser(ctx, id)
	if err != nil {
		return u, fmt.Errorf("removing user: %w", err)
	}
	if n == 0 {
		return u, ErrNotFound
	}

	s.logEvent(ctx, actor, "Allowed user removed", map[string]any{"email": u.Email})
	return u, nil
}

// CanModify reports whether actor may change the row for email.
func (s *UserService) CanModify(actor, email string) bool {
	return !s.IsSuperAdmin(email) && !model.SameEmail(actor, email)
}

func (s *UserService) protectedLookup(ctx context.Context, q *store.Queries, actor, id string) (store.AllowedUser, error) {
	u, err := q.GetAllowedUser(ctx, id)
	if store.IsNotFound(err) {
		return u, ErrNotFound
	}
	if err != nil {
		return u, fmt.Errorf("loading user: %w", err)
	}
	if !s.CanModify(actor, u.Email) {
		return u, ErrProtectedUser
	}
	return u, nil
}

func (s *UserService) logEvent(ctx context.Context, actor, message string, metadata map[string]any) {
	if s.events != nil {
		_ = s.events.LogInfo(ctx, model.EventCategoryUser, message, actor, metadata)
	}
}
