// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth decides who may use the admin dashboard and resolves
// identities through an OAuth identity provider.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/service"
	"github.com/olegiv/dose-go/internal/store"
)

// UserLookup finds an allowed user by email, ignoring case. It returns
// service.ErrNotFound when the address is not on the allow-list.
type UserLookup interface {
	Lookup(ctx context.Context, email string) (store.AllowedUser, error)
}

// Identity is an admitted user as seen by handlers.
type Identity struct {
	Email string
	Name  string
	Role  string
}

// IsAdmin reports whether the identity may manage users and events.
func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

// Gate is the access predicate for the admin dashboard. The super admin
// is always admitted with the admin role.
type Gate struct {
	SuperAdmin string
	Users      UserLookup
}

// NewGate creates a Gate.
func NewGate(superAdmin string, users UserLookup) *Gate {
	return &Gate{SuperAdmin: strings.TrimSpace(superAdmin), Users: users}
}

// Identify resolves email into an Identity. ok is false when the address
// is not admitted. A lookup failure is returned as an error and never admits.
func (g *Gate) Identify(ctx context.Context, email string) (id Identity, ok bool, err error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Identity{}, false, nil
	}
	if model.SameEmail(email, g.SuperAdmin) {
		return Identity{Email: email, Role: model.RoleAdmin}, true, nil
	}
	if g.Users == nil {
		return Identity{}, false, nil
	}

	u, err := g.Users.Lookup(ctx, email)
	if errors.Is(err, service.ErrNotFound) {
		return Identity{}, false, nil
	}
	if err != nil {
		return Identity{}, false, err
	}
	return Identity{Email: email, Name: u.Name.String, Role: u.Role}, true, nil
}

// RoleOf returns the role of email, or "" when it is not admitted.
func (g *Gate) RoleOf(ctx context.Context, email string) (string, error) {
	id, _, err := g.Identify(ctx, email)
	return id.Role, err
}

// IsAdmitted reports whether email may use the admin dashboard.
func (g *Gate) IsAdmitted(ctx context.Context, email string) (bool, error) {
	_, ok, err := g.Identify(ctx, email)
	return ok, err
}
