// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain constants shared by storage, services
// and handlers: roles, categories, media kinds and event classifications.
package model

import "strings"

// Roles an allowed user may hold.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// Roles lists assignable roles in descending privilege order.
var Roles = []string{RoleAdmin, RoleEditor, RoleViewer}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleLevel ranks roles for comparison; unknown roles rank zero.
func RoleLevel(role string) int {
	switch role {
	case RoleAdmin:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

// NormalizeEmail returns the canonical lookup form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SameEmail compares two addresses case-insensitively.
func SameEmail(a, b string) bool {
	return a != "" && NormalizeEmail(a) == NormalizeEmail(b)
}
