// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for the admin gate, CSRF
// protection, security headers and rate limiting.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/dose-go/internal/auth"
	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyIdentity holds the admitted auth.Identity.
const ContextKeyIdentity ContextKey = "identity"

// Redirect targets used by the gate.
const (
	LoginPath             = "/admin/login"
	UnauthorizedLoginPath = "/admin/login?error=unauthorized"
	AdminRequiredPath     = "/admin?error=admin_required"
)

// Gate resolves session emails into admitted identities.
type Gate interface {
	Identify(ctx context.Context, email string) (auth.Identity, bool, error)
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, id)
}

// GetIdentity retrieves the admitted identity from the request context.
// Returns nil if none is present.
func GetIdentity(r *http.Request) *auth.Identity {
	id, ok := r.Context().Value(ContextKeyIdentity).(auth.Identity)
	if !ok {
		return nil
	}
	return &id
}

// GetEmail returns the admitted email from context, or "".
func GetEmail(r *http.Request) string {
	if id := GetIdentity(r); id != nil {
		return id.Email
	}
	return ""
}

// gateOutcome is what the gate decided for a request.
type gateOutcome int

const (
	gateAdmitted gateOutcome = iota
	gateAnonymous
	gateRejected
	gateFailed
)

// check consults the gate for the session's email. A rejected identity has
// its session destroyed before the caller responds.
func check(sm *scs.SessionManager, gate Gate, r *http.Request) (auth.Identity, gateOutcome) {
	email := sm.GetString(r.Context(), session.KeyEmail)
	if email == "" {
		return auth.Identity{}, gateAnonymous
	}

	id, ok, err := gate.Identify(r.Context(), email)
	if err != nil {
		slog.Error("access gate lookup failed", "category", model.EventCategoryAuth, "error", err)
		return auth.Identity{}, gateFailed
	}
	if !ok {
		if err := sm.Destroy(r.Context()); err != nil {
			slog.Error("destroying session failed", "category", model.EventCategoryAuth, "error", err)
		}
		slog.Warn("session identity no longer admitted", "category", model.EventCategoryAuth, "actor", email)
		return auth.Identity{}, gateRejected
	}
	return id, gateAdmitted
}

// RequireAdmitted creates middleware for admin pages. Anonymous requests go
// to the login page; sessions whose identity is not admitted are destroyed
// and redirected with an unauthorized indicator.
func RequireAdmitted(sm *scs.SessionManager, gate Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, outcome := check(sm, gate, r)
			switch outcome {
			case gateAnonymous:
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			case gateRejected:
				http.Redirect(w, r, UnauthorizedLoginPath, http.StatusSeeOther)
			case gateFailed:
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			default:
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
			}
		})
	}
}

// RequireAdmittedAPI is RequireAdmitted for JSON endpoints: it answers 401
// instead of redirecting.
func RequireAdmittedAPI(sm *scs.SessionManager, gate Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, outcome := check(sm, gate, r)
			switch outcome {
			case gateAnonymous, gateRejected:
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized", nil)
			case gateFailed:
				WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
			default:
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
			}
		})
	}
}

// OptionalIdentity attaches the admitted identity when there is one. It
// never redirects and leaves sessions alone; use it on public pages.
func OptionalIdentity(sm *scs.SessionManager, gate Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := sm.GetString(r.Context(), session.KeyEmail)
			if email == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, ok, err := gate.Identify(r.Context(), email)
			if err != nil || !ok {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole creates middleware that requires at least role. It must run
// after RequireAdmitted.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := GetIdentity(r)
			if id == nil {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			if model.RoleLevel(id.Role) < model.RoleLevel(role) {
				http.Redirect(w, r, AdminRequiredPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
