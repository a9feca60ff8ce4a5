// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the cookie session manager used by the
// admin dashboard.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Session keys.
const (
	KeyEmail      = "email"
	KeyOAuthState = "oauth_state"
	KeyLoginNext  = "login_next"
	KeyFlash      = "flash"
	KeyFlashType  = "flash_type"
)

// Lifetime is how long an admin stays signed in.
const Lifetime = 24 * time.Hour

// New creates a new session manager configured with SQLite store.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = Lifetime
	sm.IdleTimeout = 12 * time.Hour
	sm.Cookie.Name = "dose_session"
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev

	// The __Host- prefix pins the cookie to this origin over HTTPS.
	if !isDev {
		sm.Cookie.Name = "__Host-dose_session"
	}

	return sm
}
