// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/dose-go/internal/audit"
	"github.com/olegiv/dose-go/internal/auth"
	"github.com/olegiv/dose-go/internal/middleware"
	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/render"
	"github.com/olegiv/dose-go/internal/service"
	"github.com/olegiv/dose-go/internal/session"
)

// Login error indicators carried in the login page query string.
const (
	loginErrorUnauthorized = "unauthorized"
	loginErrorAuthFailed   = "auth_failed"
)

const authFailedLoginPath = middleware.LoginPath + "?error=" + loginErrorAuthFailed

// AuthHandler handles the identity provider sign-in flow.
type AuthHandler struct {
	sm       *scs.SessionManager
	gate     middleware.Gate
	provider auth.IdentityProvider
	renderer *render.Renderer
	events   *service.EventService
	clients  *audit.Describer
}

// NewAuthHandler creates a new AuthHandler. provider is nil when sign-in is
// not configured.
func NewAuthHandler(sm *scs.SessionManager, gate middleware.Gate, provider auth.IdentityProvider, renderer *render.Renderer, events *service.EventService) *AuthHandler {
	return &AuthHandler{
		sm:       sm,
		gate:     gate,
		provider: provider,
		renderer: renderer,
		events:   events,
		clients:  audit.NewDescriber(nil, nil),
	}
}

// SetDescriber replaces how sign-in events describe the client, e.g. to
// add country lookups or trusted proxies.
func (h *AuthHandler) SetDescriber(d *audit.Describer) {
	h.clients = d
}

// LoginData is the data of the login page.
type LoginData struct {
	Error        string
	OAuthEnabled bool
	LoginURL     string
}

// LoginPage handles GET /admin/login.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if email := h.sm.GetString(ctx, session.KeyEmail); email != "" {
		_, ok, err := h.gate.Identify(ctx, email)
		if err != nil {
			logAndInternalError(w, "access gate lookup failed", "error", err, "category", model.EventCategoryAuth)
			return
		}
		if ok {
			http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
			return
		}
		if err := h.sm.Destroy(ctx); err != nil {
			slog.Error("destroying session failed", "error", err, "category", model.EventCategoryAuth)
		}
		http.Redirect(w, r, middleware.UnauthorizedLoginPath, http.StatusSeeOther)
		return
	}

	loginURL := RouteAuthLogin
	if next := safeNext(r.URL.Query().Get("next")); next != redirectAdmin {
		loginURL += "?next=" + url.QueryEscape(next)
	}

	data := LoginData{
		Error:        loginErrorMessage(r.URL.Query().Get("error")),
		OAuthEnabled: h.provider != nil,
		LoginURL:     loginURL,
	}
	if err := h.renderer.Render(w, r, templateLogin, render.TemplateData{Title: "Sign in", Data: data}); err != nil {
		logAndInternalError(w, "failed to render template", "template", templateLogin, "error", err)
	}
}

// Login handles GET /auth/login and redirects to the identity provider.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}

	state, err := auth.NewState()
	if err != nil {
		logAndInternalError(w, "generating oauth state", "error", err, "category", model.EventCategoryAuth)
		return
	}

	ctx := r.Context()
	h.sm.Put(ctx, session.KeyOAuthState, state)
	h.sm.Put(ctx, session.KeyLoginNext, safeNext(r.URL.Query().Get("next")))

	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// Callback handles GET /auth/callback. An identity the gate does not admit
// has its session destroyed before it is sent back to the login page.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	wantState := h.sm.PopString(ctx, session.KeyOAuthState)
	next := safeNext(h.sm.PopString(ctx, session.KeyLoginNext))

	if h.provider == nil {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}
	if providerErr := q.Get("error"); providerErr != "" {
		slog.Warn("identity provider returned an error", "error", providerErr, "category", model.EventCategoryAuth)
		http.Redirect(w, r, authFailedLoginPath, http.StatusSeeOther)
		return
	}
	if wantState == "" || subtle.ConstantTimeCompare([]byte(wantState), []byte(q.Get("state"))) != 1 {
		slog.Warn("oauth state mismatch", "category", model.EventCategoryAuth)
		http.Redirect(w, r, authFailedLoginPath, http.StatusSeeOther)
		return
	}

	ident, err := h.provider.Exchange(ctx, q.Get("code"))
	if err != nil {
		slog.Warn("oauth exchange failed", "error", err, "category", model.EventCategoryAuth)
		http.Redirect(w, r, authFailedLoginPath, http.StatusSeeOther)
		return
	}

	id, ok, err := h.gate.Identify(ctx, ident.Email)
	if err != nil {
		slog.Error("access gate lookup failed", "error", err, "category", model.EventCategoryAuth)
		http.Redirect(w, r, authFailedLoginPath, http.StatusSeeOther)
		return
	}
	if !ok {
		if err := h.sm.Destroy(ctx); err != nil {
			slog.Error("destroying session failed", "error", err, "category", model.EventCategoryAuth)
		}
		h.logAuth(r, model.EventLevelWarning, "Unauthorized sign-in attempt", ident.Email)
		http.Redirect(w, r, middleware.UnauthorizedLoginPath, http.StatusSeeOther)
		return
	}

	if err := h.sm.RenewToken(ctx); err != nil {
		logAndInternalError(w, "renewing session token", "error", err, "category", model.EventCategoryAuth)
		return
	}
	h.sm.Put(ctx, session.KeyEmail, ident.Email)
	h.logAuth(r, model.EventLevelInfo, "User signed in", id.Email)

	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout handles POST /admin/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	email := h.sm.GetString(r.Context(), session.KeyEmail)
	if err := h.sm.Destroy(r.Context()); err != nil {
		slog.Error("destroying session failed", "error", err, "category", model.EventCategoryAuth)
	}
	if email != "" {
		h.logAuth(r, model.EventLevelInfo, "User signed out", email)
	}
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

func (h *AuthHandler) logAuth(r *http.Request, level, message, email string) {
	if h.events == nil {
		return
	}
	_ = h.events.LogAuthEvent(r.Context(), level, message, email, h.clients.Describe(r).Metadata())
}

// safeNext keeps only local paths as a post-login redirect target.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		return redirectAdmin
	}
	return next
}

func loginErrorMessage(code string) string {
	switch code {
	case loginErrorUnauthorized:
		return "This account is not authorized to use the admin."
	case loginErrorAuthFailed:
		return "Sign-in failed. Please try again."
	default:
		return ""
	}
}
