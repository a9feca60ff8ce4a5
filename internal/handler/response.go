// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/olegiv/dose-go/internal/auth"
	"github.com/olegiv/dose-go/internal/content"
	"github.com/olegiv/dose-go/internal/middleware"
	"github.com/olegiv/dose-go/internal/render"
	"github.com/olegiv/dose-go/internal/service"
)

// flashAndRedirect sets a flash message and redirects to the given URL.
// Uses http.StatusSeeOther (303) for POST redirects.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message, messageType string) {
	renderer.SetFlash(r, message, messageType)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError sets an error flash message and redirects to the given URL.
func flashError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, render.FlashError)
}

// flashSuccess sets a success flash message and redirects to the given URL.
func flashSuccess(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, url, message string) {
	flashAndRedirect(w, r, renderer, url, message, render.FlashSuccess)
}

// parseFormOrRedirect parses the request form and redirects with an error message on failure.
// Returns true if parsing succeeded, false if it failed (and redirect was performed).
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, redirectURL string) bool {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, renderer, redirectURL, "Invalid form data")
		return false
	}
	return true
}

// logAndInternalError logs an error and writes a 500 Internal Server Error response.
func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// requireEntityWithRedirect fetches an entity by ID using the provided query function.
// On error, it sets a flash message and redirects. Returns the entity and true if successful,
// or zero value and false if an error occurred (redirect already performed).
func requireEntityWithRedirect[T any](
	w http.ResponseWriter,
	r *http.Request,
	renderer *render.Renderer,
	redirectURL string,
	entityName string,
	id string,
	queryFn func(id string) (T, error),
) (T, bool) {
	var zero T
	entity, err := queryFn(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			flashError(w, r, renderer, redirectURL, capitalize(entityName)+" not found")
		} else {
			slog.Error("failed to get "+entityName, "error", err, entityName+"_id", id)
			flashError(w, r, renderer, redirectURL, "Error loading "+entityName)
		}
		return zero, false
	}
	return entity, true
}

// requireIdentity returns the admitted identity the gate middleware put on
// the request. Without one the request is sent to the login page.
func requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id := middleware.GetIdentity(r)
	if id == nil {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return auth.Identity{}, false
	}
	return *id, true
}

// fieldErrors returns the per-field messages of a validation error, or nil.
func fieldErrors(err error) map[string]string {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// validationMessage joins the field messages of a validation error into one
// flash line, in field order.
func validationMessage(err error) string {
	fields := fieldErrors(err)
	if len(fields) == 0 {
		return err.Error()
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, len(keys))
	for i, k := range keys {
		msgs[i] = fields[k]
	}
	return strings.Join(msgs, ". ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// navCategories loads the category navigation. Failures are logged and
// leave the navigation empty.
func navCategories(r *http.Request, src content.Source) []content.Category {
	cats, err := src.Categories(r.Context())
	if err != nil {
		slog.Error("loading categories", "error", err)
		return nil
	}
	return cats
}

// adminBase is embedded by admin page handlers.
type adminBase struct {
	renderer *render.Renderer
	content  content.Source
}

// render renders an admin page with status 200.
func (b adminBase) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	b.renderStatus(w, r, http.StatusOK, name, title, data)
}

// renderStatus renders an admin page with the category navigation filled in.
func (b adminBase) renderStatus(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	td := render.TemplateData{
		Title: title,
		Data:  data,
		Nav:   navCategories(r, b.content),
	}
	if err := b.renderer.RenderStatus(w, r, status, name, td); err != nil {
		logAndInternalError(w, "failed to render template", "template", name, "error", err)
	}
}

// renderError renders the admin error page.
func (b adminBase) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	b.renderStatus(w, r, status, templateAdminError, http.StatusText(status), message)
}

// categoryByID finds a category in the navigation list.
func (b adminBase) categoryByID(r *http.Request, id string) (content.Category, bool) {
	for _, c := range navCategories(r, b.content) {
		if c.ID == id {
			return c, true
		}
	}
	return content.Category{}, false
}
