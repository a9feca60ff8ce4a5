// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/dose-go/internal/content"
	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/render"
	"github.com/olegiv/dose-go/internal/service"
	"github.com/olegiv/dose-go/internal/store"
	"github.com/olegiv/dose-go/internal/util"
)

// EditionsHandler handles edition and theme management.
type EditionsHandler struct {
	adminBase
	editions *service.EditionService
	themes   *service.ThemeService
}

// NewEditionsHandler creates a new EditionsHandler.
func NewEditionsHandler(src content.Source, renderer *render.Renderer, editions *service.EditionService, themes *service.ThemeService) *EditionsHandler {
	return &EditionsHandler{
		adminBase: adminBase{renderer: renderer, content: src},
		editions:  editions,
		themes:    themes,
	}
}

// EditionFormData is the data of the edition form page. Edition and Content
// are nil for a new edition.
type EditionFormData struct {
	Edition *store.Edition
	Form    service.EditionInput
	Errors  map[string]string
	Content *content.EditionContent
}

// List handles GET /admin/editions.
func (h *EditionsHandler) List(w http.ResponseWriter, r *http.Request) {
	editions, err := h.editions.List(r.Context())
	if err != nil {
		slog.Error("listing editions", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Editions could not be loaded.")
		return
	}
	h.render(w, r, templateEditions, "Editions", editions)
}

// New handles GET /admin/editions/new.
func (h *EditionsHandler) New(w http.ResponseWriter, r *http.Request) {
	data := EditionFormData{
		Form: service.EditionInput{Date: time.Now().Format(model.DateLayout)},
	}
	h.render(w, r, templateEditionForm, "New edition", data)
}

// Create handles POST /admin/editions.
func (h *EditionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectEditionsNew) {
		return
	}

	in := editionInputFromForm(r)
	edition, err := h.editions.Create(r.Context(), id.Email, in)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			h.renderStatus(w, r, http.StatusUnprocessableEntity, templateEditionForm, "New edition",
				EditionFormData{Form: in, Errors: fieldErrors(err)})
			return
		}
		slog.Error("creating edition", "error", err)
		flashError(w, r, h.renderer, redirectEditionsNew, "Error creating edition")
		return
	}

	flashSuccess(w, r, h.renderer, editionURL(edition.ID), "Edition created")
}

// Edit handles GET /admin/editions/{id}.
func (h *EditionsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	edition, ok := requireEntityWithRedirect(w, r, h.renderer, redirectEditions, "edition", chi.URLParam(r, "id"),
		func(id string) (store.Edition, error) { return h.editions.Get(r.Context(), id) })
	if !ok {
		return
	}
	h.renderEdit(w, r, http.StatusOK, edition, editionInputFromStore(edition), nil)
}

// Update handles POST /admin/editions/{id}.
func (h *EditionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	editionID := chi.URLParam(r, "id")
	if !parseFormOrRedirect(w, r, h.renderer, editionURL(editionID)) {
		return
	}

	in := editionInputFromForm(r)
	edition, err := h.editions.Update(r.Context(), id.Email, editionID, in)
	switch {
	case err == nil:
		flashSuccess(w, r, h.renderer, editionURL(edition.ID), "Edition saved")
	case errors.Is(err, service.ErrNotFound):
		flashError(w, r, h.renderer, redirectEditions, "Edition not found")
	case errors.Is(err, service.ErrValidation):
		current, getErr := h.editions.Get(r.Context(), editionID)
		if getErr != nil {
			flashError(w, r, h.renderer, redirectEditions, "Edition not found")
			return
		}
		h.renderEdit(w, r, http.StatusUnprocessableEntity, current, in, fieldErrors(err))
	default:
		slog.Error("updating edition", "error", err, "edition_id", editionID)
		flashError(w, r, h.renderer, editionURL(editionID), "Error saving edition")
	}
}

// Delete handles POST /admin/editions/{id}/delete.
func (h *EditionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	editionID := chi.URLParam(r, "id")

	err := h.editions.Delete(r.Context(), id.Email, editionID)
	switch {
	case err == nil:
		flashSuccess(w, r, h.renderer, redirectEditions, "Edition deleted")
	case errors.Is(err, service.ErrNotFound):
		flashError(w, r, h.renderer, redirectEditions, "Edition not found")
	default:
		slog.Error("deleting edition", "error", err, "edition_id", editionID)
		flashError(w, r, h.renderer, redirectEditions, "Error deleting edition")
	}
}

// SetCurrent handles POST /admin/editions/{id}/current.
func (h *EditionsHandler) SetCurrent(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	editionID := chi.URLParam(r, "id")

	err := h.editions.SetCurrent(r.Context(), id.Email, editionID)
	switch {
	case err == nil:
		flashSuccess(w, r, h.renderer, redirectEditions, "Current edition updated")
	case errors.Is(err, service.ErrNotFound):
		flashError(w, r, h.renderer, redirectEditions, "Edition not found")
	default:
		slog.Error("setting current edition", "error", err, "edition_id", editionID)
		flashError(w, r, h.renderer, redirectEditions, "Error updating current edition")
	}
}

// CreateTheme handles POST /admin/editions/{id}/themes.
func (h *EditionsHandler) CreateTheme(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	editionID := chi.URLParam(r, "id")
	back := editionURL(editionID)
	if !parseFormOrRedirect(w, r, h.renderer, back) {
		return
	}

	in, err := themeInputFromForm(r)
	if err == nil {
		_, err = h.themes.Create(r.Context(), id.Email, editionID, in)
	}
	switch {
	case err == nil:
		flashSuccess(w, r, h.renderer, back, "Theme added")
	case errors.Is(err, service.ErrNotFound):
		flashError(w, r, h.renderer, redirectEditions, "Edition not found")
	case errors.Is(err, service.ErrValidation):
		flashError(w, r, h.renderer, back, validationMessage(err))
	default:
		slog.Error("creating theme", "error", err, "edition_id", editionID)
		flashError(w, r, h.renderer, back, "Error adding theme")
	}
}

// UpdateTheme handles POST /admin/themes/{id}.
func (h *EditionsHandler) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	theme, ok := requireEntityWithRedirect(w, r, h.renderer, redirectEditions, "theme", chi.URLParam(r, "id"),
		func(id string) (store.Theme, error) { return h.themes.Get(r.Context(), id) })
	if !ok {
		return
	}
	back := editionURL(theme.EditionID)
	if !parseFormOrRedirect(w, r, h.renderer, back) {
		return
	}

	in, err := themeInputFromForm(r)
	if err == nil {
		_, err = h.themes.Update(r.Context(), id.Email, theme.ID, in)
	}
	switch {
	case err == nil:
		flashSuccess(w, r, h.renderer, back, "Theme saved")
	case errors.Is(err, service.ErrValidation):
		flashError(w, r, h.renderer, back, validationMessage(err))
	default:
		slog.Error("updating theme", "error", err, "theme_id", theme.ID)
		flashError(w, r, h.renderer, back, "Error saving theme")
	}
}

// DeleteTheme handles POST /admin/themes/{id}/delete. Posts of the theme
// stay in the edition without a theme.
func (h *EditionsHandler) DeleteTheme(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	themeID := chi.URLParam(r, "id")

	theme, err := h.themes.Delete(r.Context(), id.Email, themeID)
	switch {
	case err == nil:
		flashSuccess(w, r, h.renderer, editionURL(theme.EditionID), "Theme deleted")
	case errors.Is(err, service.ErrNotFound):
		flashError(w, r, h.renderer, redirectEditions, "Theme not found")
	default:
		slog.Error("deleting theme", "error", err, "theme_id", themeID)
		flashError(w, r, h.renderer, redirectEditions, "Error deleting theme")
	}
}

func (h *EditionsHandler) renderEdit(w http.ResponseWriter, r *http.Request, status int, edition store.Edition, form service.EditionInput, errs map[string]string) {
	ec, err := h.content.EditionContent(r.Context(), edition.ID)
	if err != nil {
		slog.Error("loading edition content", "error", err, "edition_id", edition.ID)
		ec = nil
	}
	data := EditionFormData{
		Edition: &edition,
		Form:    form,
		Errors:  errs,
		Content: ec,
	}
	h.renderStatus(w, r, status, templateEditionForm, "Edition "+edition.Date, data)
}

func editionURL(id string) string {
	return redirectEditions + "/" + id
}

func editionInputFromForm(r *http.Request) service.EditionInput {
	return service.EditionInput{
		Date:            r.PostFormValue("date"),
		HeroSummary:     r.PostFormValue("hero_summary"),
		HeroDescription: r.PostFormValue("hero_description"),
		FeaturedMemeURL: r.PostFormValue("featured_meme_url"),
	}
}

func editionInputFromStore(e store.Edition) service.EditionInput {
	return service.EditionInput{
		Date:            e.Date,
		HeroSummary:     e.HeroSummary,
		HeroDescription: e.HeroDescription,
		FeaturedMemeURL: util.StringFromNull(e.FeaturedMemeUrl),
	}
}

// themeInputFromForm reads a theme form. A blank sort_order leaves the
// order unchanged.
func themeInputFromForm(r *http.Request) (service.ThemeInput, error) {
	in := service.ThemeInput{
		Name: r.PostFormValue("name"),
		Slug: r.PostFormValue("slug"),
	}
	if raw := strings.TrimSpace(r.PostFormValue("sort_order")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return in, &service.ValidationError{Fields: map[string]string{"sort_order": "Sort order must be a number"}}
		}
		in.SortOrder = &n
	}
	return in, nil
}
