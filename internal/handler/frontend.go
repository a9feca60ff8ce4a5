// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/dose-go/internal/content"
	"github.com/olegiv/dose-go/internal/render"
)

// FrontendHandler serves the public newsletter pages. Read failures are
// logged and rendered as empty content.
type FrontendHandler struct {
	content  content.Source
	renderer *render.Renderer
}

// NewFrontendHandler creates a new FrontendHandler.
func NewFrontendHandler(src content.Source, renderer *render.Renderer) *FrontendHandler {
	return &FrontendHandler{content: src, renderer: renderer}
}

// CategoryPage is the data of a category feed page.
type CategoryPage struct {
	Category content.Category
	Feed     *content.CategoryFeed
}

// Home handles GET / and shows the current edition.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	page, err := h.content.HomePage(r.Context())
	if err != nil {
		slog.Error("loading home page", "error", err)
		page = &content.HomePage{Sections: []content.CategorySection{}}
	}

	title := ""
	if page.Edition != nil {
		title = render.FormatEditionDate(page.Edition.Date)
	}
	h.render(w, r, http.StatusOK, templateHome, title, page)
}

// Category returns the handler for one category feed.
func (h *FrontendHandler) Category(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feed, err := h.content.PostsByCategory(r.Context(), slug)
		if err != nil {
			slog.Error("loading category feed", "error", err, "slug", slug)
			feed = &content.CategoryFeed{DateGroups: []content.DateGroup{}}
		}

		cat := content.Category{Slug: slug, Name: capitalize(slug)}
		if feed.Category != nil {
			cat = *feed.Category
		}
		h.render(w, r, http.StatusOK, templateCategory, cat.Name, CategoryPage{Category: cat, Feed: feed})
	}
}

// Archive handles GET /archive.
func (h *FrontendHandler) Archive(w http.ResponseWriter, r *http.Request) {
	editions, err := h.content.EditionsForArchive(r.Context())
	if err != nil {
		slog.Error("loading archive", "error", err)
		editions = []content.Edition{}
	}
	h.render(w, r, http.StatusOK, templateArchive, "Archive", editions)
}

// Edition handles GET /edition/{id}.
func (h *FrontendHandler) Edition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	edition, err := h.content.EditionWithThemes(r.Context(), id)
	if errors.Is(err, content.ErrNotFound) {
		h.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("loading edition", "error", err, "edition_id", id)
		h.render(w, r, http.StatusInternalServerError, templateNotFound, "Unavailable", nil)
		return
	}

	h.render(w, r, http.StatusOK, templateEdition, render.FormatEditionDate(edition.Date), edition)
}

// NotFound renders the public 404 page.
func (h *FrontendHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, templateNotFound, "Not found", nil)
}

func (h *FrontendHandler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	td := render.TemplateData{
		Title: title,
		Data:  data,
		Nav:   navCategories(r, h.content),
	}
	if err := h.renderer.RenderStatus(w, r, status, name, td); err != nil {
		logAndInternalError(w, "failed to render template", "template", name, "error", err)
	}
}
