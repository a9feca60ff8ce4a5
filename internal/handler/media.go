// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/dose-go/internal/blob"
	"github.com/olegiv/dose-go/internal/content"
	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/render"
	"github.com/olegiv/dose-go/internal/service"
)

// MediaHandler handles the media library.
type MediaHandler struct {
	adminBase
	media *service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(src content.Source, renderer *render.Renderer, media *service.MediaService) *MediaHandler {
	return &MediaHandler{
		adminBase: adminBase{renderer: renderer, content: src},
		media:     media,
	}
}

// MediaLibraryData is the data of the media library page.
type MediaLibraryData struct {
	Items []content.MediaLibraryItem
	Files []blob.Object
}

// Library handles GET /admin/media.
func (h *MediaHandler) Library(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var data MediaLibraryData

	items, err := h.content.MediaLibrary(ctx)
	if err != nil {
		slog.Error("loading media library", "error", err, "category", model.EventCategoryMedia)
	}
	data.Items = items

	files, err := h.media.Files(ctx)
	if err != nil {
		slog.Error("listing uploads", "error", err, "category", model.EventCategoryMedia)
	}
	data.Files = files

	h.render(w, r, templateMedia, "Media", data)
}

// Delete handles POST /admin/media/delete with one "name" field per file.
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectMedia) {
		return
	}

	names := r.PostForm["name"]
	if len(names) == 0 {
		flashError(w, r, h.renderer, redirectMedia, "No files selected")
		return
	}

	if err := h.media.Delete(r.Context(), id.Email, names); err != nil {
		slog.Error("deleting uploads", "error", err, "category", model.EventCategoryMedia)
		flashError(w, r, h.renderer, redirectMedia, "Error deleting files")
		return
	}
	flashSuccess(w, r, h.renderer, redirectMedia, "Files deleted")
}
