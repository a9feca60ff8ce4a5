// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/dose-go/internal/middleware"
	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/service"
)

// multipartOverhead leaves room for boundaries and part headers on top of
// the file size limit.
const multipartOverhead = 1 << 20

// Upload handles POST /api/upload.
// Accepts multipart/form-data with a single "file" field and responds with
// the public URL of the stored file.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	if id == nil {
		WriteUnauthorized(w, "Unauthorized")
		return
	}

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			WriteBadRequest(w, service.ErrFileTooLarge.Error(), nil)
		default:
			WriteBadRequest(w, "No file provided", nil)
		}
		return
	}
	defer func() { _ = file.Close() }()

	res, err := h.media.Upload(r.Context(), id.Email, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, service.ErrFileTooLarge) || errors.Is(err, service.ErrFileType) {
			WriteBadRequest(w, err.Error(), nil)
			return
		}
		slog.Error("upload failed", "error", err, "filename", header.Filename,
			"category", model.EventCategoryMedia, "actor", id.Email)
		WriteInternalError(w, "Upload failed")
		return
	}

	WriteJSON(w, http.StatusOK, res)
}
