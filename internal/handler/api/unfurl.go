// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/olegiv/dose-go/internal/middleware"
	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/unfurl"
)

const maxUnfurlRequestBytes = 64 << 10

// UnfurlRequest is the body of POST /api/unfurl.
type UnfurlRequest struct {
	URL        string `json:"url"`
	Screenshot bool   `json:"screenshot"`
}

// Unfurl handles POST /api/unfurl.
// Fetch failures are reported in the result's error field with status 200.
func (h *Handler) Unfurl(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	if id == nil {
		WriteUnauthorized(w, "Unauthorized")
		return
	}

	var req UnfurlRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUnfurlRequestBytes)).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	res, err := h.unfurler.Unfurl(r.Context(), req.URL, unfurl.Options{Screenshot: req.Screenshot})
	if err != nil {
		if errors.Is(err, unfurl.ErrInvalidURL) {
			WriteBadRequest(w, "A valid http or https URL is required", map[string]string{"url": req.URL})
			return
		}
		slog.Error("unfurl failed", "error", err, "url", req.URL,
			"category", model.EventCategorySystem, "actor", id.Email)
		WriteInternalError(w, "Failed to fetch link details")
		return
	}

	WriteJSON(w, http.StatusOK, res)
}
