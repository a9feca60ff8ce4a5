// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON endpoints used by the admin editor.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/olegiv/dose-go/internal/service"
	"github.com/olegiv/dose-go/internal/unfurl"
)

// Unfurler fetches link metadata.
type Unfurler interface {
	Unfurl(ctx context.Context, rawURL string, opts unfurl.Options) (*unfurl.Result, error)
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	media    *service.MediaService
	unfurler Unfurler
	maxBytes int64
}

// NewHandler creates a new API handler. maxUploadBytes <= 0 disables the
// request body limit on uploads.
func NewHandler(media *service.MediaService, unfurler Unfurler, maxUploadBytes int64) *Handler {
	return &Handler{
		media:    media,
		unfurler: unfurler,
		maxBytes: maxUploadBytes,
	}
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	resp := ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	WriteJSON(w, statusCode, resp)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}
