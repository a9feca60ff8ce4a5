// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package blob stores uploaded files as opaque objects reachable at a
// public URL.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrInvalidName is returned for object names that are empty or escape the
// store root.
var ErrInvalidName = errors.New("blob: invalid object name")

// Object describes a stored blob.
type Object struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
	URL       string    `json:"url"`
}

// Store is the blob storage surface used by the upload endpoint and the
// media library.
type Store interface {
	// Upload writes r under name and returns its public URL. An existing
	// object with the same name is replaced.
	Upload(ctx context.Context, name string, r io.Reader, contentType string) (string, error)

	// List returns the objects whose names start with prefix, newest first.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Delete removes the named objects. Missing objects are ignored.
	Delete(ctx context.Context, names []string) error

	// PublicURL returns the URL an object is served at.
	PublicURL(name string) string
}
