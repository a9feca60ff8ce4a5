// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/olegiv/dose-go/internal/blob"
	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/util"
)

// ErrFileTooLarge is returned when an upload exceeds the size limit.
var ErrFileTooLarge = errors.New("file exceeds the upload size limit")

// ErrFileType is returned for uploads that are neither images nor videos.
var ErrFileType = errors.New("file type is not allowed")

// UploadResult describes a stored upload.
type UploadResult struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	MediaType   string `json:"media_type"`
}

// MediaService stores uploads in the blob store and manages the library.
type MediaService struct {
	blobs    blob.Store
	events   *EventService
	maxBytes int64
	now      func() time.Time
}

// NewMediaService creates a MediaService. maxBytes <= 0 disables the limit.
func NewMediaService(blobs blob.Store, events *EventService, maxBytes int64) *MediaService {
	return &MediaService{blobs: blobs, events: events, maxBytes: maxBytes, now: time.Now}
}

// Upload stores r under a sanitized, time-prefixed name derived from
// filename and returns its public URL. When contentType is empty it is
// detected from the extension and then from the first bytes.
func (s *MediaService) Upload(ctx context.Context, actor, filename, contentType string, r io.Reader) (*UploadResult, error) {
	br := bufio.NewReaderSize(r, 512)
	contentType = detectContentType(filename, contentType, br)

	mediaType, ok := model.AllowedUploadTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileType, contentType)
	}

	var body io.Reader = br
	var limited *limitReader
	if s.maxBytes > 0 {
		limited = &limitReader{r: br, remaining: s.maxBytes}
		body = limited
	}

	name := util.TimestampedObjectName(filename, s.now())
	url, err := s.blobs.Upload(ctx, name, body, contentType)
	if limited != nil && limited.exceeded {
		_ = s.blobs.Delete(ctx, []string{name})
		return nil, ErrFileTooLarge
	}
	if err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	if s.events != nil {
		_ = s.events.LogInfo(ctx, model.EventCategoryMedia, "File uploaded", actor, map[string]any{"name": name, "content_type": contentType})
	}
	return &UploadResult{Name: name, URL: url, ContentType: contentType, MediaType: mediaType}, nil
}

// Files lists stored uploads, newest first.
func (s *MediaService) Files(ctx context.Context) ([]blob.Object, error) {
	return s.blobs.List(ctx, "")
}

// Delete removes the named uploads.
func (s *MediaService) Delete(ctx context.Context, actor string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if err := s.blobs.Delete(ctx, names); err != nil {
		return fmt.Errorf("deleting uploads: %w", err)
	}
	if s.events != nil {
		_ = s.events.LogInfo(ctx, model.EventCategoryMedia, "Files deleted", actor, map[string]any{"names": names})
	}
	return nil
}

// detectContentType prefers the declared type, then the file extension,
// then sniffing. Parameters such as charset are dropped.
func detectContentType(filename, declared string, br *bufio.Reader) string {
	if declared != "" && declared != "application/octet-stream" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			return mt
		}
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt
		}
	}
	head, _ := br.Peek(512)
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(head))
	return mt
}

// limitReader fails once more than remaining bytes have been read.
type limitReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		l.exceeded = true
		return 0, ErrFileTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		l.exceeded = true
		return n, ErrFileTooLarge
	}
	return n, err
}
