// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/dose-go/internal/blob"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newMediaService(t *testing.T, maxBytes int64) (*MediaService, *blob.LocalStore) {
	t.Helper()
	blobs, err := blob.NewLocalStore(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)
	svc := NewMediaService(blobs, nil, maxBytes)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, blobs
}

func TestMediaService_Upload(t *testing.T) {
	svc, blobs := newMediaService(t, 1<<20)

	res, err := svc.Upload(context.Background(), "admin@example.com", "My Cat (1).png", "image/png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "1700000000000-My_Cat__1_.png", res.Name)
	assert.Equal(t, "http://localhost:8080/uploads/1700000000000-My_Cat__1_.png", res.URL)
	assert.Equal(t, "image", res.MediaType)

	data, err := os.ReadFile(filepath.Join(blobs.Dir(), res.Name))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestMediaService_UploadSniffsType(t *testing.T) {
	svc, _ := newMediaService(t, 0)

	res, err := svc.Upload(context.Background(), "", "blob", "", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.ContentType)
}

func TestMediaService_UploadRejectsType(t *testing.T) {
	svc, blobs := newMediaService(t, 0)

	_, err := svc.Upload(context.Background(), "", "page.html", "text/html", strings.NewReader("<script>"))
	assert.ErrorIs(t, err, ErrFileType)

	files, err := blobs.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestMediaService_UploadTooLarge(t *testing.T) {
	svc, blobs := newMediaService(t, 16)

	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte("x"), 64)...)
	_, err := svc.Upload(context.Background(), "", "big.png", "image/png", bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	files, err := blobs.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, files)

	exact := bytes.Repeat([]byte("y"), 16)
	_, err = svc.Upload(context.Background(), "", "exact.png", "image/png", bytes.NewReader(exact))
	assert.NoError(t, err)
}

func TestMediaService_FilesAndDelete(t *testing.T) {
	svc, _ := newMediaService(t, 0)
	ctx := context.Background()

	res, err := svc.Upload(ctx, "", "a.png", "image/png", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	files, err := svc.Files(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, res.Name, files[0].Name)

	require.NoError(t, svc.Delete(ctx, "", []string{res.Name}))
	files, err = svc.Files(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)

	assert.NoError(t, svc.Delete(ctx, "", nil))
}
