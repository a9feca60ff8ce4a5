// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/olegiv/dose-go/internal/util"
)

// LocalStore keeps objects as files in one directory.
type LocalStore struct {
	dir     string
	baseURL string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates dir if needed. Objects are served at baseURL/{name}.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the directory objects are stored in.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	p, err := util.SafeJoinPath(s.dir, name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidName, err)
	}
	return p, nil
}

// Upload implements Store. The file is written to a temporary name first
// and renamed into place once complete.
func (s *LocalStore) Upload(ctx context.Context, name string, r io.Reader, _ string) (string, error) {
	target, err := s.path(name)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("writing object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("closing object: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("storing object: %w", err)
	}
	return s.PublicURL(name), nil
}

// List implements Store.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]Object, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading blob directory: %w", err)
	}

	objects := []Object{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasPrefix(name, prefix) {
			continue
		}
		info, err := entry.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		objects = append(objects, Object{
			Name:      name,
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
			URL:       s.PublicURL(name),
		})
	}

	slices.SortStableFunc(objects, func(a, b Object) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.Name, a.Name)
	})
	return objects, nil
}

// Delete implements Store. Every name is validated before anything is
// removed.
func (s *LocalStore) Delete(_ context.Context, names []string) error {
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p, err := s.path(name)
		if err != nil {
			return err
		}
		paths = append(paths, p)
	}

	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublicURL implements Store.
func (s *LocalStore) PublicURL(name string) string {
	return s.baseURL + "/" + url.PathEscape(name)
}

