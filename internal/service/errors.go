// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/olegiv/dose-go/internal/content"
)

var (
	// ErrNotFound is returned when the target row does not exist.
	ErrNotFound = content.ErrNotFound

	// ErrValidation is wrapped by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateEmail is returned when an email is already on the allow-list.
	ErrDuplicateEmail = errors.New("this email is already authorized")

	// ErrProtectedUser is returned when an admin tries to remove or demote
	// the super admin or their own row.
	ErrProtectedUser = errors.New("this user cannot be changed")
)

// ValidationError carries per-field messages. Nothing is written when one
// is returned.
type ValidationError struct {
	Fields map[string]string
}

// Error implements error.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// validator collects field errors.
type validator map[string]string

func (v validator) check(ok bool, field, msg string) {
	if !ok {
		if _, exists := v[field]; !exists {
			v[field] = msg
		}
	}
}

func (v validator) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Fields: v}
}

// Invalidator drops cached read models after a write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}
