// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// objectNameUnsafe matches every character not allowed in stored object names.
var objectNameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SanitizeObjectName keeps only the base name of an uploaded file and
// replaces every character outside [a-zA-Z0-9.-] with an underscore.
func SanitizeObjectName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "." || base == "/" || base == ".." {
		base = ""
	}
	base = objectNameUnsafe.ReplaceAllString(base, "_")
	base = strings.TrimLeft(base, ".")
	if base == "" {
		return "file"
	}
	return base
}

// TimestampedObjectName prefixes the sanitized name with the Unix time in
// milliseconds so repeated uploads of the same file do not collide.
func TimestampedObjectName(filename string, now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), SanitizeObjectName(filename))
}

// SafeJoinPath joins name under base and rejects results that escape base.
func SafeJoinPath(base string, name ...string) (string, error) {
	absBase, err := filepath.Abs(filepath.Clean(base))
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	target := filepath.Join(append([]string{absBase}, name...)...)
	if target != absBase && !strings.HasPrefix(target, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %q escapes base directory", filepath.Join(name...))
	}
	return target, nil
}
