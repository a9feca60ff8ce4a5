// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"testing"
)

func TestNullStringFromValue(t *testing.T) {
	if got := NullStringFromValue(""); got.Valid {
		t.Error("empty string should be NULL")
	}
	if got := NullStringFromValue("x"); !got.Valid || got.String != "x" {
		t.Errorf("NullStringFromValue(x) = %+v", got)
	}
}

func TestNullStringTrimmed(t *testing.T) {
	if got := NullStringTrimmed("   "); got.Valid {
		t.Error("blank string should be NULL")
	}
	if got := NullStringTrimmed("  caption "); got.String != "caption" || !got.Valid {
		t.Errorf("NullStringTrimmed = %+v, want caption", got)
	}
}

func TestStringFromNull(t *testing.T) {
	if got := StringFromNull(sql.NullString{}); got != "" {
		t.Errorf("StringFromNull(NULL) = %q", got)
	}
	if got := StringFromNull(sql.NullString{String: "a", Valid: true}); got != "a" {
		t.Errorf("StringFromNull = %q, want a", got)
	}
}
