// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import (
	"path/filepath"
	"testing"
)

func TestCountryWithoutDatabase(t *testing.T) {
	r, err := Open("")
	if err != nil {
		t.Fatalf("Open(\"\") error = %v", err)
	}
	defer func() { _ = r.Close() }()

	tests := []struct {
		ip   string
		want string
	}{
		{"127.0.0.1", Local},
		{"::1", Local},
		{"10.1.2.3", Local},
		{"192.168.0.10", Local},
		{"fe80::1", Local},
		{"::ffff:172.16.0.1", Local},
		{"8.8.8.8", ""},
		{"not-an-ip", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := r.Country(tt.ip); got != tt.want {
			t.Errorf("Country(%q) = %q, want %q", tt.ip, got, tt.want)
		}
	}
	if r.Enabled() {
		t.Error("Enabled() = true without a database")
	}
	if err := r.Reload(); err != nil {
		t.Errorf("Reload() without a path error = %v", err)
	}
}

func TestOpenMissingDatabase(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "GeoLite2-Country.mmdb"))
	if err == nil {
		t.Fatal("Open() of a missing file should fail")
	}
	if r == nil || r.Enabled() {
		t.Fatal("a failed Open() should still return a usable, disabled resolver")
	}
	if got := r.Country("127.0.0.1"); got != Local {
		t.Errorf("Country(loopback) = %q, want %q", got, Local)
	}
}

func TestZeroValue(t *testing.T) {
	var r Resolver
	if got := r.Country("8.8.4.4"); got != "" {
		t.Errorf("Country() = %q, want empty", got)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
