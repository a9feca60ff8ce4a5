// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves client addresses to countries using a MaxMind
// GeoLite2-Country database.
package geoip

import (
	"fmt"
	"net"
	"net/netip"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

// Local is returned for loopback and private addresses.
const Local = "LOCAL"

// Resolver looks up countries. The zero value and a Resolver opened with an
// empty path only classify local addresses.
type Resolver struct {
	mu      sync.RWMutex
	path    string
	db      *maxminddb.Reader
	modTime time.Time
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Open loads the database at path. An empty path disables lookups.
func Open(path string) (*Resolver, error) {
	r := &Resolver{path: path}
	if path == "" {
		return r, nil
	}
	if err := r.load(); err != nil {
		return r, err
	}
	return r, nil
}

// load opens the database if it changed on disk. Caller holds mu.
func (r *Resolver) load() error {
	info, err := os.Stat(r.path)
	if err != nil {
		return fmt.Errorf("geoip database: %w", err)
	}
	if r.db != nil && info.ModTime().Equal(r.modTime) {
		return nil
	}

	db, err := maxminddb.Open(r.path)
	if err != nil {
		return fmt.Errorf("opening geoip database: %w", err)
	}
	if r.db != nil {
		_ = r.db.Close()
	}
	r.db = db
	r.modTime = info.ModTime()
	return nil
}

// Reload reopens the database if the file was replaced.
func (r *Resolver) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.path == "" {
		return nil
	}
	return r.load()
}

// Enabled reports whether a database is loaded.
func (r *Resolver) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.db != nil
}

// Country returns the ISO country code of ip, Local for private ranges,
// or "" when unknown.
func (r *Resolver) Country(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ""
	}
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() {
		return Local
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.db == nil {
		return ""
	}
	var rec countryRecord
	if err := r.db.Lookup(net.IP(addr.AsSlice()), &rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}

// Close releases the database.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}
