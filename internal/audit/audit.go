// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package audit describes the client behind a request for event metadata.
package audit

import (
	"net/http"
	"net/netip"

	"github.com/mileusna/useragent"

	"github.com/olegiv/dose-go/internal/middleware"
)

// CountryResolver maps an IP address to an ISO country code.
type CountryResolver interface {
	Country(ip string) string
}

// Client is what the event log records about a request's origin.
type Client struct {
	IP      string
	Country string
	Browser string
	OS      string
	Device  string
}

// Describer extracts Client details from requests.
type Describer struct {
	countries CountryResolver
	proxies   []netip.Prefix
}

// NewDescriber creates a Describer. countries may be nil. Forwarding
// headers are honoured only from trustedProxies.
func NewDescriber(countries CountryResolver, trustedProxies []string) *Describer {
	return &Describer{countries: countries, proxies: middleware.ParseTrustedProxies(trustedProxies)}
}

// Describe returns the client details of r.
func (d *Describer) Describe(r *http.Request) Client {
	c := Client{IP: middleware.ClientIP(r, d.proxies)}
	if d.countries != nil {
		c.Country = d.countries.Country(c.IP)
	}

	ua := useragent.Parse(r.UserAgent())
	c.Browser = orUnknown(ua.Name)
	c.OS = orUnknown(ua.OS)
	switch {
	case ua.Bot:
		c.Device = "bot"
	case ua.Tablet:
		c.Device = "tablet"
	case ua.Mobile:
		c.Device = "mobile"
	default:
		c.Device = "desktop"
	}
	return c
}

// Metadata returns c as event metadata, omitting unknown values.
func (c Client) Metadata() map[string]any {
	m := map[string]any{"ip": c.IP}
	if c.Country != "" {
		m["country"] = c.Country
	}
	m["browser"] = c.Browser
	m["os"] = c.OS
	m["device"] = c.Device
	return m
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
