// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds the sitemap and robots.txt of the public site.
package seo

import (
	"encoding/xml"
	"strings"
	"time"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Change frequencies used by the site.
const (
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapEdition is an edition listed in the sitemap.
type SitemapEdition struct {
	ID        string
	UpdatedAt time.Time
}

// SitemapBuilder builds sitemap XML for the home page, category feeds,
// the archive and each edition.
type SitemapBuilder struct {
	siteURL string
	urls    []SitemapURL
}

// NewSitemapBuilder creates a new sitemap builder.
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{siteURL: strings.TrimRight(siteURL, "/")}
}

// AddHomepage adds the home page, which always shows the current edition.
func (b *SitemapBuilder) AddHomepage(lastMod time.Time) {
	b.add("/", lastMod, ChangeFreqDaily, "1.0")
}

// AddCategory adds a category feed.
func (b *SitemapBuilder) AddCategory(slug string, lastMod time.Time) {
	b.add("/"+slug, lastMod, ChangeFreqDaily, "0.8")
}

// AddArchive adds the edition archive.
func (b *SitemapBuilder) AddArchive(lastMod time.Time) {
	b.add("/archive", lastMod, ChangeFreqWeekly, "0.6")
}

// AddEdition adds a single edition page.
func (b *SitemapBuilder) AddEdition(e SitemapEdition) {
	b.add("/edition/"+e.ID, e.UpdatedAt, ChangeFreqMonthly, "0.5")
}

func (b *SitemapBuilder) add(path string, lastMod time.Time, freq ChangeFreq, priority string) {
	u := SitemapURL{
		Loc:        b.siteURL + path,
		ChangeFreq: freq,
		Priority:   priority,
	}
	if !lastMod.IsZero() {
		u.LastMod = lastMod.UTC().Format(time.RFC3339)
	}
	b.urls = append(b.urls, u)
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(output, xmlBytes...), nil
}

// GenerateSitemap builds the full site map. editions are listed newest
// first; the first one's update time dates the home page and archive.
func GenerateSitemap(siteURL string, categorySlugs []string, editions []SitemapEdition) ([]byte, error) {
	var latest time.Time
	for _, e := range editions {
		if e.UpdatedAt.After(latest) {
			latest = e.UpdatedAt
		}
	}

	b := NewSitemapBuilder(siteURL)
	b.AddHomepage(latest)
	for _, slug := range categorySlugs {
		b.AddCategory(slug, latest)
	}
	b.AddArchive(latest)
	for _, e := range editions {
		b.AddEdition(e)
	}
	return b.Build()
}
