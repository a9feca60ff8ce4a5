// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package unfurl extracts link preview metadata (image, title, author and
// site name) from web pages.
package unfurl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/olegiv/dose-go/internal/util"
)

// Fetch limits.
const (
	Timeout      = 10 * time.Second
	MaxBodyBytes = 2 << 20
	UserAgent    = "Mozilla/5.0 (compatible; ADilyBot/1.0; +https://adily.example.com)"
)

// ErrInvalidURL is returned for input that is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("unfurl: invalid URL")

// Result is the metadata found for a link. Fields the page does not
// provide are nil. Error is set when the page could not be fetched.
type Result struct {
	ImageURL *string `json:"imageUrl"`
	Title    *string `json:"title"`
	Author   *string `json:"author"`
	Source   *string `json:"source"`
	Error    string  `json:"error,omitempty"`
}

// Options tune a single Unfurl call.
type Options struct {
	// Screenshot requests a screenshot service image when the page has none.
	Screenshot bool
}

// Unfurler fetches pages and extracts their metadata.
type Unfurler struct {
	client        *http.Client
	screenshotURL string
}

// New creates an Unfurler. A nil client selects an SSRF-safe client with
// the default timeout. screenshotURL may be empty.
func New(client *http.Client, screenshotURL string) *Unfurler {
	if client == nil {
		client = util.NewSafeHTTPClient(Timeout)
	}
	return &Unfurler{client: client, screenshotURL: strings.TrimSpace(screenshotURL)}
}

// Unfurl returns metadata for rawURL. Only malformed input produces an
// error; fetch failures are reported through Result.Error.
func (u *Unfurler) Unfurl(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	target, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	if id := YouTubeVideoID(target); id != "" {
		return &Result{
			ImageURL: ptr(YouTubeThumbnail(id)),
			Source:   ptr("YouTube"),
		}, nil
	}

	res := &Result{}
	page, finalURL, err := u.fetch(ctx, target)
	if err != nil {
		slog.Debug("unfurl fetch failed", "url", target.String(), "error", err)
		res.Error = err.Error()
		return res, nil
	}

	meta := parseMeta(page)
	if img := meta.first("og:image", "twitter:image"); img != "" {
		res.ImageURL = ptr(resolve(finalURL, img))
	}
	if title := meta.first("og:title", "twitter:title"); title != "" {
		res.Title = ptr(title)
	}
	if author := meta.first("author", "article:author", "twitter:creator"); author != "" {
		res.Author = ptr(author)
	}
	if site := meta.first("og:site_name"); site != "" {
		res.Source = ptr(site)
	} else {
		res.Source = ptr(target.Hostname())
	}

	if opts.Screenshot && res.ImageURL == nil && u.screenshotURL != "" {
		res.ImageURL = ptr(u.screenshotFor(target))
	}
	return res, nil
}

func (u *Unfurler) fetch(ctx context.Context, target *url.URL) ([]byte, *url.URL, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return nil, nil, err
	}
	return body, resp.Request.URL, nil
}

func (u *Unfurler) screenshotFor(target *url.URL) string {
	sep := "?"
	if strings.Contains(u.screenshotURL, "?") {
		sep = "&"
	}
	return u.screenshotURL + sep + "url=" + url.QueryEscape(target.String())
}

func parseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}

func resolve(base *url.URL, ref string) string {
	r, err := url.Parse(ref)
	if err != nil || base == nil {
		return ref
	}
	return base.ResolveReference(r).String()
}

func ptr(s string) *string { return &s }

// pageMeta maps lower-cased meta property or name keys to the first
// non-empty content seen for them.
type pageMeta map[string]string

// parseMeta collects the meta tags of page. Entities in attribute values
// are decoded by the HTML parser.
func parseMeta(page []byte) pageMeta {
	meta := pageMeta{}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return meta
	}
	doc.Find("meta[content]").Each(func(_ int, s *goquery.Selection) {
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return
		}
		for _, attr := range []string{"property", "name"} {
			key := strings.ToLower(strings.TrimSpace(s.AttrOr(attr, "")))
			if key == "" {
				continue
			}
			if _, seen := meta[key]; !seen {
				meta[key] = content
			}
		}
	})
	return meta
}

// first returns the content of the first key present, in key order.
func (m pageMeta) first(keys ...string) string {
	for _, key := range keys {
		if v := m[key]; v != "" {
			return v
		}
	}
	return ""
}
