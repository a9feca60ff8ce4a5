// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	tiktokVideoPath   = regexp.MustCompile(`/video/(\d+)`)
	instagramPostPath = regexp.MustCompile(`^/(p|reels?|tv)/([A-Za-z0-9_-]+)`)
)

// EmbedURL returns the iframe URL for a TikTok or Instagram post link, or ""
// when the link is not a recognized social post.
func EmbedURL(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	switch {
	case host == "tiktok.com" || strings.HasSuffix(host, ".tiktok.com"):
		if m := tiktokVideoPath.FindStringSubmatch(u.Path); m != nil {
			return "https://www.tiktok.com/player/v1/" + m[1]
		}
	case host == "instagram.com" || host == "instagr.am":
		if m := instagramPostPath.FindStringSubmatch(u.Path); m != nil {
			kind := m[1]
			if kind == "reels" {
				kind = "reel"
			}
			return "https://www.instagram.com/" + kind + "/" + m[2] + "/embed/"
		}
	}
	return ""
}

// EmbedProvider names the social network EmbedURL recognized, or "".
func EmbedProvider(link string) string {
	embed := EmbedURL(link)
	switch {
	case strings.HasPrefix(embed, "https://www.tiktok.com/"):
		return "tiktok"
	case strings.HasPrefix(embed, "https://www.instagram.com/"):
		return "instagram"
	}
	return ""
}
