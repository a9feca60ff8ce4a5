// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package unfurl

import (
	"net/url"
	"strings"
)

// YouTubeVideoID returns the video id of a YouTube watch, short or embed
// link, or "" for anything else.
func YouTubeVideoID(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	path := strings.Trim(u.Path, "/")

	switch {
	case host == "youtu.be":
		id, _, _ := strings.Cut(path, "/")
		return id
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		if path == "watch" {
			return u.Query().Get("v")
		}
		for _, prefix := range []string{"shorts/", "embed/"} {
			if rest, ok := strings.CutPrefix(path, prefix); ok {
				id, _, _ := strings.Cut(rest, "/")
				return id
			}
		}
	}
	return ""
}

// YouTubeThumbnail returns the largest thumbnail URL of a video.
func YouTubeThumbnail(id string) string {
	return "https://img.youtube.com/vi/" + url.PathEscape(id) + "/maxresdefault.jpg"
}
