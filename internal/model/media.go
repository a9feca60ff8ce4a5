// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Media item kinds
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Media item display sizes
const (
	MediaSizeSmall  = "small"
	MediaSizeMedium = "medium"
	MediaSizeLarge  = "large"
)

// MediaTypes and MediaSizes list the values offered by the post editor.
var (
	MediaTypes = []string{MediaTypeImage, MediaTypeVideo}
	MediaSizes = []string{MediaSizeSmall, MediaSizeMedium, MediaSizeLarge}
)

// Supported upload MIME types
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
	MimeTypeSVG  = "image/svg+xml"
	MimeTypeMP4  = "video/mp4"
	MimeTypeWebM = "video/webm"
	MimeTypeMOV  = "video/quicktime"
)

// AllowedUploadTypes maps accepted upload MIME types to their media kind.
var AllowedUploadTypes = map[string]string{
	MimeTypeJPEG: MediaTypeImage,
	MimeTypePNG:  MediaTypeImage,
	MimeTypeGIF:  MediaTypeImage,
	MimeTypeWebP: MediaTypeImage,
	MimeTypeSVG:  MediaTypeImage,
	MimeTypeMP4:  MediaTypeVideo,
	MimeTypeWebM: MediaTypeVideo,
	MimeTypeMOV:  MediaTypeVideo,
}

// IsValidMediaType reports whether t is image or video.
func IsValidMediaType(t string) bool {
	return t == MediaTypeImage || t == MediaTypeVideo
}

// IsValidMediaSize reports whether s is a known display size.
func IsValidMediaSize(s string) bool {
	switch s {
	case MediaSizeSmall, MediaSizeMedium, MediaSizeLarge:
		return true
	}
	return false
}
