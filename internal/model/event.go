// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth    = "auth"
	EventCategoryEdition = "edition"
	EventCategoryPost    = "post"
	EventCategoryUser    = "user"
	EventCategoryMedia   = "media"
	EventCategorySystem  = "system"
)

// EventLevels and EventCategories list the values accepted by the event log filters.
var (
	EventLevels     = []string{EventLevelInfo, EventLevelWarning, EventLevelError}
	EventCategories = []string{EventCategoryAuth, EventCategoryEdition, EventCategoryPost, EventCategoryUser, EventCategoryMedia, EventCategorySystem}
)
