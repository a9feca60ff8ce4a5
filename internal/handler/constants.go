// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteParamSlug is the slug parameter pattern.
	RouteParamSlug = "/{slug}"
	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"
	// RouteSuffixDelete is the suffix for delete routes.
	RouteSuffixDelete = "/delete"

	// RouteArchive is the public edition archive.
	RouteArchive = "/archive"
	// RouteEdition is the public single edition route.
	RouteEdition = "/edition/{id}"
	// RouteSitemap is the XML sitemap.
	RouteSitemap = "/sitemap.xml"
	// RouteRobots is the crawler policy.
	RouteRobots = "/robots.txt"

	// RouteAdmin is the admin root.
	RouteAdmin = "/admin"
	// RouteAdminLogin is the login page.
	RouteAdminLogin = "/admin/login"
	// RouteAdminLogout is the logout action.
	RouteAdminLogout = "/admin/logout"
	// RouteAuthLogin starts the identity provider flow.
	RouteAuthLogin = "/auth/login"
	// RouteAuthCallback finishes the identity provider flow.
	RouteAuthCallback = "/auth/callback"

	// RouteEditions is the editions admin route.
	RouteEditions = "/editions"
	// RouteThemes is the themes admin route.
	RouteThemes = "/themes"
	// RouteCategories is the per-category posts admin route.
	RouteCategories = "/categories"
	// RoutePosts is the posts admin route.
	RoutePosts = "/posts"
	// RouteMedia is the media admin route.
	RouteMedia = "/media"
	// RouteUsers is the users admin route.
	RouteUsers = "/users"
	// RouteEvents is the events admin route.
	RouteEvents = "/events"
)

// Admin redirect targets.
const (
	redirectAdmin       = "/admin"
	redirectEditions    = "/admin/editions"
	redirectEditionsNew = "/admin/editions/new"
	redirectMedia       = "/admin/media"
	redirectUsers       = "/admin/users"
	redirectCategories  = "/admin/categories/"
	redirectPosts       = "/admin/posts/"
)

// Template names.
const (
	templateHome          = "public/home"
	templateCategory      = "public/category"
	templateArchive       = "public/archive"
	templateEdition       = "public/edition"
	templateNotFound      = "public/not_found"
	templateLogin         = "auth/login"
	templateDashboard     = "admin/dashboard"
	templateEditions      = "admin/editions"
	templateEditionForm   = "admin/edition_form"
	templateCategoryPosts = "admin/category_posts"
	templatePostForm      = "admin/post_form"
	templateMedia         = "admin/media"
	templateUsers         = "admin/users"
	templateEvents        = "admin/events"
	templateAdminError    = "admin/error"
)
