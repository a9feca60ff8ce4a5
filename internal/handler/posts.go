// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/dose-go/internal/content"
	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/render"
	"github.com/olegiv/dose-go/internal/service"
	"github.com/olegiv/dose-go/internal/store"
	"github.com/olegiv/dose-go/internal/util"
)

// PostsHandler handles per-category post management.
type PostsHandler struct {
	adminBase
	posts    *service.PostService
	editions *service.EditionService
}

// NewPostsHandler creates a new PostsHandler.
func NewPostsHandler(src content.Source, renderer *render.Renderer, posts *service.PostService, editions *service.EditionService) *PostsHandler {
	return &PostsHandler{
		adminBase: adminBase{renderer: renderer, content: src},
		posts:     posts,
		editions:  editions,
	}
}

// PostForm is the editable state of a post as submitted or loaded.
type PostForm struct {
	Headline string
	ThemeID  string
	Insights []service.InsightInput
	Media    []service.MediaInput
	Articles []service.ArticleInput
}

// PostEditor is the data of the post editor partial.
type PostEditor struct {
	Action    string
	Submit    string
	EditionID string
	Form      PostForm
	Themes    []content.Theme
	Errors    map[string]string
}

// CategoryPostsData is the data of the category posts page.
type CategoryPostsData struct {
	Category  content.Category
	Editions  []store.Edition
	EditionID string
	Posts     []content.Post
	Editor    PostEditor
}

// PostFormData is the data of the post edit page.
type PostFormData struct {
	PostID      string
	Category    content.Category
	EditionID   string
	EditionDate string
	Editor      PostEditor
}

// CategoryPosts handles GET /admin/categories/{slug}. The edition is taken
// from ?edition= and defaults to the current edition, then the newest.
func (h *PostsHandler) CategoryPosts(w http.ResponseWriter, r *http.Request) {
	h.renderCategory(w, r, http.StatusOK, r.URL.Query().Get("edition"), PostForm{}, nil)
}

// CreatePost handles POST /admin/categories/{slug}/posts.
func (h *PostsHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	slug := chi.URLParam(r, "slug")
	back := categoryURL(slug, "")
	if !parseFormOrRedirect(w, r, h.renderer, back) {
		return
	}

	editionID := r.PostFormValue("edition_id")
	form := postFormFromRequest(r)
	_, err := h.posts.Create(r.Context(), id.Email, editionID, slug, form.input())
	switch {
	case err == nil:
		flashSuccess(w, r, h.renderer, categoryURL(slug, editionID), "Post created")
	case errors.Is(err, service.ErrNotFound):
		h.renderError(w, r, http.StatusNotFound, "Unknown category.")
	case errors.Is(err, service.ErrValidation):
		h.renderCategory(w, r, http.StatusUnprocessableEntity, editionID, form, fieldErrors(err))
	default:
		slog.Error("creating post", "error", err, "category", model.EventCategoryPost, "slug", slug)
		flashError(w, r, h.renderer, categoryURL(slug, editionID), "Error creating post")
	}
}

// EditPost handles GET /admin/posts/{id}.
func (h *PostsHandler) EditPost(w http.ResponseWriter, r *http.Request) {
	detail, ok := requireEntityWithRedirect(w, r, h.renderer, redirectAdmin, "post", chi.URLParam(r, "id"),
		func(id string) (*service.PostDetail, error) { return h.posts.Get(r.Context(), id) })
	if !ok {
		return
	}
	h.renderPost(w, r, http.StatusOK, detail.Post, postFormFromDetail(detail), nil)
}

// UpdatePost handles POST /admin/posts/{id}. Child lists replace the
// stored ones.
func (h *PostsHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	postID := chi.URLParam(r, "id")
	if !parseFormOrRedirect(w, r, h.renderer, postURL(postID)) {
		return
	}

	form := postFormFromRequest(r)
	_, err := h.posts.Update(r.Context(), id.Email, postID, form.input())
	switch {
	case err == nil:
		flashSuccess(w, r, h.renderer, postURL(postID), "Post saved")
	case errors.Is(err, service.ErrNotFound):
		flashError(w, r, h.renderer, redirectAdmin, "Post not found")
	case errors.Is(err, service.ErrValidation):
		detail, getErr := h.posts.Get(r.Context(), postID)
		if getErr != nil {
			flashError(w, r, h.renderer, redirectAdmin, "Post not found")
			return
		}
		h.renderPost(w, r, http.StatusUnprocessableEntity, detail.Post, form.withBlankRows(), fieldErrors(err))
	default:
		slog.Error("updating post", "error", err, "category", model.EventCategoryPost, "post_id", postID)
		flashError(w, r, h.renderer, postURL(postID), "Error saving post")
	}
}

// DeletePost handles POST /admin/posts/{id}/delete.
func (h *PostsHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	postID := chi.URLParam(r, "id")

	post, err := h.posts.Delete(r.Context(), id.Email, postID)
	switch {
	case err == nil:
		back := redirectAdmin
		if cat, found := h.categoryByID(r, post.CategoryID); found {
			back = categoryURL(cat.Slug, post.EditionID)
		}
		flashSuccess(w, r, h.renderer, back, "Post deleted")
	case errors.Is(err, service.ErrNotFound):
		flashError(w, r, h.renderer, redirectAdmin, "Post not found")
	default:
		slog.Error("deleting post", "error", err, "category", model.EventCategoryPost, "post_id", postID)
		flashError(w, r, h.renderer, postURL(postID), "Error deleting post")
	}
}

func (h *PostsHandler) renderCategory(w http.ResponseWriter, r *http.Request, status int, editionID string, form PostForm, errs map[string]string) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")

	cat, err := h.content.CategoryBySlug(ctx, slug)
	if errors.Is(err, content.ErrNotFound) {
		h.renderError(w, r, http.StatusNotFound, "Unknown category.")
		return
	}
	if err != nil {
		slog.Error("loading category", "error", err, "slug", slug)
		h.renderError(w, r, http.StatusInternalServerError, "The category could not be loaded.")
		return
	}

	editions, err := h.editions.List(ctx)
	if err != nil {
		slog.Error("listing editions", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Editions could not be loaded.")
		return
	}

	data := CategoryPostsData{
		Category:  *cat,
		Editions:  editions,
		EditionID: selectEdition(editions, editionID),
	}

	var themes []content.Theme
	if data.EditionID != "" {
		ec, err := h.content.EditionContent(ctx, data.EditionID)
		if err != nil {
			slog.Error("loading edition content", "error", err, "edition_id", data.EditionID)
		} else {
			themes = ec.Themes
			for _, s := range ec.Sections {
				if s.Slug == slug {
					data.Posts = s.Posts
				}
			}
		}
	}

	data.Editor = PostEditor{
		Action:    redirectCategories + slug + "/posts",
		Submit:    "Create post",
		EditionID: data.EditionID,
		Form:      form.withBlankRows(),
		Themes:    themes,
		Errors:    errs,
	}
	h.renderStatus(w, r, status, templateCategoryPosts, cat.Name, data)
}

func (h *PostsHandler) renderPost(w http.ResponseWriter, r *http.Request, status int, post store.Post, form PostForm, errs map[string]string) {
	data := PostFormData{
		PostID:    post.ID,
		EditionID: post.EditionID,
		Editor: PostEditor{
			Action: postURL(post.ID),
			Submit: "Save post",
			Form:   form,
			Errors: errs,
		},
	}

	if cat, found := h.categoryByID(r, post.CategoryID); found {
		data.Category = cat
	}
	ec, err := h.content.EditionContent(r.Context(), post.EditionID)
	if err != nil {
		slog.Error("loading edition content", "error", err, "edition_id", post.EditionID)
	} else {
		data.EditionDate = ec.Date
		data.Editor.Themes = ec.Themes
	}

	h.renderStatus(w, r, status, templatePostForm, "Edit post", data)
}

// selectEdition returns want when it is one of editions, otherwise the
// current edition, otherwise the newest. It is "" with no editions.
func selectEdition(editions []store.Edition, want string) string {
	for _, e := range editions {
		if e.ID == want {
			return want
		}
	}
	for _, e := range editions {
		if e.IsCurrent {
			return e.ID
		}
	}
	if len(editions) > 0 {
		return editions[0].ID
	}
	return ""
}

func categoryURL(slug, editionID string) string {
	u := redirectCategories + slug
	if editionID != "" {
		u += "?edition=" + url.QueryEscape(editionID)
	}
	return u
}

func postURL(id string) string {
	return redirectPosts + id
}

// postFormFromRequest zips the parallel row fields of the post editor.
func postFormFromRequest(r *http.Request) PostForm {
	f := PostForm{
		Headline: r.PostFormValue("headline"),
		ThemeID:  r.PostFormValue("theme_id"),
	}
	form := r.PostForm

	labels, descriptions := form["insight_label"], form["insight_description"]
	for i := range maxLen(labels, descriptions) {
		f.Insights = append(f.Insights, service.InsightInput{
			Label:       at(labels, i),
			Description: at(descriptions, i),
		})
	}

	types, urls, thumbs := form["media_type"], form["media_url"], form["media_thumbnail_url"]
	captions, links, sizes := form["media_caption"], form["media_external_link"], form["media_size"]
	for i := range maxLen(types, urls, thumbs, captions, links, sizes) {
		f.Media = append(f.Media, service.MediaInput{
			Type:         at(types, i),
			URL:          at(urls, i),
			ThumbnailURL: at(thumbs, i),
			Caption:      at(captions, i),
			ExternalLink: at(links, i),
			Size:         at(sizes, i),
		})
	}

	titles, aurls, summaries := form["article_title"], form["article_url"], form["article_summary"]
	images, authors, sources := form["article_image_url"], form["article_author"], form["article_source"]
	for i := range maxLen(titles, aurls, summaries, images, authors, sources) {
		f.Articles = append(f.Articles, service.ArticleInput{
			Title:    at(titles, i),
			URL:      at(aurls, i),
			Summary:  at(summaries, i),
			ImageURL: at(images, i),
			Author:   at(authors, i),
			Source:   at(sources, i),
		})
	}
	return f
}

func postFormFromDetail(d *service.PostDetail) PostForm {
	f := PostForm{
		Headline: d.Post.Headline,
		ThemeID:  util.StringFromNull(d.Post.ThemeID),
	}
	for _, i := range d.Insights {
		f.Insights = append(f.Insights, service.InsightInput{Label: i.Label, Description: i.Description})
	}
	for _, m := range d.Media {
		f.Media = append(f.Media, service.MediaInput{
			Type:         m.Type,
			URL:          m.Url,
			ThumbnailURL: util.StringFromNull(m.ThumbnailUrl),
			Caption:      util.StringFromNull(m.Caption),
			ExternalLink: util.StringFromNull(m.ExternalLink),
			Size:         m.Size,
		})
	}
	for _, a := range d.Articles {
		f.Articles = append(f.Articles, service.ArticleInput{
			Title:    a.Title,
			URL:      a.Url,
			Summary:  a.Summary,
			ImageURL: util.StringFromNull(a.ImageUrl),
			Author:   util.StringFromNull(a.Author),
			Source:   util.StringFromNull(a.Source),
		})
	}
	return f.withBlankRows()
}

// withBlankRows ensures media and article rows end with an empty row for the
// editor to fill. Blank media and article rows are dropped again on save.
// Insights are stored as submitted, so the editor adds them from a template.
func (f PostForm) withBlankRows() PostForm {
	if n := len(f.Media); n == 0 || !blankMedia(f.Media[n-1]) {
		f.Media = append(f.Media[:n:n], service.MediaInput{
			Type: model.MediaTypeImage,
			Size: model.MediaSizeMedium,
		})
	}
	if n := len(f.Articles); n == 0 || f.Articles[n-1] != (service.ArticleInput{}) {
		f.Articles = append(f.Articles[:n:n], service.ArticleInput{})
	}
	return f
}

func blankMedia(m service.MediaInput) bool {
	return m.URL == "" && m.ThumbnailURL == "" && m.Caption == "" && m.ExternalLink == ""
}

func (f PostForm) input() service.PostInput {
	return service.PostInput{
		Headline: f.Headline,
		ThemeID:  f.ThemeID,
		Insights: f.Insights,
		Media:    f.Media,
		Articles: f.Articles,
	}
}

func maxLen(lists ...[]string) int {
	n := 0
	for _, l := range lists {
		n = max(n, len(l))
	}
	return n
}

func at(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}
	return ""
}
