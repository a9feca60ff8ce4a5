// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/dose-go/internal/audit"
	"github.com/olegiv/dose-go/internal/auth"
	"github.com/olegiv/dose-go/internal/blob"
	"github.com/olegiv/dose-go/internal/cache"
	"github.com/olegiv/dose-go/internal/config"
	"github.com/olegiv/dose-go/internal/content"
	"github.com/olegiv/dose-go/internal/geoip"
	"github.com/olegiv/dose-go/internal/handler"
	"github.com/olegiv/dose-go/internal/handler/api"
	"github.com/olegiv/dose-go/internal/middleware"
	"github.com/olegiv/dose-go/internal/model"
	"github.com/olegiv/dose-go/internal/render"
	"github.com/olegiv/dose-go/internal/scheduler"
	"github.com/olegiv/dose-go/internal/service"
	"github.com/olegiv/dose-go/internal/session"
	"github.com/olegiv/dose-go/internal/unfurl"
	"github.com/olegiv/dose-go/internal/util"
	"github.com/olegiv/dose-go/internal/version"
	"github.com/olegiv/dose-go/web"
)

// Rate limits per client IP.
const (
	authRatePerSecond   = 0.5
	authBurst           = 10
	unfurlRatePerSecond = 1
	unfurlBurst         = 20
	requestTimeout      = 60 * time.Second
)

func serve(ctx context.Context) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(db)

	router, cleanup, err := newRouter(cfg, db)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      2 * requestTimeout,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// newRouter wires every service and handler against db and starts the
// maintenance scheduler. cleanup stops the scheduler and releases the cache
// and GeoIP database.
func newRouter(cfg *config.Config, db *sql.DB) (http.Handler, func(), error) {
	c, err := cache.NewCache(cfg.CacheConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("initializing cache: %w", err)
	}
	var closers []func() error
	closers = append(closers, c.Close)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				slog.Error("cleanup failed", "error", err)
			}
		}
	}
	slog.Info("cache initialized", "type", cfg.CacheConfig().Type, "redis", cache.SanitizeRedisURL(cfg.RedisURL))

	sm := session.New(db, cfg.IsDevelopment())

	renderer, err := render.New(render.Config{
		TemplatesFS:    web.TemplatesFS(),
		SessionManager: sm,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("initializing renderer: %w", err)
	}

	blobs, err := blob.NewLocalStore(cfg.UploadsDir, cfg.UploadsURL())
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	reader := content.NewReader(db, "sqlite")
	cached := content.NewCachedReader(reader, c, time.Duration(cfg.CacheTTL)*time.Second)

	events := service.NewEventService(db)
	editions := service.NewEditionService(db, events, cached)
	themes := service.NewThemeService(db, events, cached)
	posts := service.NewPostService(db, events, cached)
	users := service.NewUserService(db, cfg.SuperAdminEmail, events)
	media := service.NewMediaService(blobs, events, cfg.MaxUploadBytes())

	gate := auth.NewGate(cfg.SuperAdminEmail, users)

	// A nil *OAuthProvider must not become a non-nil interface.
	var provider auth.IdentityProvider
	if cfg.OAuthEnabled() {
		provider = auth.NewOAuthProvider(auth.OAuthConfig{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			AuthURL:      cfg.OAuthAuthURL,
			TokenURL:     cfg.OAuthTokenURL,
			UserInfoURL:  cfg.OAuthUserInfoURL,
			RedirectURL:  cfg.OAuthRedirectURL(),
			Scopes:       cfg.OAuthScopes,
		})
	} else {
		slog.Warn("identity provider not configured, admin sign-in is disabled", "category", model.EventCategorySystem)
	}

	countries, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("geoip lookups disabled", "error", err, "category", model.EventCategorySystem)
	}
	closers = append(closers, countries.Close)

	sched, err := newMaintenance(cfg, events, countries)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	sched.Start()
	closers = append(closers, func() error { sched.Stop(); return nil })

	unfurler := unfurl.New(util.NewSafeHTTPClient(10*time.Second), cfg.ScreenshotServiceURL)

	frontendH := handler.NewFrontendHandler(cached, renderer)
	seoH := handler.NewSEOHandler(cached, cfg.PublicURL, cfg.DisallowCrawlers)
	authH := handler.NewAuthHandler(sm, gate, provider, renderer, events)
	authH.SetDescriber(audit.NewDescriber(countries, cfg.TrustedProxies))
	adminH := handler.NewAdminHandler(reader, renderer, editions)
	editionsH := handler.NewEditionsHandler(reader, renderer, editions, themes)
	postsH := handler.NewPostsHandler(reader, renderer, posts, editions)
	mediaH := handler.NewMediaHandler(reader, renderer, media)
	usersH := handler.NewUsersHandler(reader, renderer, users)
	eventsH := handler.NewEventsHandler(reader, renderer, events)
	healthH := handler.NewHealthHandler(db, sm, gate, cfg.UploadsDir, version.Version)
	if p, ok := c.(handler.Pinger); ok {
		healthH.AddCheck("cache", false, handler.PingProbe(p, "Connected"))
	}
	apiH := api.NewHandler(media, unfurler, cfg.MaxUploadBytes())

	authLimiter := middleware.NewRateLimiter(authRatePerSecond, authBurst, cfg.TrustedProxies)
	unfurlLimiter := middleware.NewRateLimiter(unfurlRatePerSecond, unfurlBurst, cfg.TrustedProxies)

	securityCfg := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	securityCfg.ExcludePaths = []string{"/uploads/"}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.SecurityHeaders(securityCfg))

	// Probes answer without sessions or CSRF.
	r.Get("/health", sessionOnly(sm, healthH.Health))
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", sessionOnly(sm, healthH.Readiness))

	r.Get(handler.RouteSitemap, seoH.Sitemap)
	r.Get(handler.RouteRobots, seoH.Robots)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.StaticFS()))))
	r.Handle("/uploads/*", middleware.SandboxUploads(http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))))

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.PublicURL, cfg.IsDevelopment())))
		r.Use(sm.LoadAndSave)

		// Public site
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalIdentity(sm, gate))
			r.Get(handler.RouteRoot, frontendH.Home)
			r.Get(handler.RouteArchive, frontendH.Archive)
			r.Get(handler.RouteEdition, frontendH.Edition)
			for _, slug := range model.CategorySlugs {
				r.Get("/"+slug, frontendH.Category(slug))
			}
		})

		// Sign-in flow
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.HTMLMiddleware())
			r.Get(handler.RouteAdminLogin, authH.LoginPage)
			r.Get(handler.RouteAuthLogin, authH.Login)
			r.Get(handler.RouteAuthCallback, authH.Callback)
		})

		r.Route(handler.RouteAdmin, func(r chi.Router) {
			r.Use(middleware.RequireAdmitted(sm, gate))

			r.Get("/", adminH.Dashboard)
			r.Post("/logout", authH.Logout)

			r.Route(handler.RouteEditions, func(r chi.Router) {
				r.Get("/", editionsH.List)
				r.Post("/", editionsH.Create)
				r.Get(handler.RouteSuffixNew, editionsH.New)
				r.Get(handler.RouteParamID, editionsH.Edit)
				r.Post(handler.RouteParamID, editionsH.Update)
				r.Post(handler.RouteParamID+handler.RouteSuffixDelete, editionsH.Delete)
				r.Post(handler.RouteParamID+"/current", editionsH.SetCurrent)
				r.Post(handler.RouteParamID+handler.RouteThemes, editionsH.CreateTheme)
			})
			r.Post(handler.RouteThemes+handler.RouteParamID, editionsH.UpdateTheme)
			r.Post(handler.RouteThemes+handler.RouteParamID+handler.RouteSuffixDelete, editionsH.DeleteTheme)

			r.Get(handler.RouteCategories+handler.RouteParamSlug, postsH.CategoryPosts)
			r.Post(handler.RouteCategories+handler.RouteParamSlug+handler.RoutePosts, postsH.CreatePost)
			r.Get(handler.RoutePosts+handler.RouteParamID, postsH.EditPost)
			r.Post(handler.RoutePosts+handler.RouteParamID, postsH.UpdatePost)
			r.Post(handler.RoutePosts+handler.RouteParamID+handler.RouteSuffixDelete, postsH.DeletePost)

			r.Get(handler.RouteMedia, mediaH.Library)
			r.Post(handler.RouteMedia+handler.RouteSuffixDelete, mediaH.Delete)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleAdmin))
				r.Get(handler.RouteUsers, usersH.List)
				r.Post(handler.RouteUsers, usersH.Create)
				r.Post(handler.RouteUsers+handler.RouteParamID+"/role", usersH.SetRole)
				r.Post(handler.RouteUsers+handler.RouteParamID+handler.RouteSuffixDelete, usersH.Delete)
				r.Get(handler.RouteEvents, eventsH.List)
			})
		})

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.RequireAdmittedAPI(sm, gate))
			r.Post("/upload", apiH.Upload)
			r.With(unfurlLimiter.Middleware()).Post("/unfurl", apiH.Unfurl)
		})

		r.NotFound(frontendH.NotFound)
	})

	return r, cleanup, nil
}

// newMaintenance schedules event log retention and GeoIP database reloads.
func newMaintenance(cfg *config.Config, events *service.EventService, countries *geoip.Resolver) (*scheduler.Scheduler, error) {
	sched := scheduler.New(slog.Default())

	if retention := cfg.EventRetention(); retention > 0 {
		err := sched.Add("event-retention", "@daily", func(ctx context.Context) error {
			n, err := events.DeleteOldEvents(ctx, retention)
			if err != nil {
				return fmt.Errorf("pruning events: %w", err)
			}
			slog.Info("pruned event log", "deleted", n, "retention", retention)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if cfg.GeoIPDBPath != "" {
		err := sched.Add("geoip-reload", "@weekly", func(context.Context) error {
			return countries.Reload()
		})
		if err != nil {
			return nil, err
		}
	}
	return sched, nil
}

// sessionOnly loads the session without saving it, so probes never
// create session rows.
func sessionOnly(sm *scs.SessionManager, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var token string
		if c, err := r.Cookie(sm.Cookie.Name); err == nil {
			token = c.Value
		}
		ctx, err := sm.Load(r.Context(), token)
		if err != nil {
			next(w, r)
			return
		}
		next(w, r.WithContext(ctx))
	}
}
