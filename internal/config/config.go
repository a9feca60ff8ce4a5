// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/olegiv/dose-go/internal/cache"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"DOSE_DB_PATH" envDefault:"./data/dose.db"`
	SessionSecret string `env:"DOSE_SESSION_SECRET,required"`
	ServerHost    string `env:"DOSE_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"DOSE_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"DOSE_ENV" envDefault:"development"`
	LogLevel      string `env:"DOSE_LOG_LEVEL" envDefault:"info"`

	// SuperAdminEmail is always admitted with the admin role and cannot be removed.
	SuperAdminEmail string `env:"DOSE_SUPER_ADMIN_EMAIL,required"`

	// PublicURL is the externally visible base URL, used for blob URLs and the OAuth redirect.
	PublicURL      string   `env:"DOSE_PUBLIC_URL" envDefault:"http://localhost:8080"`
	UploadsDir     string   `env:"DOSE_UPLOADS_DIR" envDefault:"./uploads"`
	MaxUploadMB    int64    `env:"DOSE_MAX_UPLOAD_MB" envDefault:"50"`
	TrustedProxies []string `env:"DOSE_TRUSTED_PROXIES" envSeparator:","`

	// OAuth identity provider (defaults target Google)
	OAuthClientID     string   `env:"DOSE_OAUTH_CLIENT_ID"`
	OAuthClientSecret string   `env:"DOSE_OAUTH_CLIENT_SECRET"`
	OAuthAuthURL      string   `env:"DOSE_OAUTH_AUTH_URL" envDefault:"https://accounts.google.com/o/oauth2/auth"`
	OAuthTokenURL     string   `env:"DOSE_OAUTH_TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
	OAuthUserInfoURL  string   `env:"DOSE_OAUTH_USERINFO_URL" envDefault:"https://openidconnect.googleapis.com/v1/userinfo"`
	OAuthScopes       []string `env:"DOSE_OAUTH_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`

	// Cache configuration
	RedisURL     string `env:"DOSE_REDIS_URL"`                        // Optional Redis URL for distributed caching
	CachePrefix  string `env:"DOSE_CACHE_PREFIX" envDefault:"dose:"`  // Redis key prefix
	CacheTTL     int    `env:"DOSE_CACHE_TTL" envDefault:"300"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"DOSE_CACHE_MAX_SIZE" envDefault:"1000"` // Max memory cache entries

	// ScreenshotServiceURL is an optional image fallback for link previews.
	ScreenshotServiceURL string `env:"DOSE_SCREENSHOT_SERVICE_URL"`

	// GeoIPDBPath points at a GeoLite2-Country database; empty disables country lookups.
	GeoIPDBPath string `env:"DOSE_GEOIP_DB_PATH"`

	// DisallowCrawlers makes robots.txt block every crawler (staging sites).
	DisallowCrawlers bool `env:"DOSE_DISALLOW_CRAWLERS"`

	// EventRetentionDays is how long event log entries are kept; 0 keeps them forever.
	EventRetentionDays int `env:"DOSE_EVENT_RETENTION_DAYS" envDefault:"90"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// OAuthEnabled returns true if the identity provider client is configured.
func (c Config) OAuthEnabled() bool {
	return c.OAuthClientID != "" && c.OAuthClientSecret != ""
}

// OAuthRedirectURL returns the callback URL registered with the identity provider.
func (c Config) OAuthRedirectURL() string {
	return strings.TrimRight(c.PublicURL, "/") + "/auth/callback"
}

// UploadsURL returns the public base URL of uploaded files.
func (c Config) UploadsURL() string {
	return strings.TrimRight(c.PublicURL, "/") + "/uploads"
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// CacheConfig converts the cache settings into a cache.Config.
func (c Config) CacheConfig() cache.Config {
	return cache.Config{
		Type:       c.cacheType(),
		RedisURL:   c.RedisURL,
		KeyPrefix:  c.CachePrefix,
		DefaultTTL: time.Duration(c.CacheTTL) * time.Second,
		MaxSize:    c.CacheMaxSize,
	}
}

func (c Config) cacheType() string {
	if c.UseRedisCache() {
		return cache.TypeRedis
	}
	return cache.TypeMemory
}

// EventRetention returns the event log retention period, or 0 when
// events are kept forever.
func (c Config) EventRetention() time.Duration {
	if c.EventRetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("DOSE_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("DOSE_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("DOSE_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	cfg.SuperAdminEmail = strings.TrimSpace(cfg.SuperAdminEmail)
	if !strings.Contains(cfg.SuperAdminEmail, "@") {
		return nil, fmt.Errorf("DOSE_SUPER_ADMIN_EMAIL must be an email address, got %q", cfg.SuperAdminEmail)
	}

	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("DOSE_MAX_UPLOAD_MB must be positive, got %d", cfg.MaxUploadMB)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
