// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoEmail is returned when the identity provider does not disclose a
// verified email address.
var ErrNoEmail = errors.New("auth: identity provider returned no verified email")

// ProviderIdentity is what the identity provider says about the user.
// It is not yet admitted; pass Email through a Gate.
type ProviderIdentity struct {
	Email string
	Name  string
}

// IdentityProvider runs the authorization-code flow.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (ProviderIdentity, error)
}

// OAuthConfig configures an OAuthProvider.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
}

// OAuthProvider is an IdentityProvider backed by an OAuth 2 server with an
// OpenID-style userinfo endpoint.
type OAuthProvider struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewOAuthProvider creates an OAuthProvider.
func NewOAuthProvider(cfg OAuthConfig) *OAuthProvider {
	return &OAuthProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: cfg.RedirectURL,
			Scopes:      cfg.Scopes,
		},
		userInfoURL: cfg.UserInfoURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthCodeURL returns the provider URL the browser is sent to.
func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type userInfo struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
}

// Exchange trades an authorization code for the user's identity.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (ProviderIdentity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return ProviderIdentity{}, fmt.Errorf("exchanging code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return ProviderIdentity{}, fmt.Errorf("building userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return ProviderIdentity{}, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ProviderIdentity{}, fmt.Errorf("fetching userinfo: HTTP %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return ProviderIdentity{}, fmt.Errorf("decoding userinfo: %w", err)
	}

	info.Email = strings.TrimSpace(info.Email)
	if info.Email == "" || (info.EmailVerified != nil && !*info.EmailVerified) {
		return ProviderIdentity{}, ErrNoEmail
	}
	return ProviderIdentity{Email: info.Email, Name: strings.TrimSpace(info.Name)}, nil
}

// NewState returns a random value for the OAuth state parameter.
func NewState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
