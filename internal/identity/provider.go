// Package identity talks to the third-party identity provider: it builds the
// login redirect, exchanges the returned code and verifies the id_token.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

var (
	ErrMissingIDToken = errors.New("identity: token response has no id_token")
	ErrInvalidIDToken = errors.New("identity: invalid id_token")
)

// Identity is an authenticated principal and the delegation used to call the backend.
type Identity struct {
	Principal   string
	AccessToken string
	Expiry      time.Time
}

// Valid reports whether the identity can still be used at now.
func (i Identity) Valid(now time.Time) bool {
	if i.Principal == "" || i.AccessToken == "" {
		return false
	}
	return i.Expiry.IsZero() || now.Before(i.Expiry)
}

type Config struct {
	AuthURL      string
	TokenURL     string
	LogoutURL    string
	RedirectURL  string
	ClientID     string
	ClientSecret string
	Scopes       []string
	TokenSecret  string // HS256 key shared with the provider
}

// Provider is safe for concurrent use; build one per process.
type Provider struct {
	oauth       *oauth2.Config
	tokenSecret []byte
	logoutURL   string
}

func NewProvider(cfg Config) (*Provider, error) {
	if cfg.AuthURL == "" || cfg.TokenURL == "" {
		return nil, errors.New("identity: auth and token URLs are required")
	}
	if cfg.TokenSecret == "" {
		return nil, errors.New("identity: token secret is required")
	}
	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		tokenSecret: []byte(cfg.TokenSecret),
		logoutURL:   cfg.LogoutURL,
	}, nil
}

// NewState returns an opaque value binding the redirect to this browser.
func NewState() string {
	return uuid.NewString()
}

// NewVerifier returns a fresh PKCE code verifier.
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthCodeURL is the provider page the browser is sent to.
func (p *Provider) AuthCodeURL(state, verifier string) string {
	return p.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades the authorization code for an Identity.
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (Identity, error) {
	tok, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return Identity{}, fmt.Errorf("identity: exchange: %w", err)
	}
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return Identity{}, ErrMissingIDToken
	}
	claims, err := p.verify(raw)
	if err != nil {
		return Identity{}, err
	}

	expiry := tok.Expiry
	if claims.ExpiresAt != nil && (expiry.IsZero() || claims.ExpiresAt.Time.Before(expiry)) {
		expiry = claims.ExpiresAt.Time
	}
	return Identity{
		Principal:   claims.Subject,
		AccessToken: tok.AccessToken,
		Expiry:      expiry,
	}, nil
}

func (p *Provider) verify(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if p.oauth.ClientID != "" {
		opts = append(opts, jwt.WithAudience(p.oauth.ClientID))
	}
	t, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return p.tokenSecret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	if !t.Valid || claims.Subject == "" {
		return nil, ErrInvalidIDToken
	}
	return claims, nil
}

// LogoutURL is where the browser goes to end the provider session.
// Without a configured provider logout page it is returnTo itself.
func (p *Provider) LogoutURL(returnTo string) string {
	if p.logoutURL == "" {
		return returnTo
	}
	u, err := url.Parse(p.logoutURL)
	if err != nil {
		return returnTo
	}
	q := u.Query()
	q.Set("returnTo", returnTo)
	u.RawQuery = q.Encode()
	return u.String()
}
