package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AnshRaj112/gather-web/internal/backend"
	"github.com/AnshRaj112/gather-web/internal/identity"
)

// ErrStateMismatch means the provider callback does not belong to this session.
var ErrStateMismatch = errors.New("session: login state mismatch")

// Provider is the part of identity.Provider the bootstrapper needs.
type Provider interface {
	AuthCodeURL(state, verifier string) string
	Exchange(ctx context.Context, code, verifier string) (identity.Identity, error)
	LogoutURL(returnTo string) string
}

// Bootstrapper owns login, logout and handle construction.
type Bootstrapper struct {
	provider Provider
	factory  backend.HandleFactory
	now      func() time.Time

	// HomeURL is the public address of the app, e.g. "https://gather.example.com".
	// Provider logouts started by the server return the browser there.
	HomeURL string
}

func NewBootstrapper(provider Provider, factory backend.HandleFactory) *Bootstrapper {
	return &Bootstrapper{provider: provider, factory: factory, now: time.Now}
}

// CheckExpiry drops an identity that has expired since the last request.
// It reports whether the session was cleared.
func (b *Bootstrapper) CheckExpiry(s *Session) bool {
	if !s.Authenticated || s.IsAuthenticated(b.now()) {
		return false
	}
	s.ClearLocal()
	return true
}

// Login returns where to send the browser. An already authenticated
// session goes straight to /loading; otherwise the provider page.
func (b *Bootstrapper) Login(s *Session) (string, error) {
	if s.IsAuthenticated(b.now()) {
		switch s.State {
		case StateError, StateNeedsProfile, StateReady:
			// A manual login is the only retry: start a fresh handle.
			if err := s.Apply(EventReauthenticate); err != nil {
				return "", err
			}
			s.HandleGeneration++
		}
		return "/loading", nil
	}
	if s.Authenticated {
		s.ClearLocal()
	}
	if err := s.Apply(EventLoginStarted); err != nil {
		return "", err
	}
	s.OAuthState = identity.NewState()
	s.OAuthVerifier = identity.NewVerifier()
	return b.provider.AuthCodeURL(s.OAuthState, s.OAuthVerifier), nil
}

// Callback completes a provider round trip. On failure the session is
// left unauthenticated; there is no automatic retry.
func (b *Bootstrapper) Callback(ctx context.Context, s *Session, state, code string) (string, error) {
	if s.State != StateAuthenticating || s.OAuthState == "" || state != s.OAuthState {
		b.failLogin(s)
		return "/", ErrStateMismatch
	}
	id, err := b.provider.Exchange(ctx, code, s.OAuthVerifier)
	if err != nil {
		b.failLogin(s)
		return "/", fmt.Errorf("session: login: %w", err)
	}
	if err := s.Apply(EventAuthenticated); err != nil {
		return "/", err
	}
	s.authenticate(id)
	return "/loading", nil
}

func (b *Bootstrapper) failLogin(s *Session) {
	s.OAuthState = ""
	s.OAuthVerifier = ""
	if s.State == StateAuthenticating {
		_ = s.Apply(EventLoginFailed)
	}
	s.Notify(NoticeError, "Login failed. Please try again.")
}

// Logout clears authentication, handle and cached user together and
// returns the provider logout URL that leads back to returnTo.
func (b *Bootstrapper) Logout(s *Session, returnTo string) string {
	s.ClearLocal()
	return b.provider.LogoutURL(returnTo)
}

// homeURL makes path absolute against HomeURL so the provider sends the
// browser back to this app rather than to its own origin.
func (b *Bootstrapper) homeURL(path string) string {
	if b.HomeURL == "" {
		return path
	}
	return strings.TrimSuffix(b.HomeURL, "/") + path
}

// Expire handles a NotAuthorized answer: the delegation is no longer
// accepted, so the session is logged out locally.
func (b *Bootstrapper) Expire(s *Session) {
	s.ClearLocal()
}

// HandleFor builds the remote-call handle for the session's current
// generation. No handle exists while unauthenticated.
func (b *Bootstrapper) HandleFor(s *Session) (backend.Handle, error) {
	id, ok := s.Identity()
	if !ok || !id.Valid(b.now()) {
		return nil, backend.ErrNoHandle
	}
	return b.factory.New(id.AccessToken, s.HandleGeneration), nil
}
