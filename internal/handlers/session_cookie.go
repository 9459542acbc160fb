package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/AnshRaj112/gather-web/internal/session"
)

// CookieName is the browser session cookie.
const CookieName = "gather_session"

func readCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie == nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", false
	}
	return value, true
}

func (h *Handler) writeCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(session.Duration.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil || h.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

// LoadSession attaches the browser's session to the request, starting a
// new anonymous one when the cookie is missing or stale. An identity
// that expired since the last request is dropped here.
func (h *Handler) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var s *session.Session
		var err error
		if token, ok := readCookie(r); ok {
			s, err = h.Store.Load(ctx, token)
		} else {
			err = session.ErrNotFound
		}
		if errors.Is(err, session.ErrNotFound) {
			s, err = h.Store.Create(ctx)
			if err == nil {
				h.writeCookie(w, r, s.ID)
			}
		}
		if err != nil {
			log.Printf("session load failed: %v", err)
			http.Error(w, "Session store unavailable", http.StatusServiceUnavailable)
			return
		}

		if h.Boot.CheckExpiry(s) {
			s.Notify(session.NoticeInfo, session.MsgSessionExpired)
			h.commit(r, s)
		}
		next.ServeHTTP(w, r.WithContext(withSession(ctx, s)))
	})
}

// Authenticated reports whether the request carries a logged-in session.
func Authenticated(r *http.Request) bool {
	s := SessionFrom(r.Context())
	return s != nil && s.Authenticated
}
