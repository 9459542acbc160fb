package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/AnshRaj112/gather-web/internal/backend"
	"github.com/AnshRaj112/gather-web/internal/session"
)

// requireHandle returns the session's handle, or redirects and returns
// nil. Unauthenticated visitors have path remembered for after login;
// sessions still bootstrapping are sent to /loading.
func (h *Handler) requireHandle(w http.ResponseWriter, r *http.Request, s *session.Session, gatheringID uint64) backend.Handle {
	switch s.State {
	case session.StateAuthenticatedNoHandle, session.StateResolving:
		s.Remember(r.URL.Path, gatheringID)
		h.redirect(w, r, s, "/loading")
		return nil
	}
	handle, err := h.Boot.HandleFor(s)
	if errors.Is(err, backend.ErrNoHandle) {
		s.Remember(r.URL.Path, gatheringID)
		h.redirect(w, r, s, "/")
		return nil
	}
	if err != nil {
		log.Printf("handle for %s: %v", r.URL.Path, err)
		h.redirect(w, r, s, "/")
		return nil
	}
	return handle
}

// requireReady is requireHandle for screens that need an existing profile.
func (h *Handler) requireReady(w http.ResponseWriter, r *http.Request, s *session.Session) backend.Handle {
	handle := h.requireHandle(w, r, s, 0)
	if handle == nil {
		return nil
	}
	switch {
	case s.State == session.StateNeedsProfile:
		h.redirect(w, r, s, "/create")
		return nil
	case s.State != session.StateReady || s.User == nil:
		h.redirect(w, r, s, "/")
		return nil
	}
	return handle
}
