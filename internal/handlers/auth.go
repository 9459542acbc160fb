package handlers

import (
	"log"
	"net/http"

	"github.com/AnshRaj112/gather-web/internal/session"
)

// Login starts or resumes authentication.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())
	target, err := h.Boot.Login(s)
	if err != nil {
		log.Printf("login: %v", err)
		s.Notify(session.NoticeError, "Login failed. Please try again.")
		h.redirect(w, r, s, "/")
		return
	}
	h.redirect(w, r, s, target)
}

// Callback completes the identity provider round trip.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		log.Printf("login callback: provider error %q", e)
	}
	target, err := h.Boot.Callback(r.Context(), s, q.Get("state"), q.Get("code"))
	if err != nil {
		log.Printf("login callback: %v", err)
	}
	h.redirect(w, r, s, target)
}

// Logout clears the local session and ends the provider session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())
	target := h.Boot.Logout(s, h.Config.Host+"/")
	h.redirect(w, r, s, target)
}
