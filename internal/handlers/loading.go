package handlers

import (
	"log"
	"net/http"

	"github.com/AnshRaj112/gather-web/internal/session"
	"github.com/AnshRaj112/gather-web/internal/views"
)

// loadingRefreshSeconds is how often /loading polls itself as a fallback
// when the live event is missed.
const loadingRefreshSeconds = 2

// Loading starts profile resolution for a fresh handle and forwards the
// browser once it has settled.
func (h *Handler) Loading(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())

	if s.State == session.StateAuthenticatedNoHandle {
		if _, err := h.Resolver.Start(r.Context(), s.ID); err != nil {
			log.Printf("loading: start resolver: %v", err)
		}
		// Start wrote the session; render from the stored copy next time.
		h.Views.Render(w, http.StatusOK, views.Loading, views.Page{
			Title:          "Loading",
			Authenticated:  true,
			RefreshSeconds: loadingRefreshSeconds,
		})
		return
	}

	target := s.TakeDestination()
	if target == "" {
		h.render(w, r, s, http.StatusOK, views.Loading, views.Page{
			Title:          "Loading",
			RefreshSeconds: loadingRefreshSeconds,
		})
		return
	}
	h.redirect(w, r, s, target)
}
