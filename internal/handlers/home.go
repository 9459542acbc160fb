package handlers

import (
	"net/http"

	"github.com/AnshRaj112/gather-web/internal/views"
)

// Home shows the landing screen with the login button.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())
	h.render(w, r, s, http.StatusOK, views.Home, views.Page{GatheringID: s.PendingGatheringID})
}
