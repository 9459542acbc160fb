package handlers

import (
	"log"
	"net/http"

	"github.com/AnshRaj112/gather-web/internal/backend"
	"github.com/AnshRaj112/gather-web/internal/forms"
	"github.com/AnshRaj112/gather-web/internal/services"
	"github.com/AnshRaj112/gather-web/internal/session"
	"github.com/AnshRaj112/gather-web/internal/views"
)

// GatheringPage shows a gathering and the RSVP form. Visitors who are not
// logged in see the home screen and return here after login.
func (h *Handler) GatheringPage(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())
	id, ok := gatheringID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	if !s.Authenticated {
		s.Remember(r.URL.Path, id)
		h.commit(r, s)
		h.render(w, r, s, http.StatusOK, views.Home, views.Page{GatheringID: id})
		return
	}
	handle := h.requireHandle(w, r, s, id)
	if handle == nil {
		return
	}

	g, err := h.Gatherings.Get(r.Context(), handle, id)
	switch {
	case backend.IsNotAuthorized(err):
		s.Notify(session.NoticeError, session.MsgSessionExpired)
		h.Boot.Expire(s)
		s.Remember(r.URL.Path, id)
		h.redirect(w, r, s, "/")
		return
	case err != nil:
		log.Printf("gathering %d: %v", id, err)
		s.Notify(session.NoticeError, "Error: the Gather service is unavailable")
	case g == nil:
		s.Notify(session.NoticeError, services.GatheringNotFoundMessage(id))
	}

	status := backend.HTTPStatus(err)
	if g == nil && err == nil {
		status = http.StatusNotFound
	}
	h.render(w, r, s, status, views.Gathering, views.Page{
		Title:       "Gathering",
		GatheringID: id,
		Gathering:   g,
	})
}

// SubmitRsvp handles the RSVP form.
func (h *Handler) SubmitRsvp(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())
	id, ok := gatheringID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	back := session.GatheringPath(id)

	handle := h.requireHandle(w, r, s, id)
	if handle == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	rsvp, err := forms.ParseRsvp(r.PostForm)
	if err != nil {
		s.Notify(session.NoticeError, err.Error())
		h.redirect(w, r, s, back)
		return
	}

	h.Rsvps.Submit(r.Context(), s, handle, rsvp, id)
	if !s.Authenticated {
		h.redirect(w, r, s, "/")
		return
	}
	h.redirect(w, r, s, back)
}
