// Package handlers serves the Gather screens.
package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/gather-web/internal/config"
	"github.com/AnshRaj112/gather-web/internal/services"
	"github.com/AnshRaj112/gather-web/internal/session"
	"github.com/AnshRaj112/gather-web/internal/views"
)

// Deps are the collaborators built once in main.
type Deps struct {
	Config     *config.Config
	Store      *session.Store
	Boot       *session.Bootstrapper
	Resolver   *session.Resolver
	Hub        *services.EventHub
	Gatherings *services.GatheringService
	Rsvps      *services.RsvpService
	Profiles   *services.ProfileService
	// Pictures is nil when uploads are not configured.
	Pictures services.PictureUploader
	Views    *views.Renderer
}

type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	return &Handler{Deps: d}
}

type sessionKey struct{}

func withSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session loaded by LoadSession.
func SessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey{}).(*session.Session)
	return s
}

// commit stores the request's changes to s.
func (h *Handler) commit(r *http.Request, s *session.Session) {
	if err := h.Store.Commit(r.Context(), s); err != nil {
		log.Printf("session write for %s failed: %v", r.URL.Path, err)
	}
}

// redirect commits s and sends the browser to target.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, s *session.Session, target string) {
	h.commit(r, s)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// render takes pending notices, commits s and writes screen.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, s *session.Session, status int, screen string, page views.Page) {
	page.Notices = s.TakeNotices()
	page.Authenticated = s.Authenticated
	if page.User == nil {
		page.User = s.User
	}
	if len(page.Notices) > 0 {
		h.commit(r, s)
	}
	h.Views.Render(w, status, screen, page)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())
	h.render(w, r, s, http.StatusNotFound, views.NotFound, views.Page{Title: "Not found"})
}

// NotFound renders the not-found screen for unknown paths.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.notFound(w, r)
}

// gatheringID parses the {gatheringId} path parameter.
func gatheringID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "gatheringId"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}
