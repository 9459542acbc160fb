package handlers

import (
	"net/http"

	"github.com/AnshRaj112/gather-web/internal/forms"
	"github.com/AnshRaj112/gather-web/internal/models"
	"github.com/AnshRaj112/gather-web/internal/session"
	"github.com/AnshRaj112/gather-web/internal/views"
)

// CreatePage shows the empty profile form.
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())
	if h.requireHandle(w, r, s, 0) == nil {
		return
	}
	switch s.State {
	case session.StateNeedsProfile:
	case session.StateReady:
		h.redirect(w, r, s, "/manage")
		return
	default:
		h.redirect(w, r, s, "/")
		return
	}
	h.render(w, r, s, http.StatusOK, views.Create, views.Page{
		Title: "Create profile",
		Draft: forms.ReduceProfile(forms.ProfileDraft{}, forms.Reset{Profile: models.EmptyProfile()}),
	})
}

// Create registers the submitted profile.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())
	handle := h.requireHandle(w, r, s, 0)
	if handle == nil {
		return
	}
	if s.State != session.StateNeedsProfile {
		h.redirect(w, r, s, "/manage")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	draft := forms.DraftFromForm(models.EmptyProfile(), r.PostForm)
	if err := draft.Validate(); err != nil {
		s.Notify(session.NoticeError, err.Error())
		h.render(w, r, s, http.StatusUnprocessableEntity, views.Create, views.Page{Title: "Create profile", Draft: draft})
		return
	}
	target := h.Profiles.Create(r.Context(), s, handle, draft.Profile())
	h.redirect(w, r, s, target)
}

// ManagePage shows the stored profile for editing.
func (h *Handler) ManagePage(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())
	if h.requireReady(w, r, s) == nil {
		return
	}
	h.render(w, r, s, http.StatusOK, views.Manage, views.Page{
		Title:          "Profile",
		Draft:          forms.ReduceProfile(forms.ProfileDraft{}, forms.Reset{Profile: s.User.Profile}),
		PictureEnabled: h.Pictures != nil,
	})
}

// Manage saves profile edits.
func (h *Handler) Manage(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())
	handle := h.requireReady(w, r, s)
	if handle == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	draft := forms.DraftFromForm(s.User.Profile, r.PostForm)
	if err := draft.Validate(); err != nil {
		s.Notify(session.NoticeError, err.Error())
		h.render(w, r, s, http.StatusUnprocessableEntity, views.Manage, views.Page{
			Title:          "Profile",
			Draft:          draft,
			PictureEnabled: h.Pictures != nil,
		})
		return
	}
	target := h.Profiles.Update(r.Context(), s, handle, draft.Profile())
	h.redirect(w, r, s, target)
}

// DeletePage asks for confirmation before deleting.
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())
	if h.requireReady(w, r, s) == nil {
		return
	}
	h.render(w, r, s, http.StatusOK, views.Delete, views.Page{Title: "Delete profile"})
}

// Delete removes the profile once confirmed.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())
	handle := h.requireReady(w, r, s)
	if handle == nil {
		return
	}
	if r.PostFormValue("confirm") != "yes" {
		h.redirect(w, r, s, "/manage")
		return
	}
	target := h.Profiles.Delete(r.Context(), s, handle)
	h.redirect(w, r, s, target)
}
