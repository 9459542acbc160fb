package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/AnshRaj112/gather-web/internal/services"
	"github.com/AnshRaj112/gather-web/internal/session"
)

const (
	MsgPictureUnavailable = "Picture uploads are not available"
	MsgPictureMissing     = "Choose a picture to upload"
	MsgPictureNotImage    = "The uploaded file is not an image"
	MsgPictureFailed      = "Failed to upload picture"
)

// UploadPicture stores a new profile picture and saves its URL through
// the regular update flow.
func (h *Handler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())
	handle := h.requireReady(w, r, s)
	if handle == nil {
		return
	}
	if h.Pictures == nil {
		s.Notify(session.NoticeError, MsgPictureUnavailable)
		h.redirect(w, r, s, "/manage")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxPictureBytes+(1<<20))
	if err := r.ParseMultipartForm(services.MaxPictureBytes); err != nil {
		log.Printf("picture upload: parse form: %v", err)
		s.Notify(session.NoticeError, MsgPictureFailed)
		h.redirect(w, r, s, "/manage")
		return
	}
	_, fileHeader, err := r.FormFile("file")
	if err != nil {
		s.Notify(session.NoticeError, MsgPictureMissing)
		h.redirect(w, r, s, "/manage")
		return
	}

	url, err := h.Pictures.UploadPicture(r.Context(), fileHeader, s.User.Principal)
	if err != nil {
		log.Printf("picture upload: %v", err)
		msg := MsgPictureFailed
		if errors.Is(err, services.ErrNotImage) {
			msg = MsgPictureNotImage
		}
		s.Notify(session.NoticeError, msg)
		h.redirect(w, r, s, "/manage")
		return
	}

	profile := s.User.Profile
	profile.Picture = url
	target := h.Profiles.Update(r.Context(), s, handle, profile.Normalized())
	h.redirect(w, r, s, target)
}
