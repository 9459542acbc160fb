package services

import (
	"context"
	"log"

	"github.com/AnshRaj112/gather-web/internal/backend"
	"github.com/AnshRaj112/gather-web/internal/models"
	"github.com/AnshRaj112/gather-web/internal/session"
)

// Profile notice texts.
const (
	MsgCreateFailed   = "There was a problem creating your profile"
	MsgUpdateFailed   = "Failed to save profile update"
	MsgReadAfterSave  = "Failed to read profile after saving"
	MsgProfileUpdated = "User profile updated!"
	MsgProfileDeleted = "Profile deleted"
)

// ProfileService runs the create, update and delete flows against a
// session. Each method returns where to send the browser next.
type ProfileService struct{}

func NewProfileService() *ProfileService {
	return &ProfileService{}
}

// Create registers profile and reads it back. Any failure resets the
// session locally so the visitor starts over from login.
func (p *ProfileService) Create(ctx context.Context, s *session.Session, h backend.Handle, profile models.Profile) string {
	if err := h.CreateUser(ctx, profile); err != nil {
		return p.createFailed(s, err)
	}
	user, err := h.ReadUser(ctx)
	if err != nil {
		return p.createFailed(s, err)
	}
	s.CacheUser(user)
	if err := s.Apply(session.EventProfileFound); err != nil {
		log.Printf("profile create: %v", err)
	}
	if target := s.TakeResumeTarget(); target != "" {
		return target
	}
	return "/manage"
}

func (p *ProfileService) createFailed(s *session.Session, err error) string {
	log.Printf("profile create failed: %v", err)
	s.ClearLocal()
	s.Notify(session.NoticeError, MsgCreateFailed)
	return "/"
}

// Update saves profile and refreshes the cached user from the backend.
func (p *ProfileService) Update(ctx context.Context, s *session.Session, h backend.Handle, profile models.Profile) string {
	if err := h.Update(ctx, profile); err != nil {
		log.Printf("profile update failed: %v", err)
		s.Notify(session.NoticeError, MsgUpdateFailed)
		return "/manage"
	}
	user, err := h.Read(ctx)
	if err != nil {
		log.Printf("profile read after update failed: %v", err)
		s.Notify(session.NoticeError, MsgReadAfterSave)
		return "/manage"
	}
	s.CacheUser(user)
	s.Notify(session.NoticeSuccess, MsgProfileUpdated)
	return "/manage"
}

// Delete removes the profile. The backend answer is logged only; the
// local session is cleared either way.
func (p *ProfileService) Delete(ctx context.Context, s *session.Session, h backend.Handle) string {
	res, err := h.Delete(ctx)
	if err != nil {
		log.Printf("profile delete: %v", err)
	} else {
		log.Printf("profile delete: %s", res)
	}
	s.ClearLocal()
	s.Notify(session.NoticeSuccess, MsgProfileDeleted)
	return "/"
}
