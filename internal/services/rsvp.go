package services

import (
	"context"
	"fmt"
	"log"

	"github.com/AnshRaj112/gather-web/internal/backend"
	"github.com/AnshRaj112/gather-web/internal/models"
	"github.com/AnshRaj112/gather-web/internal/session"
)

// RSVP notice texts.
const (
	MsgRsvpReceived      = "RSVP received!"
	MsgRsvpUserNotFound  = "User not found. You must create an account before submitting an RSVP."
	MsgRsvpNotAuthorized = "Not authorized. Please log in before submitting an RSVP."
	MsgRsvpFailed        = "Error submitting RSVP."
)

// GatheringNotFoundMessage is shown when id names no gathering.
func GatheringNotFoundMessage(id uint64) string {
	return fmt.Sprintf("Gathering %d not found.", id)
}

// RsvpService submits RSVPs after confirming the gathering exists.
type RsvpService struct {
	boot       *session.Bootstrapper
	gatherings *GatheringService
}

func NewRsvpService(boot *session.Bootstrapper, gatherings *GatheringService) *RsvpService {
	return &RsvpService{boot: boot, gatherings: gatherings}
}

// Submit sends rsvp for gathering id and records exactly one notice on s.
// A NotAuthorized answer expires the session but keeps the gathering
// pending so the visitor returns to it after logging in again.
func (r *RsvpService) Submit(ctx context.Context, s *session.Session, h backend.Handle, rsvp models.Rsvp, id uint64) {
	list, err := h.GetGathering(ctx, id)
	if err != nil {
		r.notifyFailure(s, err, id)
		return
	}
	if len(list) == 0 {
		s.Notify(session.NoticeError, GatheringNotFoundMessage(id))
		return
	}

	if err := h.Rsvp(ctx, rsvp, id); err != nil {
		r.notifyFailure(s, err, id)
		return
	}
	if r.gatherings != nil {
		r.gatherings.Forget(ctx, id)
	}
	s.Notify(session.NoticeSuccess, MsgRsvpReceived)
}

func (r *RsvpService) notifyFailure(s *session.Session, err error, id uint64) {
	switch backend.VariantOf(err) {
	case backend.VariantUserNotFound:
		s.Notify(session.NoticeError, MsgRsvpUserNotFound)
		return
	case backend.VariantGatheringNotFound:
		s.Notify(session.NoticeError, GatheringNotFoundMessage(id))
		return
	}
	if backend.IsNotAuthorized(err) {
		s.Notify(session.NoticeError, MsgRsvpNotAuthorized)
		r.boot.Expire(s)
		s.Remember(session.GatheringPath(id), id)
		return
	}
	log.Printf("rsvp for gathering %d failed: %v", id, err)
	s.Notify(session.NoticeError, MsgRsvpFailed)
}
