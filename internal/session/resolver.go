package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/AnshRaj112/gather-web/internal/backend"
	"github.com/AnshRaj112/gather-web/internal/models"
)

// Notice texts shown by the profile resolver.
const (
	MsgSessionExpired  = "Your session expired. Please reauthenticate."
	MsgProfileNotFound = "User profile not found. Please try creating again."
)

// ErrSuperseded means a newer handle generation owns the session.
var ErrSuperseded = errors.New("session: result superseded by a newer handle")

// Outcome is where the browser goes after a resolution step.
type Outcome struct {
	Path string
	// EndProviderSession asks the caller to send the browser through the
	// provider logout page before Path.
	EndProviderSession bool
}

// ApplyReadUser applies the result of a readUser call to s.
func ApplyReadUser(s *Session, user models.User, err error) Outcome {
	if err == nil {
		if user.Profile.IsEmpty() {
			s.User = nil
			_ = s.Apply(EventProfileEmpty)
			return Outcome{Path: "/create"}
		}
		s.User = &user
		_ = s.Apply(EventProfileFound)
		if target := s.TakeResumeTarget(); target != "" {
			return Outcome{Path: target}
		}
		return Outcome{Path: "/manage"}
	}

	switch backend.KindOf(err) {
	case backend.KindNotAuthorized:
		s.Notify(NoticeError, MsgSessionExpired)
		s.ClearLocal()
		return Outcome{Path: "/", EndProviderSession: true}
	case backend.KindNotFound:
		if s.User != nil {
			s.Notify(NoticeError, MsgProfileNotFound)
		}
		s.User = nil
		_ = s.Apply(EventProfileMissing)
		return Outcome{Path: "/create"}
	default:
		s.Notify(NoticeError, errorNotice(err))
		_ = s.Apply(EventFailed)
		return Outcome{Path: "/"}
	}
}

func errorNotice(err error) string {
	if v := backend.VariantOf(err); v != "" {
		return "Error: " + v
	}
	return "Error: the Gather service is unavailable"
}

// Publisher delivers resolution outcomes to pages open for a session.
type Publisher interface {
	PublishNavigate(ctx context.Context, sessionID, path string) error
}

// Resolver runs the profile read for each new handle generation once.
type Resolver struct {
	store     *Store
	boot      *Bootstrapper
	publisher Publisher
	timeout   time.Duration

	afterRun func(sessionID string) // test hook
}

func NewResolver(store *Store, boot *Bootstrapper, publisher Publisher, timeout time.Duration) *Resolver {
	return &Resolver{store: store, boot: boot, publisher: publisher, timeout: timeout}
}

// Resolve reads the user through h and applies the result to s in place.
func (r *Resolver) Resolve(ctx context.Context, s *Session, h backend.Handle) Outcome {
	user, err := h.ReadUser(ctx)
	return r.finish(s, ApplyReadUser(s, user, err))
}

func (r *Resolver) finish(s *Session, out Outcome) Outcome {
	if out.EndProviderSession {
		out.Path = r.boot.provider.LogoutURL(r.boot.homeURL(out.Path))
	}
	return out
}

// Start claims the session's current handle generation for resolution and
// runs the read in the background. It reports false when there is nothing
// to resolve (already resolving, resolved, or not authenticated).
func (r *Resolver) Start(ctx context.Context, sessionID string) (bool, error) {
	var h backend.Handle
	_, err := r.store.Update(ctx, sessionID, func(s *Session) error {
		if s.State != StateAuthenticatedNoHandle || s.ResolvingGeneration == s.HandleGeneration {
			return ErrSkip
		}
		handle, err := r.boot.HandleFor(s)
		if err != nil {
			return err
		}
		if err := s.Apply(EventHandleReady); err != nil {
			return err
		}
		s.ResolvingGeneration = s.HandleGeneration
		h = handle
		return nil
	})
	switch {
	case errors.Is(err, ErrSkip):
		return false, nil
	case err != nil:
		return false, err
	}

	go r.run(context.WithoutCancel(ctx), sessionID, h)
	return true, nil
}

func (r *Resolver) run(ctx context.Context, sessionID string, h backend.Handle) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if r.afterRun != nil {
		defer r.afterRun(sessionID)
	}

	user, readErr := h.ReadUser(ctx)

	var out Outcome
	_, err := r.store.Update(ctx, sessionID, func(s *Session) error {
		// The latest handle decides navigation; stale results are dropped.
		if s.HandleGeneration != h.Generation() || s.State != StateResolving {
			return ErrSuperseded
		}
		out = r.finish(s, ApplyReadUser(s, user, readErr))
		s.Next = out.Path
		return nil
	})
	if errors.Is(err, ErrSuperseded) {
		log.Printf("resolver: dropped result for generation %d", h.Generation())
		return
	}
	if err != nil {
		log.Printf("resolver: failed to store outcome: %v", err)
		return
	}
	if r.publisher != nil {
		if err := r.publisher.PublishNavigate(ctx, sessionID, out.Path); err != nil {
			log.Printf("resolver: publish: %v", err)
		}
	}
}
