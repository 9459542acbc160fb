// Package session holds the per-browser bootstrap state: authentication,
// the backend handle generation, the cached user and pending navigation.
package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/AnshRaj112/gather-web/internal/identity"
	"github.com/AnshRaj112/gather-web/internal/models"
)

// NoticeKind classifies a transient notice.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeInfo    NoticeKind = "info"
	NoticeError   NoticeKind = "error"
)

// Notice is a one-shot message shown on the next rendered page.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Session is loaded per request and passed down to handlers explicitly.
type Session struct {
	ID    string
	State State
	// Version counts stored writes; Commit uses it to detect lost updates.
	Version uint64

	// Authentication. Authenticated implies a non-nil identity.
	Authenticated bool
	identity      *identity.Identity

	// HandleGeneration increases every time authentication flips to true.
	// ResolvingGeneration is the generation whose profile read was started.
	HandleGeneration    uint64
	ResolvingGeneration uint64

	User *models.User

	LandingPath        string
	PendingGatheringID uint64

	OAuthState    string
	OAuthVerifier string

	// Next is the destination decided by the last background resolution.
	Next string

	Notices []Notice

	// changes made since load, replayed by Store.Commit over a newer copy.
	changes changeLog
}

// New returns an unauthenticated session.
func New(id string) *Session {
	return &Session{ID: id, State: StateUnauthenticated}
}

// Apply moves the session through the state machine.
func (s *Session) Apply(e Event) error {
	next, err := Transition(s.State, e)
	if err != nil {
		return err
	}
	s.State = next
	switch e {
	case EventLoginStarted, EventLoginFailed, EventAuthenticated, EventReauthenticate, EventExpired, EventLoggedOut:
		s.changes.auth = true
	}
	return nil
}

// Identity returns the authenticated identity, if any.
func (s *Session) Identity() (identity.Identity, bool) {
	if !s.Authenticated || s.identity == nil {
		return identity.Identity{}, false
	}
	return *s.identity, true
}

// IsAuthenticated reports an authenticated session whose identity has not expired.
func (s *Session) IsAuthenticated(now time.Time) bool {
	id, ok := s.Identity()
	return ok && id.Valid(now)
}

// authenticate stores id and starts a new handle generation.
func (s *Session) authenticate(id identity.Identity) {
	s.changes.auth = true
	s.identity = &id
	s.Authenticated = true
	s.HandleGeneration++
	s.OAuthState = ""
	s.OAuthVerifier = ""
}

// ClearLocal drops authentication, handle and cached user in one step.
// Pending navigation survives so a later login can resume it.
func (s *Session) ClearLocal() {
	s.changes.auth = true
	s.Authenticated = false
	s.identity = nil
	s.User = nil
	s.ResolvingGeneration = 0
	s.OAuthState = ""
	s.OAuthVerifier = ""
	s.Next = ""
	s.State, _ = Transition(s.State, EventLoggedOut)
}

// TakeDestination is where /loading sends the browser once bootstrap has
// settled, or "" while it is still in progress.
func (s *Session) TakeDestination() string {
	if next := s.Next; next != "" {
		s.Next = ""
		return next
	}
	switch s.State {
	case StateReady:
		if target := s.TakeResumeTarget(); target != "" {
			return target
		}
		return "/manage"
	case StateNeedsProfile:
		return "/create"
	case StateAuthenticatedNoHandle, StateResolving:
		return ""
	default:
		return "/"
	}
}

// Notify queues a notice for the next page.
func (s *Session) Notify(kind NoticeKind, message string) {
	n := Notice{Kind: kind, Message: message}
	s.Notices = append(s.Notices, n)
	s.changes.added = append(s.changes.added, n)
}

// TakeNotices returns and clears queued notices.
func (s *Session) TakeNotices() []Notice {
	n := s.Notices
	s.Notices = nil
	s.changes.taken = s.changes.loadedNotices
	s.changes.added = nil
	return n
}

// Remember records where the visitor was headed before logging in.
func (s *Session) Remember(path string, gatheringID uint64) {
	s.changes.remembered = true
	s.LandingPath = path
	if gatheringID != 0 {
		s.PendingGatheringID = gatheringID
	}
}

// CacheUser stores the profile read back from the backend.
func (s *Session) CacheUser(user models.User) {
	s.User = &user
	s.changes.userSet = true
}

// TakeResumeTarget returns the remembered destination, clearing it.
// A pending gathering wins over the landing path; screens that only make
// sense during bootstrap are never resumed. Empty means no target.
func (s *Session) TakeResumeTarget() string {
	defer func() {
		s.PendingGatheringID = 0
		s.LandingPath = ""
	}()
	if s.PendingGatheringID != 0 {
		return GatheringPath(s.PendingGatheringID)
	}
	switch path := s.LandingPath; {
	case path == "", path == "/", path == "/loading", path == "/create":
		return ""
	case strings.HasPrefix(path, "/manage"), strings.HasPrefix(path, "/gathering/"):
		return path
	default:
		return ""
	}
}

// GatheringPath is the RSVP screen for id.
func GatheringPath(id uint64) string {
	return "/gathering/" + strconv.FormatUint(id, 10)
}

// changeLog tracks what a request did to its copy of the session.
type changeLog struct {
	// auth is set by login, logout and expiry transitions; the request's
	// copy then replaces the stored one wholesale.
	auth       bool
	userSet    bool
	remembered bool

	loadedNotices int
	loadedState   State
	taken         int
	added         []Notice
}

// settle marks the current contents as the loaded baseline.
func (s *Session) settle() {
	s.changes = changeLog{loadedNotices: len(s.Notices), loadedState: s.State}
}

// replayOnto carries the request's changes in s over fresh, a copy
// written by someone else after s was loaded.
func (s *Session) replayOnto(fresh *Session) {
	c := s.changes
	notices := fresh.Notices
	if c.taken > 0 {
		notices = notices[min(c.taken, len(notices)):]
	}
	notices = append(append([]Notice(nil), notices...), c.added...)

	if c.auth {
		version := fresh.Version
		*fresh = *s
		fresh.Version = version
		fresh.Notices = notices
		return
	}

	fresh.Notices = notices
	if c.userSet && fresh.Authenticated && fresh.HandleGeneration == s.HandleGeneration {
		fresh.User = s.User
		if fresh.State == c.loadedState {
			fresh.State = s.State
		}
	}
	if c.remembered || c.userSet {
		fresh.LandingPath = s.LandingPath
		fresh.PendingGatheringID = s.PendingGatheringID
	}
}
