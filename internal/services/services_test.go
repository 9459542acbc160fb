package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/gather-web/internal/backend"
	"github.com/AnshRaj112/gather-web/internal/identity"
	"github.com/AnshRaj112/gather-web/internal/models"
	"github.com/AnshRaj112/gather-web/internal/session"
)

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

// fakeHandle records calls; each method answers from its fields.
type fakeHandle struct {
	mu    sync.Mutex
	calls []string

	user       models.User
	readErr    error
	createErr  error
	updateErr  error
	deleteErr  error
	gatherings []models.Gathering
	getErr     error
	rsvpErr    error
}

func (h *fakeHandle) record(c string) {
	h.mu.Lock()
	h.calls = append(h.calls, c)
	h.mu.Unlock()
}

func (h *fakeHandle) count(c string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, v := range h.calls {
		if v == c {
			n++
		}
	}
	return n
}

func (h *fakeHandle) ReadUser(context.Context) (models.User, error) {
	h.record("readUser")
	return h.user, h.readErr
}
func (h *fakeHandle) CreateUser(context.Context, models.Profile) error {
	h.record("createUser")
	return h.createErr
}
func (h *fakeHandle) Update(context.Context, models.Profile) error {
	h.record("update")
	return h.updateErr
}
func (h *fakeHandle) Read(context.Context) (models.User, error) {
	h.record("read")
	return h.user, h.readErr
}
func (h *fakeHandle) Delete(context.Context) (json.RawMessage, error) {
	h.record("delete")
	return nil, h.deleteErr
}
func (h *fakeHandle) GetGathering(context.Context, uint64) ([]models.Gathering, error) {
	h.record("getGathering")
	return h.gatherings, h.getErr
}
func (h *fakeHandle) Rsvp(context.Context, models.Rsvp, uint64) error {
	h.record("rsvp")
	return h.rsvpErr
}
func (h *fakeHandle) Generation() uint64 { return 1 }

type fakeProvider struct{}

func (fakeProvider) AuthCodeURL(state, verifier string) string { return "https://idp.test/?state=" + state }
func (fakeProvider) Exchange(context.Context, string, string) (identity.Identity, error) {
	return identity.Identity{Principal: "p", AccessToken: "tok", Expiry: time.Now().Add(time.Hour)}, nil
}
func (fakeProvider) LogoutURL(returnTo string) string { return returnTo }

type fakeFactory struct{ h backend.Handle }

func (f fakeFactory) New(string, uint64) backend.Handle { return f.h }

func readySession(t *testing.T, boot *session.Bootstrapper) *session.Session {
	t.Helper()
	s := session.New("sess")
	if _, err := boot.Login(s); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if _, err := boot.Callback(context.Background(), s, s.OAuthState, "code"); err != nil {
		t.Fatalf("Callback() error = %v", err)
	}
	s.State = session.StateReady
	s.User = &models.User{ID: "u1", Profile: models.Profile{Name: "Ada"}}
	return s
}

func messages(s *session.Session) []string {
	var out []string
	for _, n := range s.TakeNotices() {
		out = append(out, n.Message)
	}
	return out
}

func TestCacheServiceClampsTTL(t *testing.T) {
	rdb, mr := newRedis(t)
	ctx := context.Background()

	short := NewCacheService(rdb, time.Second)
	if err := short.Set(ctx, "k", map[string]int{"a": 1}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if ttl := mr.TTL(CacheKeyPrefix + "k"); ttl != MinCacheTTL {
		t.Fatalf("TTL = %v, want %v", ttl, MinCacheTTL)
	}

	var got map[string]int
	found, err := short.Get(ctx, "k", &got)
	if err != nil || !found || got["a"] != 1 {
		t.Fatalf("Get() = %v, %v, %v", got, found, err)
	}

	found, err = short.Get(ctx, "missing", &got)
	if err != nil || found {
		t.Fatalf("Get(missing) = %v, %v, want miss", found, err)
	}

	if err := NewCacheService(rdb, 24*time.Hour).Set(ctx, "long", 1); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if ttl := mr.TTL(CacheKeyPrefix + "long"); ttl != MaxCacheTTL {
		t.Fatalf("TTL = %v, want %v", ttl, MaxCacheTTL)
	}
}

func TestGatheringServiceCachesFound(t *testing.T) {
	rdb, _ := newRedis(t)
	ctx := context.Background()
	svc := NewGatheringService(NewCacheService(rdb, time.Minute))
	h := &fakeHandle{gatherings: []models.Gathering{{ID: 3, Info: models.GatheringInfo{Title: "Dinner"}}}}

	for i := 0; i < 2; i++ {
		g, err := svc.Get(ctx, h, 3)
		if err != nil || g == nil || g.Info.Title != "Dinner" {
			t.Fatalf("Get() = %+v, %v", g, err)
		}
	}
	if n := h.count("getGathering"); n != 1 {
		t.Fatalf("getGathering called %d times, want 1", n)
	}

	svc.Forget(ctx, 3)
	if _, err := svc.Get(ctx, h, 3); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if n := h.count("getGathering"); n != 2 {
		t.Fatalf("getGathering called %d times after Forget, want 2", n)
	}
}

func TestGatheringServiceMissingNotCached(t *testing.T) {
	rdb, _ := newRedis(t)
	svc := NewGatheringService(NewCacheService(rdb, time.Minute))
	h := &fakeHandle{}

	for i := 0; i < 2; i++ {
		g, err := svc.Get(context.Background(), h, 9)
		if err != nil || g != nil {
			t.Fatalf("Get() = %+v, %v, want nil, nil", g, err)
		}
	}
	if n := h.count("getGathering"); n != 2 {
		t.Fatalf("getGathering called %d times, want 2", n)
	}
}

func TestRsvpSubmitEmptyGatheringSkipsRsvp(t *testing.T) {
	h := &fakeHandle{}
	boot := session.NewBootstrapper(fakeProvider{}, fakeFactory{h})
	s := readySession(t, boot)

	NewRsvpService(boot, nil).Submit(context.Background(), s, h, models.Rsvp{Attending: true}, 42)
	if h.count("rsvp") != 0 {
		t.Fatal("rsvp called for a missing gathering")
	}
	if got := messages(s); len(got) != 1 || got[0] != "Gathering 42 not found." {
		t.Fatalf("notices = %v", got)
	}
}

func TestRsvpSubmitNotAuthorizedExpiresSession(t *testing.T) {
	h := &fakeHandle{
		gatherings: []models.Gathering{{ID: 42}},
		rsvpErr:    &backend.Error{Kind: backend.KindNotAuthorized, Variant: backend.VariantNotAuthorized},
	}
	boot := session.NewBootstrapper(fakeProvider{}, fakeFactory{h})
	s := readySession(t, boot)

	NewRsvpService(boot, nil).Submit(context.Background(), s, h, models.Rsvp{Attending: true}, 42)
	if s.Authenticated || s.User != nil {
		t.Fatalf("session still authenticated: %+v", s)
	}
	if s.PendingGatheringID != 42 {
		t.Fatalf("PendingGatheringID = %d, want 42", s.PendingGatheringID)
	}
	if got := messages(s); len(got) != 1 || got[0] != MsgRsvpNotAuthorized {
		t.Fatalf("notices = %v", got)
	}
}

func TestRsvpSubmitTransportError(t *testing.T) {
	h := &fakeHandle{gatherings: []models.Gathering{{ID: 1}}, rsvpErr: &backend.Error{Kind: backend.KindTransport, Err: errors.New("dial")}}
	boot := session.NewBootstrapper(fakeProvider{}, fakeFactory{h})
	s := readySession(t, boot)

	NewRsvpService(boot, nil).Submit(context.Background(), s, h, models.Rsvp{}, 1)
	if got := messages(s); len(got) != 1 || got[0] != MsgRsvpFailed {
		t.Fatalf("notices = %v", got)
	}
	if !s.Authenticated {
		t.Fatal("transport failure logged the session out")
	}
}

func TestProfileCreateResumesPendingGathering(t *testing.T) {
	h := &fakeHandle{user: models.User{ID: "u1", Profile: models.Profile{Name: "Ada"}}}
	boot := session.NewBootstrapper(fakeProvider{}, fakeFactory{h})
	s := readySession(t, boot)
	s.State = session.StateNeedsProfile
	s.User = nil
	s.Remember("/gathering/8", 8)

	target := NewProfileService().Create(context.Background(), s, h, models.Profile{Name: "Ada"})
	if target != "/gathering/8" {
		t.Fatalf("Create() = %q, want /gathering/8", target)
	}
	if s.State != session.StateReady || s.User == nil {
		t.Fatalf("session = %+v", s)
	}
}

func TestProfileCreateReadFailureResets(t *testing.T) {
	h := &fakeHandle{readErr: &backend.Error{Kind: backend.KindNotFound, Variant: backend.VariantUserNotFound}}
	boot := session.NewBootstrapper(fakeProvider{}, fakeFactory{h})
	s := readySession(t, boot)
	s.State = session.StateNeedsProfile

	if target := NewProfileService().Create(context.Background(), s, h, models.Profile{Name: "Ada"}); target != "/" {
		t.Fatalf("Create() = %q, want /", target)
	}
	if s.Authenticated || s.State != session.StateUnauthenticated {
		t.Fatalf("session = %+v", s)
	}
	if got := messages(s); len(got) != 1 || got[0] != MsgCreateFailed {
		t.Fatalf("notices = %v", got)
	}
}

func TestProfileUpdateReadFailure(t *testing.T) {
	h := &fakeHandle{readErr: &backend.Error{Kind: backend.KindTransport}}
	boot := session.NewBootstrapper(fakeProvider{}, fakeFactory{h})
	s := readySession(t, boot)

	NewProfileService().Update(context.Background(), s, h, models.Profile{Name: "Ada L"})
	if got := messages(s); len(got) != 1 || got[0] != MsgReadAfterSave {
		t.Fatalf("notices = %v", got)
	}
	if s.User.Profile.Name != "Ada" {
		t.Fatalf("cached user changed to %q", s.User.Profile.Name)
	}
}

func TestProfileDeleteIgnoresResult(t *testing.T) {
	h := &fakeHandle{deleteErr: errors.New("boom")}
	boot := session.NewBootstrapper(fakeProvider{}, fakeFactory{h})
	s := readySession(t, boot)

	if target := NewProfileService().Delete(context.Background(), s, h); target != "/" {
		t.Fatalf("Delete() = %q", target)
	}
	if s.Authenticated || s.User != nil {
		t.Fatalf("session = %+v", s)
	}
	if got := messages(s); len(got) != 1 || got[0] != MsgProfileDeleted {
		t.Fatalf("notices = %v", got)
	}
}

func TestEventHubDeliversAcrossRedis(t *testing.T) {
	rdb, _ := newRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewEventHub(rdb)
	hub.Start(ctx)
	events, unsubscribe := hub.Subscribe("sess-1")
	defer unsubscribe()
	other, unsubscribeOther := hub.Subscribe("sess-2")
	defer unsubscribeOther()

	// The subscriber goroutine may not be listening yet; publish until seen.
	deadline := time.After(2 * time.Second)
	for {
		if err := hub.PublishNavigate(ctx, "sess-1", "/manage"); err != nil {
			t.Fatalf("PublishNavigate() error = %v", err)
		}
		select {
		case ev := <-events:
			if ev.Type != EventTypeNavigate || ev.Path != "/manage" || ev.SessionID != "sess-1" {
				t.Fatalf("event = %+v", ev)
			}
			select {
			case ev := <-other:
				t.Fatalf("event leaked to another session: %+v", ev)
			default:
			}
			return
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("no event delivered")
		}
	}
}

func TestEventHubUnsubscribeClosesChannel(t *testing.T) {
	rdb, _ := newRedis(t)
	hub := NewEventHub(rdb)
	events, unsubscribe := hub.Subscribe("sess")
	unsubscribe()
	unsubscribe()
	if _, ok := <-events; ok {
		t.Fatal("channel still open")
	}
	hub.fanOut(SessionEvent{Type: EventTypeNavigate, SessionID: "sess"})
}
