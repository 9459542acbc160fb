package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/gather-web/internal/backend"
	"github.com/AnshRaj112/gather-web/internal/identity"
	"github.com/AnshRaj112/gather-web/internal/models"
	"github.com/AnshRaj112/gather-web/pkg/utils"
)

type fakeProvider struct {
	identity    identity.Identity
	exchangeErr error
	gotCode     string
	gotVerifier string
}

func (p *fakeProvider) AuthCodeURL(state, verifier string) string {
	return "https://idp.example.com/authorize?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, code, verifier string) (identity.Identity, error) {
	p.gotCode = code
	p.gotVerifier = verifier
	return p.identity, p.exchangeErr
}

func (p *fakeProvider) LogoutURL(returnTo string) string {
	return "https://idp.example.com/logout?returnTo=" + returnTo
}

// fakeHandle answers readUser from fields; release, when set, blocks
// ReadUser until closed.
type fakeHandle struct {
	generation uint64
	user       models.User
	err        error
	release    chan struct{}

	mu    sync.Mutex
	reads int
}

func (h *fakeHandle) ReadUser(ctx context.Context) (models.User, error) {
	h.mu.Lock()
	h.reads++
	h.mu.Unlock()
	if h.release != nil {
		select {
		case <-h.release:
		case <-ctx.Done():
			return models.User{}, ctx.Err()
		}
	}
	return h.user, h.err
}
func (h *fakeHandle) CreateUser(context.Context, models.Profile) error { return nil }
func (h *fakeHandle) Update(context.Context, models.Profile) error     { return nil }
func (h *fakeHandle) Read(ctx context.Context) (models.User, error)    { return h.ReadUser(ctx) }
func (h *fakeHandle) Delete(context.Context) (json.RawMessage, error)  { return nil, nil }
func (h *fakeHandle) GetGathering(context.Context, uint64) ([]models.Gathering, error) {
	return nil, nil
}
func (h *fakeHandle) Rsvp(context.Context, models.Rsvp, uint64) error { return nil }
func (h *fakeHandle) Generation() uint64                             { return h.generation }

func (h *fakeHandle) readCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reads
}

// fakeFactory hands out one shared fakeHandle template per call.
type fakeFactory struct {
	template *fakeHandle
	mu       sync.Mutex
	tokens   []string
	built    []*fakeHandle
}

func (f *fakeFactory) New(accessToken string, generation uint64) backend.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, accessToken)
	h := &fakeHandle{generation: generation}
	if f.template != nil {
		h.user = f.template.user
		h.err = f.template.err
		h.release = f.template.release
	}
	f.built = append(f.built, h)
	return h
}

type recordingPublisher struct {
	events chan string
}

func (p *recordingPublisher) PublishNavigate(_ context.Context, sessionID, path string) error {
	p.events <- sessionID + " " + path
	return nil
}

func validIdentity() identity.Identity {
	return identity.Identity{Principal: "principal-1", AccessToken: "delegation", Expiry: time.Now().Add(time.Hour)}
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sealer, err := utils.NewEphemeralSealer()
	if err != nil {
		t.Fatalf("NewEphemeralSealer() error = %v", err)
	}
	return NewStore(rdb, sealer), mr
}

// authenticatedSession returns a session that just completed login.
func authenticatedSession(t *testing.T, boot *Bootstrapper) *Session {
	t.Helper()
	s := New("sess-1")
	if _, err := boot.Login(s); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if _, err := boot.Callback(context.Background(), s, s.OAuthState, "code"); err != nil {
		t.Fatalf("Callback() error = %v", err)
	}
	return s
}

func filledUser() models.User {
	return models.User{ID: "u1", Principal: "principal-1", Profile: models.Profile{Name: "Ada", Email: "ada@example.com"}}
}
