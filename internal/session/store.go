package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/gather-web/internal/identity"
	"github.com/AnshRaj112/gather-web/internal/models"
	"github.com/AnshRaj112/gather-web/pkg/utils"
)

const (
	// Duration is 7 days
	Duration = 7 * 24 * time.Hour
	// KeyPrefix is the Redis key prefix for sessions
	KeyPrefix = "gather_session:"

	maxUpdateAttempts = 5
)

var (
	ErrNotFound = errors.New("session: not found")
	// ErrSkip aborts an Update without writing.
	ErrSkip = errors.New("session: update skipped")
)

// record is the stored form of a Session. The access token is sealed.
type record struct {
	Version             uint64       `json:"version"`
	State               State        `json:"state"`
	Authenticated       bool         `json:"authenticated"`
	Principal           string       `json:"principal,omitempty"`
	SealedToken         string       `json:"sealed_token,omitempty"`
	TokenExpiry         time.Time    `json:"token_expiry,omitempty"`
	HandleGeneration    uint64       `json:"handle_generation"`
	ResolvingGeneration uint64       `json:"resolving_generation"`
	User                *models.User `json:"user,omitempty"`
	LandingPath         string       `json:"landing_path,omitempty"`
	PendingGatheringID  uint64       `json:"pending_gathering_id,omitempty"`
	OAuthState          string       `json:"oauth_state,omitempty"`
	OAuthVerifier       string       `json:"oauth_verifier,omitempty"`
	Next                string       `json:"next,omitempty"`
	Notices             []Notice     `json:"notices,omitempty"`
}

// Store keeps sessions in Redis.
type Store struct {
	rdb    *redis.Client
	sealer *utils.Sealer
}

func NewStore(rdb *redis.Client, sealer *utils.Sealer) *Store {
	return &Store{rdb: rdb, sealer: sealer}
}

// Create starts a new unauthenticated session with a random token.
func (st *Store) Create(ctx context.Context) (*Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, err
	}
	s := New(base64.URLEncoding.EncodeToString(tokenBytes))
	if err := st.Save(ctx, s); err != nil {
		return nil, err
	}
	s.settle()
	return s, nil
}

// Load returns ErrNotFound for unknown or expired tokens.
func (st *Store) Load(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	raw, err := st.rdb.Get(ctx, KeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return st.decode(token, raw)
}

// Save overwrites the session and refreshes its 7-day expiry.
func (st *Store) Save(ctx context.Context, s *Session) error {
	raw, err := st.encode(s)
	if err != nil {
		return err
	}
	return st.rdb.Set(ctx, KeyPrefix+s.ID, raw, Duration).Err()
}

// Update applies fn to the latest stored copy inside an optimistic
// transaction, retrying when another writer got there first. Returning
// ErrSkip from fn leaves the stored copy untouched.
func (st *Store) Update(ctx context.Context, token string, fn func(*Session) error) (*Session, error) {
	key := KeyPrefix + token
	var updated *Session
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		s, err := st.decode(token, raw)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		s.Version++
		out, err := st.encode(s)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, Duration)
			return nil
		})
		if err == nil {
			updated = s
		}
		return err
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := st.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("session: update %s: too much contention", token)
}

// Commit writes s back. When another writer stored the session after s
// was loaded, the request's own changes are replayed over that newer
// copy instead: login, logout and expiry replace it, while notices,
// remembered paths and a freshly read profile are merged in. On success
// s holds the stored result.
func (st *Store) Commit(ctx context.Context, s *Session) error {
	updated, err := st.Update(ctx, s.ID, func(fresh *Session) error {
		if fresh.Version == s.Version {
			*fresh = *s
			return nil
		}
		s.replayOnto(fresh)
		return nil
	})
	if err != nil {
		return err
	}
	*s = *updated
	s.settle()
	return nil
}

// Delete removes a session from Redis.
func (st *Store) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return st.rdb.Del(ctx, KeyPrefix+token).Err()
}

func (st *Store) encode(s *Session) ([]byte, error) {
	rec := record{
		Version:             s.Version,
		State:               s.State,
		Authenticated:       s.Authenticated,
		HandleGeneration:    s.HandleGeneration,
		ResolvingGeneration: s.ResolvingGeneration,
		User:                s.User,
		LandingPath:         s.LandingPath,
		PendingGatheringID:  s.PendingGatheringID,
		OAuthState:          s.OAuthState,
		OAuthVerifier:       s.OAuthVerifier,
		Next:                s.Next,
		Notices:             s.Notices,
	}
	if id, ok := s.Identity(); ok {
		sealed, err := st.sealer.Encrypt(id.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("session: seal token: %w", err)
		}
		rec.Principal = id.Principal
		rec.SealedToken = sealed
		rec.TokenExpiry = id.Expiry
	}
	return json.Marshal(rec)
}

func (st *Store) decode(token string, raw []byte) (*Session, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	s := &Session{
		ID:                  token,
		Version:             rec.Version,
		State:               rec.State,
		HandleGeneration:    rec.HandleGeneration,
		ResolvingGeneration: rec.ResolvingGeneration,
		User:                rec.User,
		LandingPath:         rec.LandingPath,
		PendingGatheringID:  rec.PendingGatheringID,
		OAuthState:          rec.OAuthState,
		OAuthVerifier:       rec.OAuthVerifier,
		Next:                rec.Next,
		Notices:             rec.Notices,
	}
	if s.State == "" {
		s.State = StateUnauthenticated
	}
	if rec.Authenticated {
		accessToken, err := st.sealer.Decrypt(rec.SealedToken)
		if err != nil {
			// Key rotated or restarted with an ephemeral key: the delegation is unusable.
			s.ClearLocal()
			s.settle()
			return s, nil
		}
		s.identity = &identity.Identity{
			Principal:   rec.Principal,
			AccessToken: accessToken,
			Expiry:      rec.TokenExpiry,
		}
		s.Authenticated = true
	}
	s.settle()
	return s, nil
}
