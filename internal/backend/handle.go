package backend

import (
	"context"
	"encoding/json"

	"github.com/AnshRaj112/gather-web/internal/models"
)

// Handle issues remote calls on behalf of one authenticated identity.
type Handle interface {
	ReadUser(ctx context.Context) (models.User, error)
	CreateUser(ctx context.Context, profile models.Profile) error
	Update(ctx context.Context, profile models.Profile) error
	Read(ctx context.Context) (models.User, error)
	// Delete returns the backend's opaque answer; callers do not branch on it.
	Delete(ctx context.Context) (json.RawMessage, error)
	GetGathering(ctx context.Context, id uint64) ([]models.Gathering, error)
	Rsvp(ctx context.Context, rsvp models.Rsvp, gatheringID uint64) error
	// Generation identifies the authentication flip the handle was built for.
	Generation() uint64
}

// HandleFactory builds handles bound to an identity.
type HandleFactory interface {
	New(accessToken string, generation uint64) Handle
}
