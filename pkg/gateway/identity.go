package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"SodiumWatch/pkg/database"
	"SodiumWatch/pkg/engine"
)

// Identity is the user a request acts for. DeviceID is empty for session
// callers.
type Identity struct {
	UserID   string
	DeviceID string
	Location *time.Location
}

// Credentials are the raw identity hints carried by a request.
type Credentials struct {
	Authorization string
	DeviceToken   string
	SessionUserID string
}

// IdentityResolver maps credentials to users. Unknown tokens and users
// resolve to nil without an error.
type IdentityResolver interface {
	ResolveDevice(ctx context.Context, token uuid.UUID) (*Identity, error)
	ResolveUser(ctx context.Context, userID string) (*Identity, error)
}

// StoreIdentity resolves identities from the device and user tables.
type StoreIdentity struct {
	store    *database.Store
	clock    engine.Clock
	fallback *time.Location
}

// NewStoreIdentity uses fallback for users without a time zone.
func NewStoreIdentity(store *database.Store, clock engine.Clock, fallback *time.Location) *StoreIdentity {
	return &StoreIdentity{store: store, clock: clock, fallback: fallback}
}

// ResolveDevice stamps the device's last_seen on success.
func (r *StoreIdentity) ResolveDevice(ctx context.Context, token uuid.UUID) (*Identity, error) {
	dev, err := r.store.WithContext(ctx).Device().Resolve(token, r.clock.Now())
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Identity{
		UserID:   dev.UserID,
		DeviceID: dev.ID,
		Location: dev.User.Location(r.fallback),
	}, nil
}

func (r *StoreIdentity) ResolveUser(ctx context.Context, userID string) (*Identity, error) {
	user, err := r.store.WithContext(ctx).User().GetByID(userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: user.ID, Location: user.Location(r.fallback)}, nil
}
