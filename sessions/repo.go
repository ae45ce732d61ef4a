package sessions

import (
	"context"
	"encoding/json"
	"errors"

	apperrors "github.com/jrsteele09/go-profile-uploader/internal/errors"
	"github.com/jrsteele09/go-profile-uploader/tenants"
)

// StorageKey is the key the serialized session lives under
const StorageKey = "user"

// ErrNotFound is returned by a Store when the key has never been set
var ErrNotFound = apperrors.ErrNotFound

// Store is a string key-value store, the shape of the device's persisted storage.
type Store interface {
	// GetItem returns the value stored at key, or ErrNotFound
	GetItem(ctx context.Context, key string) (string, error)

	// SetItem overwrites the value stored at key
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key, it is not an error if the key is absent
	RemoveItem(ctx context.Context, key string) error
}

// Repo reads and writes the single Session record held in a Store.
// Reads and writes are not locked against each other: the last writer wins.
type Repo struct {
	store Store
}

func NewRepo(store Store) *Repo {
	return &Repo{store: store}
}

// Load returns the persisted session. A missing or unparseable record means
// the device is not logged in.
func (r *Repo) Load(ctx context.Context) (*Session, error) {
	raw, err := r.store.GetItem(ctx, StorageKey)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.ErrNotLoggedIn
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "[sessions.Load] store read")
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrNotLoggedIn, "[sessions.Load] %v", err)
	}
	return &s, nil
}

// LoadAuthenticated is Load plus the requirement that a token is present
func (r *Repo) LoadAuthenticated(ctx context.Context) (*Session, error) {
	s, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s.AccessToken == "" {
		return nil, apperrors.ErrMissingToken
	}
	return s, nil
}

// Save overwrites the persisted session
func (r *Repo) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return apperrors.Wrapf(err, "[sessions.Save] marshal")
	}
	if err := r.store.SetItem(ctx, StorageKey, string(data)); err != nil {
		return apperrors.Wrapf(err, "[sessions.Save] store write")
	}
	return nil
}

// MergeProfile replaces one tenant field of s with snapshot and persists the result.
// s is updated in place so callers observe the merged value immediately.
func (r *Repo) MergeProfile(ctx context.Context, s *Session, t tenants.Type, snapshot json.RawMessage) error {
	if err := s.SetProfile(t, snapshot); err != nil {
		return err
	}
	return r.Save(ctx, s)
}

// Clear removes the session, logging the device out
func (r *Repo) Clear(ctx context.Context) error {
	if err := r.store.RemoveItem(ctx, StorageKey); err != nil {
		return apperrors.Wrapf(err, "[sessions.Clear] store remove")
	}
	return nil
}
