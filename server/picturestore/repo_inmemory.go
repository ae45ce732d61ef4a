package picturestore

import (
	"fmt"
	"sync"

	apperrors "github.com/jrsteele09/go-profile-uploader/internal/errors"
)

// InMemoryPictureRepo is an in-memory implementation of Repo
type InMemoryPictureRepo struct {
	mu       sync.RWMutex
	pictures map[string]Picture // name -> picture
}

var _ Repo = (*InMemoryPictureRepo)(nil)

func NewInMemoryPictureRepo() *InMemoryPictureRepo {
	return &InMemoryPictureRepo{
		pictures: make(map[string]Picture),
	}
}

// Upsert creates or replaces a picture
func (r *InMemoryPictureRepo) Upsert(picture Picture) error {
	if picture.Name == "" {
		return fmt.Errorf("picture name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Copy the bytes so callers can reuse their buffer
	picture.Data = append([]byte(nil), picture.Data...)
	r.pictures[picture.Name] = picture
	return nil
}

func (r *InMemoryPictureRepo) Get(name string) (Picture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	picture, ok := r.pictures[name]
	if !ok {
		return Picture{}, apperrors.ErrNotFound
	}
	return picture, nil
}

// Delete removes a picture, deleting a missing one is not an error
func (r *InMemoryPictureRepo) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pictures, name)
	return nil
}
