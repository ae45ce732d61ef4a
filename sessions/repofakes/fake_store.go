package fakesessionstore

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-profile-uploader/sessions"
)

var _ sessions.Store = (*FakeStore)(nil)

// FakeStore is an in-memory sessions.Store that records every write
type FakeStore struct {
	items  map[string]string
	writes []string // keys in write order
	lock   sync.RWMutex

	// GetErr, when set, is returned from every GetItem call
	GetErr error
	// SetErr, when set, is returned from every SetItem call
	SetErr error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		items: make(map[string]string),
	}
}

func (fs *FakeStore) GetItem(_ context.Context, key string) (string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	if fs.GetErr != nil {
		return "", fs.GetErr
	}
	v, ok := fs.items[key]
	if !ok {
		return "", sessions.ErrNotFound
	}
	return v, nil
}

func (fs *FakeStore) SetItem(_ context.Context, key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.SetErr != nil {
		return fs.SetErr
	}
	fs.items[key] = value
	fs.writes = append(fs.writes, key)
	return nil
}

func (fs *FakeStore) RemoveItem(_ context.Context, key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	delete(fs.items, key)
	return nil
}

// Put seeds a value without recording it as a write
func (fs *FakeStore) Put(key, value string) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.items[key] = value
}

// Writes returns the number of SetItem calls made for key
func (fs *FakeStore) Writes(key string) int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	n := 0
	for _, k := range fs.writes {
		if k == key {
			n++
		}
	}
	return n
}
