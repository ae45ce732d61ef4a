// Package filestore persists session key-value pairs as a single JSON
// object on disk, the desktop equivalent of the phone's async storage.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-profile-uploader/sessions"
)

var _ sessions.Store = (*Store)(nil)

type Store struct {
	path string
	lock sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) GetItem(_ context.Context, key string) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	items, err := s.read()
	if err != nil {
		return "", err
	}
	v, ok := items[key]
	if !ok {
		return "", sessions.ErrNotFound
	}
	return v, nil
}

func (s *Store) SetItem(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	items, err := s.read()
	if err != nil {
		return err
	}
	items[key] = value
	return s.write(items)
}

func (s *Store) RemoveItem(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	items, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return s.write(items)
}

func (s *Store) read() (map[string]string, error) {
	items := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return items, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return items, nil
}

// write replaces the file atomically via rename so a crash never leaves half a session
func (s *Store) write(items map[string]string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
