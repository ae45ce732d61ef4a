// Package redisstore keeps session key-value pairs in Redis so several
// processes on one device can share the logged in session.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-profile-uploader/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var _ sessions.Store = (*Store)(nil)

const defaultPrefix = "profilepic:"

type Store struct {
	client redis.Cmdable
	prefix string
}

// New wraps an existing client. prefix namespaces the keys, "" uses the default.
func New(client redis.Cmdable, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Dial connects using the given address and verifies the server with a short ping
func Dial(ctx context.Context, addr, password string, db int) (*Store, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	log.Debug().Str("addr", addr).Int("db", db).Msg("Connected to redis session store")
	return New(client, ""), client, nil
}

func (s *Store) GetItem(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", sessions.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) SetItem(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
