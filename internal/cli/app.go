package cli

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-profile-uploader/internal/config"
	"github.com/jrsteele09/go-profile-uploader/sessions"
	"github.com/jrsteele09/go-profile-uploader/sessions/filestore"
	"github.com/jrsteele09/go-profile-uploader/sessions/redisstore"
	"github.com/rs/zerolog/log"
)

// app holds what every command needs once the root command has run
type app struct {
	cfg       config.Config
	sessions  *sessions.Repo
	closeFn   func() error
	openStore func(ctx context.Context, cfg config.EnvConfig) (sessions.Store, func() error, error)
}

func (a *app) open(ctx context.Context) error {
	store, closeFn, err := a.openStore(ctx, a.cfg)
	if err != nil {
		return err
	}
	a.sessions = sessions.NewRepo(store)
	a.closeFn = closeFn
	return nil
}

func (a *app) close() error {
	if a.closeFn == nil {
		return nil
	}
	err := a.closeFn()
	a.closeFn = nil
	return err
}

// openStore selects the session backend named by SESSION_BACKEND
func openStore(ctx context.Context, cfg config.EnvConfig) (sessions.Store, func() error, error) {
	switch backend := cfg.GetSessionBackend(); backend {
	case config.SessionBackendFile:
		log.Debug().Str("path", cfg.GetSessionFile()).Msg("Using file session store")
		return filestore.New(cfg.GetSessionFile()), nil, nil
	case config.SessionBackendRedis:
		store, client, err := redisstore.Dial(ctx, cfg.GetRedisAddr(), cfg.GetRedisPassword(), cfg.GetRedisDB())
		if err != nil {
			return nil, nil, err
		}
		return store, client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q, expected %q or %q", backend, config.SessionBackendFile, config.SessionBackendRedis)
	}
}
