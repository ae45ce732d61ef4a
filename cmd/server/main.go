package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-profile-uploader/internal/config"
	"github.com/jrsteele09/go-profile-uploader/internal/logging"
	"github.com/jrsteele09/go-profile-uploader/server"
	"github.com/jrsteele09/go-profile-uploader/server/picturestore"
	tokenfakerepo "github.com/jrsteele09/go-profile-uploader/token/repofake"
	fakeuserrepo "github.com/jrsteele09/go-profile-uploader/users/repofake"
	"github.com/rs/zerolog/log"
)

const (
	cleanupInterval   = 10 * time.Minute
	rateLimitIdleTime = 30 * time.Minute
)

func main() {
	// Load .env file if present (ignore errors)
	_ = godotenv.Load()

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	displayAppname(c.GetAppName())

	handler, err := server.New(c, server.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		RefreshTokens: tokenfakerepo.NewFakeTokensRepo(),
		Pictures:      picturestore.NewInMemoryPictureRepo(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go cleanup(ctx, handler)

	srv := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- listenAndServe(srv)
	}()

	select {
	case <-ctx.Done():
		return shutdown(srv)
	case err := <-serverErr:
		return err
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func cleanup(ctx context.Context, s *server.Server) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupRevokedTokens()
			s.CleanupIdleClients(rateLimitIdleTime)
		}
	}
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
