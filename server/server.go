package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/go-profile-uploader/auth"
	"github.com/jrsteele09/go-profile-uploader/internal/config"
	"github.com/jrsteele09/go-profile-uploader/server/picturestore"
	"github.com/jrsteele09/go-profile-uploader/token"
	"github.com/jrsteele09/go-profile-uploader/users"
	"github.com/rs/zerolog/log"
)

// Repos is the storage the dev backend runs on
type Repos struct {
	Users         users.UserRepo
	RefreshTokens token.RefreshTokenRepo
	Pictures      picturestore.Repo
}

// Server is a development marketplace backend: login plus the three
// profile picture endpoints the upload client talks to.
type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	router    chi.Router
	routes    []string
	config    config.Config
	repos     Repos
	tokens    *token.Manager
	validator *auth.Validator
	limiter   *ipRateLimiter
}

func New(cfg config.Config, repos Repos) (*Server, error) {
	signer := token.NewHMACSigner(cfg.GetJWTSecret())
	tokens := token.New(repos.RefreshTokens, signer,
		token.WithIssuer(cfg.GetIssuer()),
		token.WithAccessTokenExpiry(cfg.GetAccessTokenExpiry()),
		token.WithRefreshTokenLength(cfg.GetRefreshTokenLength()),
	)

	s := &Server{
		env:       cfg.GetEnv(),
		router:    chi.NewRouter(),
		config:    cfg,
		repos:     repos,
		tokens:    tokens,
		validator: auth.NewValidator(),
		limiter:   newIPRateLimiter(cfg.GetRateLimitRPS(), cfg.GetRateLimitBurst()),
	}

	if err := s.SeedDemoUsers(); err != nil {
		return nil, fmt.Errorf("[Server New] failed to seed demo users: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RegisterRoute adds handler for "METHOD /path" patterns
func (s *Server) RegisterRoute(pattern string, handler http.HandlerFunc) {
	method, path, ok := strings.Cut(pattern, " ")
	if !ok {
		panic("route pattern must be \"METHOD /path\": " + pattern)
	}
	s.routes = append(s.routes, pattern)
	s.router.Method(method, path, handler)
}

// CleanupRevokedTokens drops revoked tokens that have expired anyway
func (s *Server) CleanupRevokedTokens() {
	s.tokens.CleanupRevokedTokens()
}

// CleanupIdleClients forgets rate limit state for clients idle longer than idle
func (s *Server) CleanupIdleClients(idle time.Duration) {
	if dropped := s.limiter.Sweep(idle); dropped > 0 {
		log.Debug().Int("dropped", dropped).Msg("Swept idle rate limit entries")
	}
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, _ := strings.Cut(route, " ")
		logRoute(method, path)
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Info().Msgf("[%s] %s", color+paddedMethod+ResetColor, path)
}
