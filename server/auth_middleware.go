package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-profile-uploader/internal/errors"
	"github.com/jrsteele09/go-profile-uploader/tenants"
	"github.com/jrsteele09/go-profile-uploader/token"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified access token claims
	ContextKeyClaims ContextKey = "claims"
	// ContextKeyAccessToken stores the raw bearer token
	ContextKeyAccessToken ContextKey = "access_token"
	// ContextKeyRequestID stores the request correlation ID
	ContextKeyRequestID ContextKey = "request_id"
)

// RequireAuth is middleware that validates a Bearer access token
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeFailure(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
				writeFailure(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			if err := s.validator.ValidateAccessToken(parts[1]); err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Malformed bearer token")
				writeFailure(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			claims, err := s.tokens.Validate(parts[1])
			if err != nil {
				message := "Invalid token"
				if errors.Is(err, apperrors.ErrTokenExpired) {
					message = "Token expired"
				}
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected bearer token")
				writeFailure(w, http.StatusUnauthorized, message)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			ctx = context.WithValue(ctx, ContextKeyAccessToken, parts[1])
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireRole must be chained after RequireAuth
func (s *Server) RequireRole(t tenants.Type) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := claimsFromContext(r.Context())
			if !ok {
				writeFailure(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			if claims.Role != t {
				writeFailure(w, http.StatusForbidden, "Forbidden for role "+claims.Role.String())
				return
			}
			next(w, r)
		}
	}
}

func claimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.Claims)
	return claims, ok
}
