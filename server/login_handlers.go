package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-profile-uploader/auth"
	"github.com/jrsteele09/go-profile-uploader/users"
	"github.com/rs/zerolog/log"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler exchanges email and password for an access token, a refresh
// token and the user's profile
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeFailure(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := s.validator.ValidateUserCredentials(req.Email, req.Password); err != nil {
			writeFailure(w, http.StatusBadRequest, err.Error())
			return
		}

		// Don't reveal if the user exists or not
		user, err := s.repos.Users.GetByEmail(strings.TrimSpace(req.Email))
		if err != nil || !users.CheckPasswordHash(req.Password, user.PasswordHash) {
			writeFailure(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		if err := s.validator.ValidateUserState(user); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID).Msg("Login refused")
			writeFailure(w, http.StatusForbidden, err.Error())
			return
		}

		accessToken, err := s.tokens.CreateAccessToken(user)
		if err != nil {
			log.Err(err).Str("user_id", user.ID).Msg("CreateAccessToken")
			writeFailure(w, http.StatusInternalServerError, "Login failed")
			return
		}
		refreshToken, err := s.tokens.CreateRefreshToken(user.ID)
		if err != nil {
			log.Err(err).Str("user_id", user.ID).Msg("CreateRefreshToken")
			writeFailure(w, http.StatusInternalServerError, "Login failed")
			return
		}

		profile, err := json.Marshal(user.Profile())
		if err != nil {
			writeFailure(w, http.StatusInternalServerError, "Login failed")
			return
		}

		log.Info().Str("user_id", user.ID).Str("role", user.Role.String()).Msg("User logged in")
		writeSuccess(w, auth.LoginData{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			Role:         user.Role,
			Profile:      profile,
		}, "")
	}
}

// LogoutHandler revokes the bearer token the request was made with and the
// user's refresh token
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawToken, _ := r.Context().Value(ContextKeyAccessToken).(string)
		if err := s.tokens.RevokeAccessToken(rawToken); err != nil {
			writeFailure(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		if claims, ok := claimsFromContext(r.Context()); ok {
			if err := s.tokens.InvalidateRefreshToken(claims.Subject); err != nil {
				log.Err(err).Str("user_id", claims.Subject).Msg("InvalidateRefreshToken")
			}
			log.Info().Str("user_id", claims.Subject).Msg("User logged out")
		}
		writeSuccess(w, nil, "Logged out")
	}
}
