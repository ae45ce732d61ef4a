package server

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-profile-uploader/tenants"
	"github.com/jrsteele09/go-profile-uploader/users"
	"github.com/rs/zerolog/log"
)

const DemoEmailDomain = "example.com"

// DemoEmail is the login of the seeded account for t
func DemoEmail(t tenants.Type) string {
	return fmt.Sprintf("%s@%s", t, DemoEmailDomain)
}

// SeedDemoUsers creates one account per tenant type, all sharing the
// configured demo password. Existing accounts are left alone.
func (s *Server) SeedDemoUsers() error {
	password := s.config.GetDemoPassword()
	if err := users.ValidatePasswordStrength(password); err != nil {
		log.Warn().Err(err).Msg("Bootstrap: weak demo password")
	}

	for _, t := range tenants.All() {
		email := DemoEmail(t)
		if _, err := s.repos.Users.GetByEmail(email); err == nil {
			continue
		}

		hash, err := users.HashPassword(password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", email, err)
		}
		user := &users.User{
			Email:        email,
			PasswordHash: hash,
			FirstName:    "Demo",
			LastName:     t.String(),
			Role:         t,
			DateJoined:   time.Now(),
		}
		if err := s.repos.Users.Upsert(user); err != nil {
			return fmt.Errorf("create %s: %w", email, err)
		}
		log.Info().Str("email", email).Str("role", t.String()).Msg("Bootstrap: demo user created")
	}

	if s.env == "DEV" {
		log.Info().Msgf("Bootstrap: demo accounts use password %q", password)
	}
	return nil
}
