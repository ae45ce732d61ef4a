package auth

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/go-profile-uploader/users"
)

// Validator centralises the checks shared by the login client and the dev backend
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateBearerToken only requires a credential to be present. Issuers may
// hand out opaque tokens, so no format is assumed.
func (v *Validator) ValidateBearerToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("access token is required")
	}
	return nil
}

// ValidateAccessToken validates access token format and presence for tokens this backend issues
func (v *Validator) ValidateAccessToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("access token is required")
	}

	// Basic format check - should be a JWT (3 parts separated by dots)
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return fmt.Errorf("invalid token format: must be a valid JWT")
	}

	for i, part := range parts {
		if len(part) == 0 {
			return fmt.Errorf("invalid token format: part %d is empty", i+1)
		}
	}

	return nil
}

// ValidateUserCredentials validates login credentials
func (v *Validator) ValidateUserCredentials(email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}

	// Basic email format validation
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return fmt.Errorf("invalid email format")
	}

	if password == "" {
		return fmt.Errorf("password is required")
	}

	return nil
}

// ValidateUserState validates user account state before a login is accepted
func (v *Validator) ValidateUserState(user *users.User) error {
	if user == nil {
		return fmt.Errorf("user not found")
	}

	if user.Blocked {
		return fmt.Errorf("user account is blocked")
	}

	if !user.Role.Valid() {
		return fmt.Errorf("user account has no role")
	}

	return nil
}
