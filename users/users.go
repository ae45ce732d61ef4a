package users

import (
	"fmt"
	"time"
	"unicode"

	"github.com/jrsteele09/go-profile-uploader/tenants"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID           string       `json:"id,omitempty"`
	Email        string       `json:"email,omitempty"`
	PasswordHash string       `json:"-"` // never serialize
	FirstName    string       `json:"firstName,omitempty"`
	LastName     string       `json:"lastName,omitempty"`
	Role         tenants.Type `json:"role,omitempty"`
	ProfilePic   string       `json:"profilePic"` // URL of the current picture, "" when none
	DateJoined   time.Time    `json:"dateJoined,omitempty"`
	Blocked      bool         `json:"blocked,omitempty"`
}

// Profile is the snapshot returned to clients after login and picture changes
type Profile struct {
	ID         string       `json:"_id"`
	Email      string       `json:"email"`
	FirstName  string       `json:"firstName"`
	LastName   string       `json:"lastName"`
	Role       tenants.Type `json:"role"`
	ProfilePic *string      `json:"profilePic"`
}

func (u *User) Profile() Profile {
	p := Profile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
	if u.ProfilePic != "" {
		pic := u.ProfilePic
		p.ProfilePic = &pic
	}
	return p
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
