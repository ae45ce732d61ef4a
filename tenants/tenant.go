package tenants

import (
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/go-profile-uploader/internal/errors"
)

// Type is the user category performing an operation. It selects both the
// remote endpoint and the session field that caches the profile.
type Type string

const (
	Admin    Type = "admin"
	Provider Type = "provider"
	Customer Type = "customer"
)

// Route describes where a tenant's profile picture lives remotely and
// where its profile snapshot is cached in the session.
type Route struct {
	Path         string // path appended to the API base URL
	SessionField string // JSON key of the cached profile in the session
}

var routes = map[Type]Route{
	Admin:    {Path: "/admin/profile-pic", SessionField: "adminData"},
	Provider: {Path: "/users/provider/profile-pic", SessionField: "providerData"},
	Customer: {Path: "/users/profile-pic", SessionField: "userData"},
}

// All returns the known tenant types in a stable order
func All() []Type {
	return []Type{Admin, Provider, Customer}
}

// Parse converts user input into a Type
func Parse(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%q: %w", s, apperrors.ErrInvalidTenantType)
	}
	return t, nil
}

func (t Type) Valid() bool {
	_, ok := routes[t]
	return ok
}

func (t Type) String() string {
	return string(t)
}

// Lookup resolves the fixed route for a tenant type
func Lookup(t Type) (Route, error) {
	r, ok := routes[t]
	if !ok {
		return Route{}, fmt.Errorf("%q: %w", string(t), apperrors.ErrInvalidTenantType)
	}
	return r, nil
}
