package errors

import (
	"errors"
	"fmt"
)

// Common error types shared by the client, the stores and the dev backend
var (
	// Session errors
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrMissingToken = errors.New("session has no access token")

	// Tenant errors
	ErrInvalidTenantType = errors.New("invalid tenant type")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Upload errors
	ErrUploadInProgress = errors.New("upload already in progress")
	ErrEmptyImage       = errors.New("image is empty")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
