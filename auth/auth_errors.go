package auth

import "errors"

var (
	InvalidCredentialsErr = errors.New("invalid email or password")
	UnknownRoleErr        = errors.New("login returned an unknown role")
	LoginFailedErr        = errors.New("login failed")
)
