package identity

import "errors"

// Input errors.
var (
	ErrMissingField    = errors.New("missing required field")
	ErrValidation      = errors.New("validation failed")
	ErrRoleNotAllowed  = errors.New("role not allowed for self-registration")
	ErrPasswordTooLong = errors.New("password too long")
)

// Account errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Token errors.
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("malformed token")
)
