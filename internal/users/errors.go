package users

import "errors"

// Admin operation errors.
var (
	ErrInvalidRole    = errors.New("invalid role")
	ErrSelfRoleChange = errors.New("cannot change own role")
	ErrSelfDelete     = errors.New("cannot delete own account")
)
