package domain

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")

	ErrRoleNotFound = errors.New("role not found")
	ErrRoleExists   = errors.New("role already exists")
	ErrRoleInUse    = errors.New("role is assigned to users")
	// ErrInvalidRole is returned when a user references a role that does not exist.
	ErrInvalidRole = errors.New("role does not exist")
	// ErrDefaultRoleMissing means the seed role for new signups is absent.
	ErrDefaultRoleMissing = errors.New("default user role not found")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("access denied")

	ErrInvalidInput = errors.New("invalid input")
)
