// Package domain defines the core user domain entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/usertokens/internal/errors"
)

// User represents an account that tokens are issued to.
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Password  string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Is reports whether the user has the given ID.
func (u *User) Is(id uuid.UUID) bool {
	return u != nil && u.ID == id
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same email already exists.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")

	// ErrUserAlreadyEnabled indicates the registration was already confirmed.
	ErrUserAlreadyEnabled = errors.Wrap(errors.ErrConflict, "user already enabled")

	// ErrUserDisabled indicates the account has not confirmed its e-mail yet.
	ErrUserDisabled = errors.Wrap(errors.ErrForbidden, "user is disabled")
)
