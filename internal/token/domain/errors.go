package domain

import (
	"github.com/allisson/usertokens/internal/errors"
)

// Token errors.
var (
	// ErrTokenNotFound is returned by stores when no record matches a token value.
	ErrTokenNotFound = errors.Wrap(errors.ErrNotFound, "token not found")

	// ErrInvalidToken is the single error kind callers see when a presented token
	// is rejected. It maps to 401 Unauthorized.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid token")

	// ErrTokenUnknown means the presented value does not resolve to a stored record.
	ErrTokenUnknown = errors.Wrap(ErrInvalidToken, "token not found")

	// ErrTokenOwnerMismatch means the record exists but belongs to another user.
	ErrTokenOwnerMismatch = errors.Wrap(ErrInvalidToken, "token does not belong to user")

	// ErrUserRequired is returned when a token operation receives a nil user.
	ErrUserRequired = errors.Wrap(errors.ErrInvalidInput, "user is required")

	// ErrEmptyToken is returned when the generator yields an empty value.
	ErrEmptyToken = errors.New("token generator returned an empty token")

	// ErrNilRecord is returned when a kind factory builds a nil record.
	ErrNilRecord = errors.New("token factory returned a nil record")
)
