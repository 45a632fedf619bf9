// Package usecase implements the user token lifecycle: issuing a token for a user,
// checking a presented token against a user, and invalidating a token by value.
package usecase

import (
	"context"
	"time"

	tokenDomain "github.com/allisson/usertokens/internal/token/domain"
	tokenService "github.com/allisson/usertokens/internal/token/service"
	userDomain "github.com/allisson/usertokens/internal/user/domain"
)

// Generator is the random source used to mint token values.
type Generator = tokenService.Generator

// Store persists token records of one kind. It is the seam for specialized
// persistence behavior: wrap a Store to change how records are saved, looked up,
// or deleted without touching the lifecycle orchestration.
type Store[T tokenDomain.Record] interface {
	// Save persists the record and returns the stored version, which may carry
	// store-assigned fields such as ID and CreatedAt.
	Save(ctx context.Context, record T) (T, error)

	// Delete removes a previously saved record. Returns ErrTokenNotFound when the
	// record was already gone, so concurrent deletes have exactly one winner.
	Delete(ctx context.Context, record T) error

	// FindByToken returns the record for a token value, or ErrTokenNotFound.
	FindByToken(ctx context.Context, token string) (T, error)
}

// ExpiredTokenRepository removes expired records of every kind.
type ExpiredTokenRepository interface {
	// CountExpired returns how many records expired before olderThan.
	CountExpired(ctx context.Context, olderThan time.Time) (int64, error)

	// DeleteExpired deletes records that expired before olderThan and returns the count.
	DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

// TokenUseCase orchestrates the lifecycle of one token kind.
type TokenUseCase[T tokenDomain.Record] interface {
	// GenerateTokenForUser creates a record through the kind factory, assigns a fresh
	// random value and the user, and returns whatever the store saved.
	GenerateTokenForUser(ctx context.Context, user *userDomain.User) (T, error)

	// ValidateTokenForUser succeeds when the token resolves to a record owned by user.
	// Returns ErrTokenUnknown or ErrTokenOwnerMismatch (both ErrInvalidToken) otherwise.
	ValidateTokenForUser(ctx context.Context, user *userDomain.User, token string) error

	// InvalidateToken deletes the record for a token value. Unknown tokens are a no-op.
	InvalidateToken(ctx context.Context, token string) error

	// ConsumeTokenForUser validates the token for user and deletes it. Only one of
	// several concurrent consumers of the same token succeeds; the others get
	// ErrTokenUnknown. Returns the deleted record.
	ConsumeTokenForUser(ctx context.Context, user *userDomain.User, token string) (T, error)

	// RestoreToken saves a consumed record back with its original expiration. A record
	// that is still stored is left as is.
	RestoreToken(ctx context.Context, record T) error
}

// Invalidator is the kind-agnostic slice of TokenUseCase used by operator tooling.
type Invalidator interface {
	InvalidateToken(ctx context.Context, token string) error
}

// CleanupUseCase removes expired tokens left behind by stores without native expiry.
type CleanupUseCase interface {
	// CleanupExpired deletes tokens that expired more than days ago. With dryRun it
	// only counts them.
	CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error)
}
