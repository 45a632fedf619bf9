package usecase

import (
	"context"
	"errors"
	"reflect"

	apperrors "github.com/allisson/usertokens/internal/errors"
	tokenDomain "github.com/allisson/usertokens/internal/token/domain"
	userDomain "github.com/allisson/usertokens/internal/user/domain"
)

// tokenUseCase implements TokenUseCase for a single record kind.
type tokenUseCase[T tokenDomain.Record] struct {
	newRecord func() T
	generator Generator
	store     Store[T]
}

// GenerateTokenForUser issues a new token for user. Generator and store failures are
// returned unchanged; no uniqueness check is made here.
func (t *tokenUseCase[T]) GenerateTokenForUser(ctx context.Context, user *userDomain.User) (T, error) {
	var zero T
	if user == nil {
		return zero, tokenDomain.ErrUserRequired
	}

	record := t.newRecord()
	if isNilRecord(record) {
		return zero, apperrors.Wrapf(tokenDomain.ErrNilRecord, "failed to create %T", zero)
	}

	value, err := t.generator.GenerateRandomToken()
	if err != nil {
		return zero, err
	}
	if value == "" {
		return zero, tokenDomain.ErrEmptyToken
	}

	base := record.Base()
	base.Value = value
	base.UserID = user.ID

	return t.store.Save(ctx, record)
}

// ValidateTokenForUser checks that token exists and belongs to user. Ownership is
// decided by user ID, not by object identity.
func (t *tokenUseCase[T]) ValidateTokenForUser(
	ctx context.Context,
	user *userDomain.User,
	token string,
) error {
	_, err := t.findForUser(ctx, user, token)
	return err
}

// InvalidateToken deletes the record matching token. A token that does not resolve
// is treated as already invalidated and returns nil.
func (t *tokenUseCase[T]) InvalidateToken(ctx context.Context, token string) error {
	record, err := t.store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, tokenDomain.ErrTokenNotFound) {
			return nil
		}
		return err
	}

	if err := t.store.Delete(ctx, record); err != nil && !errors.Is(err, tokenDomain.ErrTokenNotFound) {
		return err
	}
	return nil
}

// ConsumeTokenForUser validates token for user, then deletes it. The store's delete
// decides the winner when the same token is consumed twice.
func (t *tokenUseCase[T]) ConsumeTokenForUser(
	ctx context.Context,
	user *userDomain.User,
	token string,
) (T, error) {
	var zero T

	record, err := t.findForUser(ctx, user, token)
	if err != nil {
		return zero, err
	}

	if err := t.store.Delete(ctx, record); err != nil {
		if errors.Is(err, tokenDomain.ErrTokenNotFound) {
			return zero, tokenDomain.ErrTokenUnknown
		}
		return zero, err
	}
	return record, nil
}

// RestoreToken saves a consumed record back. A conflict means the record is still
// stored, which happens when the delete was rolled back with its transaction.
func (t *tokenUseCase[T]) RestoreToken(ctx context.Context, record T) error {
	if isNilRecord(record) {
		return tokenDomain.ErrNilRecord
	}

	if _, err := t.store.Save(ctx, record); err != nil && !errors.Is(err, apperrors.ErrConflict) {
		return err
	}
	return nil
}

func (t *tokenUseCase[T]) findForUser(ctx context.Context, user *userDomain.User, token string) (T, error) {
	var zero T
	if user == nil {
		return zero, tokenDomain.ErrUserRequired
	}

	record, err := t.store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, tokenDomain.ErrTokenNotFound) {
			return zero, tokenDomain.ErrTokenUnknown
		}
		return zero, err
	}

	if !user.Is(record.Base().UserID) {
		return zero, tokenDomain.ErrTokenOwnerMismatch
	}

	return record, nil
}

// isNilRecord reports whether record is nil or a typed nil pointer.
func isNilRecord[T tokenDomain.Record](record T) bool {
	v := reflect.ValueOf(record)
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// NewTokenUseCase creates a TokenUseCase. newRecord builds an empty record of the
// token kind; store may be a decorated Store (see NewExpiringStore).
func NewTokenUseCase[T tokenDomain.Record](
	newRecord func() T,
	generator Generator,
	store Store[T],
) TokenUseCase[T] {
	return &tokenUseCase[T]{
		newRecord: newRecord,
		generator: generator,
		store:     store,
	}
}
