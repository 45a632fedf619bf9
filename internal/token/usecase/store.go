package usecase

import (
	"context"
	"time"

	tokenDomain "github.com/allisson/usertokens/internal/token/domain"
)

// StoreFuncs adapts plain functions to a Store. Nil functions panic when called.
type StoreFuncs[T tokenDomain.Record] struct {
	SaveFunc        func(ctx context.Context, record T) (T, error)
	DeleteFunc      func(ctx context.Context, record T) error
	FindByTokenFunc func(ctx context.Context, token string) (T, error)
}

// Save calls SaveFunc.
func (s StoreFuncs[T]) Save(ctx context.Context, record T) (T, error) {
	return s.SaveFunc(ctx, record)
}

// Delete calls DeleteFunc.
func (s StoreFuncs[T]) Delete(ctx context.Context, record T) error {
	return s.DeleteFunc(ctx, record)
}

// FindByToken calls FindByTokenFunc.
func (s StoreFuncs[T]) FindByToken(ctx context.Context, token string) (T, error) {
	return s.FindByTokenFunc(ctx, token)
}

// expiringStore stamps an expiration on save and hides expired records on lookup.
type expiringStore[T tokenDomain.Record] struct {
	next Store[T]
	ttl  time.Duration
	now  func() time.Time
}

// NewExpiringStore wraps next so saved records expire ttl after the save. Records that
// already carry an expiration keep it. Lookups of expired records return
// ErrTokenNotFound; the rows stay until cleanup removes them.
func NewExpiringStore[T tokenDomain.Record](next Store[T], ttl time.Duration, now func() time.Time) Store[T] {
	if now == nil {
		now = time.Now
	}
	return &expiringStore[T]{next: next, ttl: ttl, now: now}
}

func (s *expiringStore[T]) Save(ctx context.Context, record T) (T, error) {
	base := record.Base()
	if base.ExpiresAt == nil {
		expiresAt := s.now().UTC().Add(s.ttl)
		base.ExpiresAt = &expiresAt
	}
	return s.next.Save(ctx, record)
}

func (s *expiringStore[T]) Delete(ctx context.Context, record T) error {
	return s.next.Delete(ctx, record)
}

func (s *expiringStore[T]) FindByToken(ctx context.Context, token string) (T, error) {
	record, err := s.next.FindByToken(ctx, token)
	if err != nil {
		return record, err
	}
	if record.Base().IsExpired(s.now()) {
		var zero T
		return zero, tokenDomain.ErrTokenNotFound
	}
	return record, nil
}
