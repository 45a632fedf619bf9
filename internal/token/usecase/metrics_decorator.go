package usecase

import (
	"context"
	"time"

	"github.com/allisson/usertokens/internal/metrics"
	tokenDomain "github.com/allisson/usertokens/internal/token/domain"
	userDomain "github.com/allisson/usertokens/internal/user/domain"
)

// tokenUseCaseWithMetrics decorates TokenUseCase with metrics instrumentation.
type tokenUseCaseWithMetrics[T tokenDomain.Record] struct {
	next    TokenUseCase[T]
	metrics metrics.BusinessMetrics
	kind    tokenDomain.Kind
}

// NewTokenUseCaseWithMetrics wraps a TokenUseCase with metrics recording. Operations
// are labeled with the token kind, e.g. "forgot_password_validate".
func NewTokenUseCaseWithMetrics[T tokenDomain.Record](
	useCase TokenUseCase[T],
	m metrics.BusinessMetrics,
	kind tokenDomain.Kind,
) TokenUseCase[T] {
	return &tokenUseCaseWithMetrics[T]{
		next:    useCase,
		metrics: m,
		kind:    kind,
	}
}

// GenerateTokenForUser records metrics for token issuance.
func (t *tokenUseCaseWithMetrics[T]) GenerateTokenForUser(
	ctx context.Context,
	user *userDomain.User,
) (T, error) {
	start := time.Now()
	record, err := t.next.GenerateTokenForUser(ctx, user)
	t.record(ctx, "generate", start, err)
	return record, err
}

// ValidateTokenForUser records metrics for token validation.
func (t *tokenUseCaseWithMetrics[T]) ValidateTokenForUser(
	ctx context.Context,
	user *userDomain.User,
	token string,
) error {
	start := time.Now()
	err := t.next.ValidateTokenForUser(ctx, user, token)
	t.record(ctx, "validate", start, err)
	return err
}

// InvalidateToken records metrics for token invalidation.
func (t *tokenUseCaseWithMetrics[T]) InvalidateToken(ctx context.Context, token string) error {
	start := time.Now()
	err := t.next.InvalidateToken(ctx, token)
	t.record(ctx, "invalidate", start, err)
	return err
}

// ConsumeTokenForUser records metrics for token consumption.
func (t *tokenUseCaseWithMetrics[T]) ConsumeTokenForUser(
	ctx context.Context,
	user *userDomain.User,
	token string,
) (T, error) {
	start := time.Now()
	record, err := t.next.ConsumeTokenForUser(ctx, user, token)
	t.record(ctx, "consume", start, err)
	return record, err
}

// RestoreToken records metrics for restoring a consumed token.
func (t *tokenUseCaseWithMetrics[T]) RestoreToken(ctx context.Context, record T) error {
	start := time.Now()
	err := t.next.RestoreToken(ctx, record)
	t.record(ctx, "restore", start, err)
	return err
}

func (t *tokenUseCaseWithMetrics[T]) record(ctx context.Context, op string, start time.Time, err error) {
	status := metrics.Status(err)
	operation := metrics.TokenOperation(string(t.kind), op)
	t.metrics.RecordOperation(ctx, metrics.DomainToken, operation, status)
	t.metrics.RecordDuration(ctx, metrics.DomainToken, operation, time.Since(start), status)
}
