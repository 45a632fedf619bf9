package usecase

import (
	"context"
	"time"

	apperrors "github.com/allisson/usertokens/internal/errors"
)

// cleanupUseCase implements CleanupUseCase.
type cleanupUseCase struct {
	repo ExpiredTokenRepository
	now  func() time.Time
}

// CleanupExpired removes tokens whose expiration is more than days in the past.
func (c *cleanupUseCase) CleanupExpired(ctx context.Context, days int, dryRun bool) (int64, error) {
	if days < 0 {
		return 0, apperrors.Wrapf(apperrors.ErrInvalidInput, "days must not be negative, got %d", days)
	}

	olderThan := c.now().UTC().AddDate(0, 0, -days)

	if dryRun {
		return c.repo.CountExpired(ctx, olderThan)
	}
	return c.repo.DeleteExpired(ctx, olderThan)
}

// NewCleanupUseCase creates a CleanupUseCase over repo.
func NewCleanupUseCase(repo ExpiredTokenRepository) CleanupUseCase {
	return &cleanupUseCase{repo: repo, now: time.Now}
}
