package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	tokenDomain "github.com/allisson/usertokens/internal/token/domain"
	tokenUsecase "github.com/allisson/usertokens/internal/token/usecase"
)

// RunInvalidateToken deletes the token of the given kind so it can no longer be presented.
// Unknown tokens succeed silently. The token value is never logged or printed.
func RunInvalidateToken(
	ctx context.Context,
	invalidator tokenUsecase.Invalidator,
	logger *slog.Logger,
	writer io.Writer,
	kind tokenDomain.Kind,
	token string,
	format string,
) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token must not be empty")
	}

	logger.Info("invalidating token", slog.String("kind", string(kind)))

	if err := invalidator.InvalidateToken(ctx, token); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]any{
			"kind":        kind,
			"invalidated": true,
		}); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintf(writer, "Token of kind %s invalidated\n", kind); err != nil {
			return err
		}
	}

	logger.Info("token invalidated", slog.String("kind", string(kind)))
	return nil
}
