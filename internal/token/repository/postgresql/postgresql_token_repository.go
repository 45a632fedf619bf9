// Package postgresql implements token persistence for PostgreSQL.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/usertokens/internal/database"
	apperrors "github.com/allisson/usertokens/internal/errors"
	tokenDomain "github.com/allisson/usertokens/internal/token/domain"
)

// PostgreSQLTokenRepository stores tokens of a single kind in the user_tokens table.
// Only the SHA-256 hash of the token value is persisted. Uses transaction support via
// database.GetTx().
type PostgreSQLTokenRepository[T tokenDomain.Record] struct {
	db        *sql.DB
	kind      tokenDomain.Kind
	newRecord func() T
}

// Save inserts the record and returns it with ID and CreatedAt filled in.
func (p *PostgreSQLTokenRepository[T]) Save(ctx context.Context, record T) (T, error) {
	var zero T
	querier := database.GetTx(ctx, p.db)

	base := record.Base()
	if base.ID == uuid.Nil {
		base.ID = uuid.Must(uuid.NewV7())
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = time.Now().UTC()
	}
	base.Kind = p.kind

	query := `INSERT INTO user_tokens (id, kind, token_hash, user_id, expires_at, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(
		ctx,
		query,
		base.ID,
		string(base.Kind),
		tokenDomain.HashValue(base.Value),
		base.UserID,
		base.ExpiresAt,
		base.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return zero, apperrors.Wrap(apperrors.ErrConflict, "token already exists")
		}
		return zero, apperrors.Wrap(err, "failed to save token")
	}

	return record, nil
}

// Delete removes the record by ID. Returns ErrTokenNotFound when no row was deleted,
// which is how a concurrent consumer of the same token loses.
func (p *PostgreSQLTokenRepository[T]) Delete(ctx context.Context, record T) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM user_tokens WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, record.Base().ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete token")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get affected rows")
	}
	if rows == 0 {
		return tokenDomain.ErrTokenNotFound
	}
	return nil
}

// FindByToken looks up the record for a token value of this repository's kind.
func (p *PostgreSQLTokenRepository[T]) FindByToken(ctx context.Context, token string) (T, error) {
	var zero T
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, user_id, expires_at, created_at
			  FROM user_tokens WHERE token_hash = $1 AND kind = $2`

	record := p.newRecord()
	base := record.Base()

	err := querier.QueryRowContext(ctx, query, tokenDomain.HashValue(token), string(p.kind)).Scan(
		&base.ID,
		&base.UserID,
		&base.ExpiresAt,
		&base.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, tokenDomain.ErrTokenNotFound
		}
		return zero, apperrors.Wrap(err, "failed to find token")
	}

	base.Kind = p.kind
	base.Value = token
	return record, nil
}

// NewPostgreSQLTokenRepository creates a repository for the kind produced by newRecord.
func NewPostgreSQLTokenRepository[T tokenDomain.Record](
	db *sql.DB,
	newRecord func() T,
) *PostgreSQLTokenRepository[T] {
	return &PostgreSQLTokenRepository[T]{
		db:        db,
		kind:      newRecord().Base().Kind,
		newRecord: newRecord,
	}
}

// PostgreSQLExpiredTokenRepository removes expired tokens of every kind.
type PostgreSQLExpiredTokenRepository struct {
	db *sql.DB
}

// CountExpired returns the number of tokens that expired before olderThan.
func (p *PostgreSQLExpiredTokenRepository) CountExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT COUNT(*) FROM user_tokens WHERE expires_at IS NOT NULL AND expires_at < $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, olderThan).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired tokens")
	}
	return count, nil
}

// DeleteExpired deletes tokens that expired before olderThan.
func (p *PostgreSQLExpiredTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM user_tokens WHERE expires_at IS NOT NULL AND expires_at < $1`

	result, err := querier.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to delete expired tokens")
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get affected rows")
	}
	return count, nil
}

// NewPostgreSQLExpiredTokenRepository creates a new PostgreSQLExpiredTokenRepository.
func NewPostgreSQLExpiredTokenRepository(db *sql.DB) *PostgreSQLExpiredTokenRepository {
	return &PostgreSQLExpiredTokenRepository{db: db}
}
