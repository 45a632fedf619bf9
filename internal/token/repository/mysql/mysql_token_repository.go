// Package mysql implements token persistence for MySQL.
package mysql

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

// MySQLTokenRepository stores tokens of a single kind in the user_tokens table.
// Uses BINARY(16) for UUIDs with transaction support via database.GetTx().
type MySQLTokenRepository[T tokenDomain.Record] struct {
	db        *sql.DB
	kind      tokenDomain.Kind
	newRecord func() T
}

// Save inserts the record and returns it with ID and CreatedAt filled in.
func (m *MySQLTokenRepository[T]) Save(ctx context.Context, record T) (T, error) {
	var zero T
	querier := database.GetTx(ctx, m.db)

	base := record.Base()
	if base.ID == uuid.Nil {
		base.ID = uuid.Must(uuid.NewV7())
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = time.Now().UTC()
	}
	base.Kind = m.kind

	id, err := base.ID.MarshalBinary()
	if err != nil {
		return zero, apperrors.Wrap(err, "failed to marshal token id")
	}

	userID, err := base.UserID.MarshalBinary()
	if err != nil {
		return zero, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `INSERT INTO user_tokens (id, kind, token_hash, user_id, expires_at, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		string(base.Kind),
		tokenDomain.HashValue(base.Value),
		userID,
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
func (m *MySQLTokenRepository[T]) Delete(ctx context.Context, record T) error {
	querier := database.GetTx(ctx, m.db)

	id, err := record.Base().ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal token id")
	}

	query := `DELETE FROM user_tokens WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, id)
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
func (m *MySQLTokenRepository[T]) FindByToken(ctx context.Context, token string) (T, error) {
	var zero T
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, user_id, expires_at, created_at
			  FROM user_tokens WHERE token_hash = ? AND kind = ?`

	record := m.newRecord()
	base := record.Base()

	var idBytes []byte
	var userIDBytes []byte

	err := querier.QueryRowContext(ctx, query, tokenDomain.HashValue(token), string(m.kind)).Scan(
		&idBytes,
		&userIDBytes,
		&base.ExpiresAt,
		&base.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, tokenDomain.ErrTokenNotFound
		}
		return zero, apperrors.Wrap(err, "failed to find token")
	}

	if err := base.ID.UnmarshalBinary(idBytes); err != nil {
		return zero, apperrors.Wrap(err, "failed to unmarshal token id")
	}

	if err := base.UserID.UnmarshalBinary(userIDBytes); err != nil {
		return zero, apperrors.Wrap(err, "failed to unmarshal user id")
	}

	base.Kind = m.kind
	base.Value = token
	return record, nil
}

// NewMySQLTokenRepository creates a repository for the kind produced by newRecord.
func NewMySQLTokenRepository[T tokenDomain.Record](db *sql.DB, newRecord func() T) *MySQLTokenRepository[T] {
	return &MySQLTokenRepository[T]{
		db:        db,
		kind:      newRecord().Base().Kind,
		newRecord: newRecord,
	}
}

// MySQLExpiredTokenRepository removes expired tokens of every kind.
type MySQLExpiredTokenRepository struct {
	db *sql.DB
}

// CountExpired returns the number of tokens that expired before olderThan.
func (m *MySQLExpiredTokenRepository) CountExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT COUNT(*) FROM user_tokens WHERE expires_at IS NOT NULL AND expires_at < ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, olderThan).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count expired tokens")
	}
	return count, nil
}

// DeleteExpired deletes tokens that expired before olderThan.
func (m *MySQLExpiredTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `DELETE FROM user_tokens WHERE expires_at IS NOT NULL AND expires_at < ?`

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

// NewMySQLExpiredTokenRepository creates a new MySQLExpiredTokenRepository.
func NewMySQLExpiredTokenRepository(db *sql.DB) *MySQLExpiredTokenRepository {
	return &MySQLExpiredTokenRepository{db: db}
}
