// Package redis implements token persistence on Redis. Keys expire natively, so
// expired tokens never need a cleanup pass.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/allisson/usertokens/internal/errors"
	tokenDomain "github.com/allisson/usertokens/internal/token/domain"
)

const defaultPrefix = "usertokens:"

// minTTL is used for records saved with an expiration already in the past.
const minTTL = time.Millisecond

// payload is the JSON document stored under each token key.
type payload struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// RedisTokenRepository stores tokens of a single kind under
// <prefix><kind>:<sha256(token)>.
type RedisTokenRepository[T tokenDomain.Record] struct {
	client    redis.UniversalClient
	prefix    string
	kind      tokenDomain.Kind
	newRecord func() T
}

func (r *RedisTokenRepository[T]) key(token string) string {
	return r.prefix + string(r.kind) + ":" + tokenDomain.HashValue(token)
}

// Save writes the record with SET NX so an existing token is never overwritten.
func (r *RedisTokenRepository[T]) Save(ctx context.Context, record T) (T, error) {
	var zero T

	base := record.Base()
	if base.ID == uuid.Nil {
		base.ID = uuid.Must(uuid.NewV7())
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = time.Now().UTC()
	}
	base.Kind = r.kind

	data, err := json.Marshal(payload{
		ID:        base.ID,
		UserID:    base.UserID,
		ExpiresAt: base.ExpiresAt,
		CreatedAt: base.CreatedAt,
	})
	if err != nil {
		return zero, apperrors.Wrap(err, "failed to marshal token")
	}

	var ttl time.Duration
	if base.ExpiresAt != nil {
		ttl = max(time.Until(*base.ExpiresAt), minTTL)
	}

	ok, err := r.client.SetNX(ctx, r.key(base.Value), data, ttl).Result()
	if err != nil {
		return zero, apperrors.Wrap(err, "failed to save token")
	}
	if !ok {
		return zero, apperrors.Wrap(apperrors.ErrConflict, "token already exists")
	}

	return record, nil
}

// Delete removes the key for the record's token value. DEL is atomic, so only one
// caller sees the key go away; the others get ErrTokenNotFound.
func (r *RedisTokenRepository[T]) Delete(ctx context.Context, record T) error {
	deleted, err := r.client.Del(ctx, r.key(record.Base().Value)).Result()
	if err != nil {
		return apperrors.Wrap(err, "failed to delete token")
	}
	if deleted == 0 {
		return tokenDomain.ErrTokenNotFound
	}
	return nil
}

// FindByToken loads the record stored for a token value.
func (r *RedisTokenRepository[T]) FindByToken(ctx context.Context, token string) (T, error) {
	var zero T

	data, err := r.client.Get(ctx, r.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, tokenDomain.ErrTokenNotFound
		}
		return zero, apperrors.Wrap(err, "failed to find token")
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return zero, apperrors.Wrap(err, "failed to unmarshal token")
	}

	record := r.newRecord()
	base := record.Base()
	base.ID = p.ID
	base.Kind = r.kind
	base.Value = token
	base.UserID = p.UserID
	base.ExpiresAt = p.ExpiresAt
	base.CreatedAt = p.CreatedAt

	return record, nil
}

// NewRedisTokenRepository creates a repository for the kind produced by newRecord.
// An empty prefix defaults to "usertokens:".
func NewRedisTokenRepository[T tokenDomain.Record](
	client redis.UniversalClient,
	prefix string,
	newRecord func() T,
) *RedisTokenRepository[T] {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisTokenRepository[T]{
		client:    client,
		prefix:    prefix,
		kind:      newRecord().Base().Kind,
		newRecord: newRecord,
	}
}
