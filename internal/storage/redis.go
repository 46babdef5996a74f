package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "auth:session:"

	fieldRefreshToken = "refresh_token"
	fieldCreatedAt    = "created_at"
)

// RedisStorage keeps one hash per user holding the refresh token and the
// creation time of the session record.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStorage(client redis.UniversalClient, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	return &RedisStorage{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisStorage) key(userID string) string {
	return r.prefix + userID
}

func (r *RedisStorage) SetRefreshToken(ctx context.Context, userID, token string) error {
	const op = "storage.SetRefreshToken"

	if userID == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyUserID)
	}

	key := r.key(userID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, key, fieldCreatedAt, time.Now().UTC().Format(time.RFC3339Nano))
		pipe.HSet(ctx, key, fieldRefreshToken, token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisStorage) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	const op = "storage.GetRefreshToken"

	if userID == "" {
		return "", nil
	}

	token, err := r.client.HGet(ctx, r.key(userID), fieldRefreshToken).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}
