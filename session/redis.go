package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps token records in Redis under prefix:key. SET replaces
// a value atomically, so no extra scripting is needed.
type RedisStorage struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStorage returns a RedisStorage. A ttl of zero keeps records until
// they are deleted.
func NewRedisStorage(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStorage {
	if prefix == "" {
		prefix = "authflow"
	}
	return &RedisStorage{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *RedisStorage) key(key string) string {
	return r.prefix + ":" + key
}

// Get returns the stored record.
func (r *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if r == nil || r.redis == nil {
		return nil, ErrStorageUnavailable
	}
	data, err := r.redis.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return data, nil
}

// Set stores value with the configured ttl.
func (r *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	if r == nil || r.redis == nil {
		return ErrStorageUnavailable
	}
	if err := r.redis.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Delete removes the record.
func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	if r == nil || r.redis == nil {
		return ErrStorageUnavailable
	}
	if err := r.redis.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}
