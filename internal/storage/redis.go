package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps each table blob in a Redis string under
// "<prefix>:<key>".  Keys never expire.
type RedisBackend struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisBackend wraps an existing client.  An empty prefix
// defaults to "portal".
func NewRedisBackend(rdb *redis.Client, prefix string) *RedisBackend {
	if rdb == nil {
		panic("nil redis client passed to NewRedisBackend")
	}
	if prefix == "" {
		prefix = "portal"
	}
	return &RedisBackend{rdb: rdb, prefix: prefix}
}

func (r *RedisBackend) key(k string) string { return r.prefix + ":" + k }

func (r *RedisBackend) Load(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *RedisBackend) Store(ctx context.Context, key string, data []byte) error {
	return r.rdb.Set(ctx, r.key(key), data, 0).Err()
}

func (r *RedisBackend) Remove(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.key(key)).Err()
}

func (r *RedisBackend) Close() error { return r.rdb.Close() }
