package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the part of the go-redis client used by RedisBackend.
type RedisClient interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// DefaultRedisHash is the hash that holds the preferences when no namespace
// is given.
const DefaultRedisHash = "heartbeat:prefs"

// RedisBackend stores preferences as the fields of one Redis hash. Every
// write is sent immediately, so Flush does nothing.
type RedisBackend struct {
	client RedisClient
	hash   string
}

// NewRedisBackend stores preferences in the given hash. An empty hash uses
// DefaultRedisHash.
func NewRedisBackend(client RedisClient, hash string) *RedisBackend {
	if hash == "" {
		hash = DefaultRedisHash
	}

	return &RedisBackend{client: client, hash: hash}
}

// DialRedis connects to the server at url, such as
// "redis://:password@localhost:6379/0", and checks it answers.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// Get returns the value of key.
func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := b.client.HGet(ctx, b.hash, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("redis hget %s: %w", key, err)
	}

	return v, true, nil
}

// Set stores value under key.
func (b *RedisBackend) Set(ctx context.Context, key, value string) error {
	if err := b.client.HSet(ctx, b.hash, key, value).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}

	return nil
}

// Delete removes key.
func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := b.client.HDel(ctx, b.hash, key).Err(); err != nil {
		return fmt.Errorf("redis hdel %s: %w", key, err)
	}

	return nil
}

// DeleteAll removes the whole hash.
func (b *RedisBackend) DeleteAll(ctx context.Context) error {
	if err := b.client.Del(ctx, b.hash).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", b.hash, err)
	}

	return nil
}

// Flush does nothing.
func (b *RedisBackend) Flush(_ context.Context) error {
	return nil
}
