// Package cache defines a common interface for cache implementations
// that a prime service can use to avoid recomputing a rank it has
// already answered. The core library never consults a cache; wiring one
// in is strictly a deployment decision of the embedding service.
package cache

import (
	"context"
	"time"

	"github.com/gomodule/redigo/redis"
)

// Cache stores computed primes keyed by rank for subsequent lookup
// requests.
type Cache interface {
	// Return the string that was set for key (or "" if unset) and an
	// error if the implementation failed.
	// NOTE: a cache miss *should not* return an error.
	GetValue(ctx context.Context, key string) (string, error)
	// Store the value string with the provided key, returning an error
	// if the implementation failed.
	SetValue(ctx context.Context, key string, value string) error
}

// NoopCache implements Cache without any real caching.
type NoopCache struct{}

// Always returns an empty string and no error for every key.
func (n *NoopCache) GetValue(_ context.Context, _ string) (string, error) {
	return "", nil
}

// Ignores the value and returns nil error.
func (n *NoopCache) SetValue(_ context.Context, _ string, _ string) error {
	return nil
}

// Creates a no-operation Cache implementation that satisfies the
// interface requirements without performing any real caching. Every
// lookup through a NoopCache is a miss.
func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

// RedisCache implements Cache backed by a Redis store.
type RedisCache struct {
	*redis.Pool
}

type RedisCacheOption func(*RedisCache)

// WithMaxIdle caps the number of idle connections kept in the pool.
func WithMaxIdle(count int) RedisCacheOption {
	return func(r *RedisCache) {
		r.MaxIdle = count
	}
}

// WithIdleTimeout closes pooled connections idle for longer than the
// supplied duration.
func WithIdleTimeout(timeout time.Duration) RedisCacheOption {
	return func(r *RedisCache) {
		r.IdleTimeout = timeout
	}
}

// Return a new Cache implementation using Redis.
func NewRedisCache(_ context.Context, endpoint string, options ...RedisCacheOption) *RedisCache {
	cache := &RedisCache{
		&redis.Pool{
			DialContext: func(ctx context.Context) (redis.Conn, error) {
				return redis.DialContext(ctx, "tcp", endpoint)
			},
		},
	}
	for _, option := range options {
		option(cache)
	}
	return cache
}

// Returns the string value stored in Redis under key, if present, or an
// empty string.
func (r *RedisCache) GetValue(ctx context.Context, key string) (string, error) {
	conn, err := r.GetContext(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	value, err := redis.String(conn.Do("GET", key))
	if err == redis.ErrNil {
		// A cache miss is *NOT* an error to propagate
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Store the string key:value pair in Redis.
func (r *RedisCache) SetValue(ctx context.Context, key string, value string) error {
	conn, err := r.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Do("SET", key, value)
	return err
}
