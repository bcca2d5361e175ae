// Package cache is the best-effort key-value layer in front of Redis.
//
// Store failures never surface to callers as errors: a failed read is a miss,
// a failed write reports false and a failed scan returns no keys. Failures are
// logged and counted so that a degraded store stays visible.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"iq-bot/internal/common/logger"
	"iq-bot/internal/common/metrics"
)

// Store is the key-value contract the writer and the reader depend on.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool
	Delete(ctx context.Context, key string) bool
	Scan(ctx context.Context, pattern string) []string
}

const scanCount = 100

// RedisStore implements Store over any go-redis command client.
type RedisStore struct {
	client redis.Cmdable
	logger logger.Logger
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client redis.Cmdable, log logger.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "cache"}),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheRequests.WithLabelValues("miss").Inc()
			return nil, false
		}
		s.fail("get", key, err)
		return nil, false
	}
	metrics.CacheRequests.WithLabelValues("hit").Inc()
	return val, true
}

// Set stores value under key. A non-positive ttl uses DefaultTTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.fail("set", key, err)
		return false
	}
	return true
}

// Delete removes key. Deleting an absent key succeeds.
func (s *RedisStore) Delete(ctx context.Context, key string) bool {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.fail("delete", key, err)
		return false
	}
	return true
}

// Scan returns the distinct keys matching pattern. A failure part-way through
// drops the partial result.
func (s *RedisStore) Scan(ctx context.Context, pattern string) []string {
	var (
		cursor uint64
		keys   []string
		seen   = make(map[string]struct{})
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			s.fail("scan", pattern, err)
			return nil
		}
		for _, key := range batch {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		if next == 0 {
			return keys
		}
		cursor = next
	}
}

func (s *RedisStore) fail(operation, key string, err error) {
	metrics.CacheErrors.WithLabelValues(operation).Inc()
	s.logger.Error("cache operation failed", map[string]interface{}{
		"operation": operation,
		"key":       key,
		"error":     err.Error(),
	})
}
