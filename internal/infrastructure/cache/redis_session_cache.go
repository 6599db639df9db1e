package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stockwave/harmony/internal/domain/variation"
)

const (
	// DefaultSessionKeyPrefix prefixes cached session keys
	DefaultSessionKeyPrefix = "harmony:session:"
	// DefaultSessionTTL is used when no TTL is configured
	DefaultSessionTTL = 30 * time.Minute
)

// RedisSessionCache decorates a SessionRepository with a Redis read-through
// cache. Writes go to the underlying repository first and then refresh the
// cached copy; deletes invalidate it. Redis failures are logged and never
// fail the operation, the underlying repository stays authoritative.
type RedisSessionCache struct {
	next      variation.SessionRepository
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// RedisSessionCacheOption configures a RedisSessionCache
type RedisSessionCacheOption func(*RedisSessionCache)

// WithKeyPrefix overrides the cache key prefix
func WithKeyPrefix(prefix string) RedisSessionCacheOption {
	return func(c *RedisSessionCache) {
		if prefix != "" {
			c.keyPrefix = prefix
		}
	}
}

// WithTTL sets how long cached sessions live
func WithTTL(ttl time.Duration) RedisSessionCacheOption {
	return func(c *RedisSessionCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets the logger for cache failures
func WithCacheLogger(logger *zap.Logger) RedisSessionCacheOption {
	return func(c *RedisSessionCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRedisSessionCache wraps next with a cache backed by client
func NewRedisSessionCache(next variation.SessionRepository, client redis.UniversalClient, opts ...RedisSessionCacheOption) *RedisSessionCache {
	c := &RedisSessionCache{
		next:      next,
		client:    client,
		keyPrefix: DefaultSessionKeyPrefix,
		ttl:       DefaultSessionTTL,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisSessionCache) key(productID int64) string {
	return c.keyPrefix + strconv.FormatInt(productID, 10)
}

// FindByProductID serves from Redis when possible and fills the cache on a miss
func (c *RedisSessionCache) FindByProductID(ctx context.Context, productID int64) (*variation.Session, error) {
	key := c.key(productID)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		s, decErr := decodeSession(raw)
		if decErr == nil {
			return s, nil
		}
		c.logger.Warn("discarding undecodable cached session",
			zap.Int64("product_id", productID), zap.Error(decErr))
		c.invalidate(ctx, productID)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("session cache read failed",
			zap.Int64("product_id", productID), zap.Error(err))
	}

	s, err := c.next.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, s)
	return s, nil
}

// Save writes through to the underlying repository and refreshes the cache
func (c *RedisSessionCache) Save(ctx context.Context, session *variation.Session) error {
	if err := c.next.Save(ctx, session); err != nil {
		c.invalidate(ctx, session.ProductID)
		return err
	}
	c.store(ctx, session)
	return nil
}

// DeleteByProductID deletes from the underlying repository and the cache
func (c *RedisSessionCache) DeleteByProductID(ctx context.Context, productID int64) error {
	c.invalidate(ctx, productID)
	return c.next.DeleteByProductID(ctx, productID)
}

// DeleteIdleBefore purges idle sessions from the underlying repository and
// drops their cache entries. Repositories that cannot purge report nothing.
func (c *RedisSessionCache) DeleteIdleBefore(ctx context.Context, cutoff time.Time) ([]int64, error) {
	purger, ok := c.next.(variation.IdleSessionPurger)
	if !ok {
		return nil, nil
	}
	removed, err := purger.DeleteIdleBefore(ctx, cutoff)
	for _, productID := range removed {
		c.invalidate(ctx, productID)
	}
	return removed, err
}

func (c *RedisSessionCache) store(ctx context.Context, s *variation.Session) {
	raw, err := encodeSession(s)
	if err != nil {
		c.logger.Warn("session not cached", zap.Int64("product_id", s.ProductID), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(s.ProductID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("session cache write failed",
			zap.Int64("product_id", s.ProductID), zap.Error(err))
	}
}

func (c *RedisSessionCache) invalidate(ctx context.Context, productID int64) {
	if err := c.client.Del(ctx, c.key(productID)).Err(); err != nil {
		c.logger.Warn("session cache invalidation failed",
			zap.Int64("product_id", productID), zap.Error(err))
	}
}

// Ping checks the Redis connection
func (c *RedisSessionCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Ensure RedisSessionCache implements the session store interfaces
var (
	_ variation.SessionRepository = (*RedisSessionCache)(nil)
	_ variation.IdleSessionPurger = (*RedisSessionCache)(nil)
)
