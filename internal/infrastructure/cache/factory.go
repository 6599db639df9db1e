package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stockwave/harmony/internal/domain/variation"
	"github.com/stockwave/harmony/internal/infrastructure/config"
)

// NewRedisClient opens a Redis client and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// SessionStoreFactory assembles the session repository from configuration:
// the primary store (database or memory) optionally fronted by Redis.
type SessionStoreFactory struct {
	sessionCfg config.SessionConfig
	redisCfg   config.RedisConfig
	logger     *zap.Logger
	dial       func(config.RedisConfig) (*redis.Client, error)
}

// SessionStoreFactoryOption is a functional option for configuring the factory
type SessionStoreFactoryOption func(*SessionStoreFactory)

// WithLogger sets the logger for the factory and the cache it builds
func WithLogger(logger *zap.Logger) SessionStoreFactoryOption {
	return func(f *SessionStoreFactory) {
		f.logger = logger
	}
}

// WithRedisDialer replaces the function used to connect to Redis
func WithRedisDialer(dial func(config.RedisConfig) (*redis.Client, error)) SessionStoreFactoryOption {
	return func(f *SessionStoreFactory) {
		f.dial = dial
	}
}

// NewSessionStoreFactory creates a new factory
func NewSessionStoreFactory(sessionCfg config.SessionConfig, redisCfg config.RedisConfig, opts ...SessionStoreFactoryOption) *SessionStoreFactory {
	f := &SessionStoreFactory{
		sessionCfg: sessionCfg,
		redisCfg:   redisCfg,
		logger:     zap.NewNop(),
		dial:       NewRedisClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the session repository. database is used when the session
// store is "database"; otherwise an in-memory repository is created. When
// Redis is enabled but unreachable the cache is skipped with a warning.
// The returned close function releases the Redis client, if any.
func (f *SessionStoreFactory) Create(database variation.SessionRepository) (variation.SessionRepository, func() error, error) {
	var primary variation.SessionRepository
	switch f.sessionCfg.Store {
	case config.SessionStoreMemory:
		f.logger.Warn("using in-memory session store; sessions are lost on restart")
		primary = NewInMemorySessionRepository()
	default:
		if database == nil {
			return nil, nil, fmt.Errorf("session store %q requires a database repository", f.sessionCfg.Store)
		}
		primary = database
	}

	noop := func() error { return nil }
	if !f.redisCfg.Enabled {
		return primary, noop, nil
	}

	client, err := f.dial(f.redisCfg)
	if err != nil {
		f.logger.Warn("Redis unavailable, serving sessions without cache", zap.Error(err))
		return primary, noop, nil
	}

	f.logger.Info("using Redis session cache",
		zap.String("addr", f.redisCfg.Addr()),
		zap.Duration("ttl", f.sessionCfg.CacheTTL),
	)
	cached := NewRedisSessionCache(primary, client,
		WithTTL(f.sessionCfg.CacheTTL),
		WithCacheLogger(f.logger),
	)
	return cached, client.Close, nil
}
