package cache

import (
	"context"

	"github.com/memberhub/backend/internal/domain/shared"
	"github.com/memberhub/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles the cache-backed components built at startup
type Stores struct {
	Redis       *redis.Client // nil when Redis is disabled or unreachable
	Idempotency shared.IdempotencyStore
}

// Close releases the idempotency store and the Redis client
func (s *Stores) Close() error {
	_ = s.Idempotency.Close()
	if s.Redis != nil {
		return s.Redis.Close()
	}
	return nil
}

// NewStores connects to Redis when enabled and builds the stores on top of it.
// An unreachable Redis falls back to in-memory stores with a warning.
func NewStores(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Stores {
	if !cfg.Enabled {
		logger.Info("Redis disabled, using in-memory idempotency store")
		return &Stores{Idempotency: NewInMemoryIdempotencyStore()}
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
			"Handlers may run twice across instances.",
			zap.Error(err),
		)
		return &Stores{Idempotency: NewInMemoryIdempotencyStore()}
	}

	logger.Info("Using Redis idempotency store", zap.String("addr", cfg.Addr()))
	return &Stores{
		Redis:       client,
		Idempotency: NewRedisIdempotencyStore(client, ""),
	}
}
