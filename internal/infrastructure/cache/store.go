// Package cache keeps short-lived request keys used to recognise a bulk
// submission that arrives twice.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/orderdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// KeyStore remembers claimed keys until their TTL runs out.
type KeyStore interface {
	// Claim records key for ttl. It returns false if key is already held.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release forgets key so it can be claimed again
	Release(ctx context.Context, key string) error
	Close() error
}

var (
	_ KeyStore = (*InMemoryKeyStore)(nil)
	_ KeyStore = (*RedisKeyStore)(nil)
)

// NewKeyStore builds the configured backend. An unreachable Redis falls back
// to memory when cfg.FallbackToMemory is set.
func NewKeyStore(ctx context.Context, cfg config.IdempotencyConfig, logger *zap.Logger) (KeyStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case "", "memory":
		return NewInMemoryKeyStore(), nil
	case "redis":
		store, err := NewRedisKeyStore(ctx, cfg.Redis)
		if err == nil {
			logger.Info("Using Redis idempotency store", zap.String("addr", cfg.Redis.Addr()))
			return store, nil
		}
		if !cfg.FallbackToMemory {
			return nil, err
		}
		logger.Warn("Redis unavailable, using in-memory idempotency store", zap.Error(err))
		return NewInMemoryKeyStore(), nil
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", cfg.Backend)
	}
}
