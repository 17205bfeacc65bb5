package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/orderdesk/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "orderdesk:idempotency:"

// RedisKeyStore shares claimed keys between instances.
type RedisKeyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisKeyStore connects to Redis and checks the connection.
func NewRedisKeyStore(ctx context.Context, cfg config.RedisConfig) (*RedisKeyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisKeyStoreWithClient(client), nil
}

// NewRedisKeyStoreWithClient wraps an existing client.
func NewRedisKeyStoreWithClient(client *redis.Client) *RedisKeyStore {
	return &RedisKeyStore{client: client, keyPrefix: redisKeyPrefix}
}

// Claim implements KeyStore with SET NX so concurrent claims race safely.
func (s *RedisKeyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	return ok, nil
}

// Release implements KeyStore.
func (s *RedisKeyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisKeyStore) Close() error {
	return s.client.Close()
}
