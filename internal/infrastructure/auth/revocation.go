package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/orderdesk/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// RevocationList remembers the IDs of logged-out tokens until they would
// have expired anyway.
type RevocationList interface {
	// Revoke marks jti as revoked for ttl
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	// IsRevoked reports whether jti has been revoked
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// NewRevocationList builds the configured revocation backend.
func NewRevocationList(ctx context.Context, cfg config.RevocationConfig) (RevocationList, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewInMemoryRevocationList(), nil
	case "redis":
		return NewRedisRevocationList(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown revocation backend %q", cfg.Backend)
	}
}

// RedisRevocationList keeps revoked token IDs in Redis so every instance
// sees a logout.
type RedisRevocationList struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRevocationList connects to Redis and checks the connection.
func NewRedisRevocationList(ctx context.Context, cfg config.RedisConfig) (*RedisRevocationList, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis for token revocation: %w", err)
	}
	return NewRedisRevocationListWithClient(client), nil
}

// NewRedisRevocationListWithClient wraps an existing Redis client
func NewRedisRevocationListWithClient(client *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{
		client:    client,
		keyPrefix: "orderdesk:revoked:",
	}
}

// Revoke stores jti with ttl
func (l *RedisRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := l.client.Set(ctx, l.keyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked checks for jti
func (l *RedisRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := l.client.Exists(ctx, l.keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// Close closes the Redis client
func (l *RedisRevocationList) Close() error {
	return l.client.Close()
}

// InMemoryRevocationList keeps revoked token IDs in process memory. A
// restart forgets them.
type InMemoryRevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiry
	now     func() time.Time
}

// NewInMemoryRevocationList creates an empty in-memory list
func NewInMemoryRevocationList() *InMemoryRevocationList {
	return &InMemoryRevocationList{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke stores jti until ttl elapses and drops expired entries
func (l *InMemoryRevocationList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, exp := range l.revoked {
		if !now.Before(exp) {
			delete(l.revoked, id)
		}
	}
	l.revoked[jti] = now.Add(ttl)
	return nil
}

// IsRevoked reports whether jti is revoked and not yet expired
func (l *InMemoryRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	exp, ok := l.revoked[jti]
	if !ok {
		return false, nil
	}
	if !l.now().Before(exp) {
		delete(l.revoked, jti)
		return false, nil
	}
	return true, nil
}

var (
	_ RevocationList = (*RedisRevocationList)(nil)
	_ RevocationList = (*InMemoryRevocationList)(nil)
)
