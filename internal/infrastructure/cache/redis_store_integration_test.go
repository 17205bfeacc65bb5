//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/orderdesk/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisKeyStore(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	store, err := NewKeyStore(ctx, config.IdempotencyConfig{
		Backend: "redis",
		Redis:   config.RedisConfig{Host: host, Port: port.Int()},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	redisStore, ok := store.(*RedisKeyStore)
	require.True(t, ok)

	ok, err = store.Claim(ctx, "bulk-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Claim(ctx, "bulk-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := redisStore.client.TTL(ctx, redisStore.keyPrefix+"bulk-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	require.NoError(t, store.Release(ctx, "bulk-1"))
	ok, err = store.Claim(ctx, "bulk-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
