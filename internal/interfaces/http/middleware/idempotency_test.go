package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orderdesk/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapKeyStore struct {
	mu       sync.Mutex
	keys     map[string]time.Duration
	released []string
	err      error
}

func newMapKeyStore() *mapKeyStore {
	return &mapKeyStore{keys: make(map[string]time.Duration)}
}

func (s *mapKeyStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if _, held := s.keys[key]; held {
		return false, nil
	}
	s.keys[key] = ttl
	return true, nil
}

func (s *mapKeyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	s.released = append(s.released, key)
	return nil
}

func idempotentRouter(store IdempotencyStore, status *int) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), func(c *gin.Context) {
		c.Set(JWTUsernameKey, c.GetHeader("X-User"))
		c.Next()
	})
	router.POST("/views/:view/orders/bulk", Idempotency(store, time.Minute), func(c *gin.Context) {
		c.Status(*status)
	})
	return router
}

func TestIdempotency(t *testing.T) {
	const path = "/views/orders/orders/bulk"

	t.Run("duplicate key is rejected", func(t *testing.T) {
		store := newMapKeyStore()
		status := http.StatusOK
		router := idempotentRouter(store, &status)
		headers := map[string]string{IdempotencyKeyHeader: "abc", "X-User": "ahsan"}

		first := serve(router, http.MethodPost, path, headers)
		assert.Equal(t, http.StatusOK, first.Code)

		second := serve(router, http.MethodPost, path, headers)
		assert.Equal(t, http.StatusConflict, second.Code)
		assert.Equal(t, dto.ErrCodeConflict, decodeError(t, second).Code)

		require.Len(t, store.keys, 1)
		for key, ttl := range store.keys {
			assert.Equal(t, "ahsan|POST|/views/:view/orders/bulk|orders|abc", key)
			assert.Equal(t, time.Minute, ttl)
		}
	})

	t.Run("keys are scoped per user and view", func(t *testing.T) {
		store := newMapKeyStore()
		status := http.StatusOK
		router := idempotentRouter(store, &status)

		assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, path,
			map[string]string{IdempotencyKeyHeader: "abc", "X-User": "ahsan"}).Code)
		assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, path,
			map[string]string{IdempotencyKeyHeader: "abc", "X-User": "wahab"}).Code)
		assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/views/wahab/orders/bulk",
			map[string]string{IdempotencyKeyHeader: "abc", "X-User": "ahsan"}).Code)
	})

	t.Run("failed request releases its key", func(t *testing.T) {
		store := newMapKeyStore()
		status := http.StatusBadGateway
		router := idempotentRouter(store, &status)
		headers := map[string]string{IdempotencyKeyHeader: "retry-me"}

		assert.Equal(t, http.StatusBadGateway, serve(router, http.MethodPost, path, headers).Code)
		assert.Len(t, store.released, 1)

		status = http.StatusOK
		assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, path, headers).Code)
	})

	t.Run("requests without the header pass through", func(t *testing.T) {
		store := newMapKeyStore()
		status := http.StatusOK
		router := idempotentRouter(store, &status)

		assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, path, nil).Code)
		assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, path, nil).Code)
		assert.Empty(t, store.keys)
	})

	t.Run("store errors fail open", func(t *testing.T) {
		store := newMapKeyStore()
		store.err = errors.New("redis down")
		status := http.StatusOK
		router := idempotentRouter(store, &status)
		headers := map[string]string{IdempotencyKeyHeader: "abc"}

		assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, path, headers).Code)
		assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, path, headers).Code)
	})
}

func TestIdempotency_PanicReleasesKey(t *testing.T) {
	store := newMapKeyStore()
	fail := true

	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, _ any) {
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
	router.Use(RequestID(), func(c *gin.Context) {
		c.Set(JWTUsernameKey, "ahsan")
		c.Next()
	})
	router.POST("/views/:view/orders/delete-all", Idempotency(store, time.Minute), func(c *gin.Context) {
		if fail {
			panic("remote client bug")
		}
		c.Status(http.StatusOK)
	})

	headers := map[string]string{IdempotencyKeyHeader: "k1"}
	w := serve(router, http.MethodPost, "/views/orders/orders/delete-all", headers)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, store.keys)
	assert.Equal(t, []string{"ahsan|POST|/views/:view/orders/delete-all|orders|k1"}, store.released)

	fail = false
	w = serve(router, http.MethodPost, "/views/orders/orders/delete-all", headers)
	assert.Equal(t, http.StatusOK, w.Code)
}
