package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orderdesk/backend/internal/infrastructure/logger"
	"github.com/orderdesk/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the client-chosen key of a bulk submission.
const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotencyStore claims keys for a limited time.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Idempotency rejects a request whose Idempotency-Key was already used by the
// same user on the same route and view within ttl. Requests without the
// header pass through. A failed request (status >= 400, or a panic in a later
// handler) releases its key so the client can retry. Store errors are logged and the request proceeds.
func Idempotency(store IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if header == "" {
			c.Next()
			return
		}

		key := strings.Join([]string{
			GetJWTUsername(c), c.Request.Method, c.FullPath(), c.Param("view"), header,
		}, "|")
		ctx := c.Request.Context()
		log := logger.GetGinLogger(c)

		claimed, err := store.Claim(ctx, key, ttl)
		if err != nil {
			log.Warn("Idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeConflict, "This request was already submitted", c.GetString("request_id")))
			return
		}

		completed := false
		defer func() {
			if completed && c.Writer.Status() < http.StatusBadRequest {
				return
			}
			if err := store.Release(context.WithoutCancel(ctx), key); err != nil {
				log.Warn("Failed to release idempotency key", zap.Error(err))
			}
		}()

		c.Next()
		completed = true
	}
}
