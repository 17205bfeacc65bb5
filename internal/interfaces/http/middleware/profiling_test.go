package middleware

import (
	"context"
	"net/http"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func pprofLabels(ctx context.Context) map[string]string {
	out := map[string]string{}
	pprof.ForLabels(ctx, func(k, v string) bool {
		out[k] = v
		return true
	})
	return out
}

func TestProfilingWithConfig(t *testing.T) {
	var got map[string]string
	router := gin.New()
	router.Use(ProfilingWithConfig(DefaultProfilingConfig()))
	capture := func(c *gin.Context) {
		got = pprofLabels(c.Request.Context())
		c.Status(http.StatusOK)
	}
	router.GET("/api/v1/views/:view/orders", capture)
	router.GET("/health", capture)

	t.Run("labels view routes", func(t *testing.T) {
		serve(router, http.MethodGet, "/api/v1/views/wahab/orders", nil)
		assert.Equal(t, map[string]string{
			"method": "GET",
			"route":  "/api/v1/views/:view/orders",
			"view":   "wahab",
		}, got)
	})

	t.Run("skips health", func(t *testing.T) {
		serve(router, http.MethodGet, "/health", nil)
		assert.Empty(t, got)
	})
}

func TestProfilingWithConfig_Disabled(t *testing.T) {
	var got map[string]string
	router := gin.New()
	router.Use(ProfilingWithConfig(ProfilingConfig{}))
	router.GET("/test", func(c *gin.Context) {
		got = pprofLabels(c.Request.Context())
	})

	serve(router, http.MethodGet, "/test", nil)
	assert.Empty(t, got)
}
