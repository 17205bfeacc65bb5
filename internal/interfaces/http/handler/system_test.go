package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("orderdesk", "1.2.0", "test", nil)
	assert.NotNil(t, h)
	assert.False(t, h.startTime.IsZero())
	assert.NotNil(t, h.checks)
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("orderdesk", "1.2.0", "test", nil)
	c, w := testContext(http.MethodGet, "/system/info")

	h.GetSystemInfo(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var info SystemInfoResponse
	decodeData(t, w, &info)
	assert.Equal(t, "orderdesk", info.Name)
	assert.Equal(t, "1.2.0", info.Version)
	assert.Equal(t, "test", info.Env)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.Uptime)
}

func TestSystemHandler_Health(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     map[string]HealthCheck
		wantStatus int
		wantBody   HealthResponse
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantBody:   HealthResponse{Status: "healthy", Checks: map[string]string{}},
		},
		{
			name:       "all pass",
			checks:     map[string]HealthCheck{"database": ok},
			wantStatus: http.StatusOK,
			wantBody:   HealthResponse{Status: "healthy", Checks: map[string]string{"database": "ok"}},
		},
		{
			name:       "one fails",
			checks:     map[string]HealthCheck{"database": down, "revocations": ok},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   HealthResponse{Status: "unhealthy", Checks: map[string]string{"database": "error", "revocations": "ok"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/health", NewSystemHandler("orderdesk", "dev", "test", tt.checks).Health)

			w := doRequest(router, http.MethodGet, "/health", nil)
			assert.Equal(t, tt.wantStatus, w.Code)

			var body HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			_, err := time.Parse(time.RFC3339, body.Time)
			assert.NoError(t, err)
			body.Time = ""
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
