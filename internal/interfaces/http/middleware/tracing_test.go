package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	apporder "github.com/orderdesk/backend/internal/application/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) (*tracetest.SpanRecorder, TracingConfig) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	cfg := DefaultTracingConfig()
	cfg.Options = []otelgin.Option{otelgin.WithTracerProvider(tp)}
	return sr, cfg
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]string {
	out := map[attribute.Key]string{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value.Emit()
	}
	return out
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	sr, cfg := setupTestTracer(t)
	cfg.Enabled = false

	w := serve(okRouter(TracingWithConfig(cfg)), http.MethodGet, "/test", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracingWithConfig_SpanPerRoute(t *testing.T) {
	sr, cfg := setupTestTracer(t)

	router := gin.New()
	router.Use(TracingWithConfig(cfg))
	router.GET("/api/v1/views/:view/orders", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, http.MethodGet, "/api/v1/views/wahab/orders", nil)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/v1/views/:view/orders", spans[0].Name())
}

func TestSpanAttributes(t *testing.T) {
	sr, cfg := setupTestTracer(t)

	router := gin.New()
	router.Use(RequestID(), TracingWithConfig(cfg))
	router.GET("/views/:view/orders",
		func(c *gin.Context) {
			setClaims(c, AnonymousClaims())
			c.Set(ViewKey, apporder.View{Name: "wahab", Owner: "Wahab"})
			c.Next()
		},
		SpanAttributes(),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	w := serve(router, http.MethodGet, "/views/wahab/orders", map[string]string{RequestIDHeader: "req-42"})
	require.Equal(t, http.StatusOK, w.Code)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])
	assert.Equal(t, "req-42", attrs["request_id"])
	assert.Equal(t, "anonymous", attrs["enduser.id"])
	assert.Equal(t, "wahab", attrs["orderdesk.view"])
	assert.Equal(t, "Wahab", attrs["orderdesk.owner"])
}

func TestSpanAttributes_NoSpan(t *testing.T) {
	w := serve(okRouter(SpanAttributes()), http.MethodGet, "/test", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
