package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// Options are passed to otelgin, e.g. a test tracer provider.
	Options []otelgin.Option
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "orderdesk",
		Enabled:     true,
	}
}

// TracingWithConfig wraps otelgin. Span names follow "METHOD route"
// (e.g. "GET /api/v1/views/:view/orders"). otelgin ends the span before it
// returns, so request attributes are added by SpanAttributes inside the chain.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName, cfg.Options...)
}

// SpanAttributes copies request_id, username and view onto the request span.
// Place it after authentication and, for view routes, after ViewAccess.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			var attrs []attribute.KeyValue
			if id := c.GetString("request_id"); id != "" {
				attrs = append(attrs, attribute.String("request_id", id))
			}
			if username := GetJWTUsername(c); username != "" {
				attrs = append(attrs, attribute.String("enduser.id", username))
			}
			if v, ok := GetView(c); ok {
				attrs = append(attrs, attribute.String("orderdesk.view", v.Name))
				if v.Owner != "" {
					attrs = append(attrs, attribute.String("orderdesk.owner", v.Owner))
				}
			}
			span.SetAttributes(attrs...)
		}
		c.Next()
	}
}
