package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxRequestIDLength = 128

// Tracing starts a server span for every request using the globally
// registered tracer provider and propagators.
func Tracing(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// SpanEnrichment annotates the active server span with the request id
// and authenticated subject, and marks spans of failed requests. It
// must run after Tracing; attributes set after c.Next() still land on
// the span because the span outlives the downstream handlers.
func SpanEnrichment() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.SpanContext().IsValid() {
			return
		}

		var attrs []attribute.KeyValue
		if id := requestIDForSpan(c); id != "" {
			attrs = append(attrs, attribute.String("request_id", id))
		}
		if subject, ok := GetSubject(c); ok {
			attrs = append(attrs, attribute.String("enduser.id", subject))
		}
		if len(attrs) > 0 {
			span.SetAttributes(attrs...)
		}

		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func requestIDForSpan(c *gin.Context) string {
	if id, ok := GetRequestID(c); ok {
		return id
	}
	id := c.GetHeader(RequestIDHeader)
	if len(id) > maxRequestIDLength {
		id = id[:maxRequestIDLength]
	}
	return id
}
