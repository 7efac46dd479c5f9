package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/salesdesk/backend/internal/infrastructure/telemetry"
)

// HTTPMetricsConfig configures the HTTP server metrics middleware.
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
}

// HTTPMetrics records request count, duration, sizes and in-flight
// requests per route. When metrics are disabled it degrades to a
// passthrough.
func HTTPMetrics(config HTTPMetricsConfig) gin.HandlerFunc {
	if config.MeterProvider == nil || !config.MeterProvider.IsEnabled() {
		return func(c *gin.Context) { c.Next() }
	}
	return HTTPMetricsWithMeter(config.MeterProvider.Meter("http.server"))
}

// HTTPMetricsWithMeter builds the metrics middleware on an explicit
// meter. Used directly in tests.
func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	m, err := newHTTPMetrics(meter)
	if err != nil {
		return func(c *gin.Context) { c.Next() }
	}
	return m.handler()
}

type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	requestSize     *telemetry.Histogram
	responseSize    *telemetry.Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requestTotal, err := telemetry.NewCounter(meter,
		"http.server.requests",
		"Total number of HTTP requests",
		"{request}")
	if err != nil {
		return nil, err
	}

	requestDuration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http.server.duration",
		Description: "HTTP request duration",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	requestSize, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http.server.request.size",
		Description: "HTTP request body size",
		Unit:        "By",
	})
	if err != nil {
		return nil, err
	}

	responseSize, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http.server.response.size",
		Description: "HTTP response body size",
		Unit:        "By",
	})
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	return &httpMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestSize:     requestSize,
		responseSize:    responseSize,
		activeRequests:  activeRequests,
	}, nil
}

func (m *httpMetrics) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()

		inFlight := []metric.AddOption{metric.WithAttributes(
			telemetry.AttrHTTPMethod.String(c.Request.Method),
		)}
		m.activeRequests.Add(ctx, 1, inFlight...)

		c.Next()

		m.activeRequests.Add(ctx, -1, inFlight...)

		attrs := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(routePattern(c)),
			telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()),
		}

		m.requestTotal.Inc(ctx, attrs...)
		m.requestDuration.RecordDuration(ctx, time.Since(start), attrs...)
		if c.Request.ContentLength > 0 {
			m.requestSize.Record(ctx, float64(c.Request.ContentLength), attrs...)
		}
		if size := c.Writer.Size(); size > 0 {
			m.responseSize.Record(ctx, float64(size), attrs...)
		}
	}
}

// routePattern returns the matched route template so metrics stay low
// cardinality. Unmatched requests collapse into "unknown".
func routePattern(c *gin.Context) string {
	if pattern := c.FullPath(); pattern != "" {
		return pattern
	}
	return "unknown"
}
