package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/salesdesk/backend/internal/infrastructure/telemetry"
)

// ProfilingConfig configures the continuous profiling labels applied
// to request handling goroutines.
type ProfilingConfig struct {
	Enabled          bool
	SkipPaths        []string
	SkipPathPrefixes []string
}

// DefaultProfilingConfig skips the cheap probe endpoints and the
// documentation routes.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:          true,
		SkipPaths:        []string{"/health", "/ready"},
		SkipPathPrefixes: []string{"/swagger"},
	}
}

// Profiling tags profiler samples taken during a request with the HTTP
// method, route pattern and controller so flame graphs can be filtered
// per endpoint. A disabled config returns a passthrough.
func Profiling(config ProfilingConfig) gin.HandlerFunc {
	if !config.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	skipPaths := make(map[string]struct{}, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipPaths[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if shouldSkipPath(c.Request.URL.Path, skipPaths, config.SkipPathPrefixes) {
			c.Next()
			return
		}

		route := routePattern(c)
		labels := telemetry.HTTPRequestLabels(controllerFromRoute(route), route, c.Request.Method)

		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// controllerFromRoute extracts the resource segment from a route
// pattern, skipping the api prefix and version segments. For
// "/api/v1/products/:id" it returns "products".
func controllerFromRoute(route string) string {
	for _, segment := range strings.Split(route, "/") {
		if segment == "" || segment == "api" || isVersionSegment(segment) {
			continue
		}
		if strings.HasPrefix(segment, ":") || strings.HasPrefix(segment, "*") {
			continue
		}
		return segment
	}
	return "unknown"
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || segment[0] != 'v' {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
