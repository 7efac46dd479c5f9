package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// RequestIDHeader is the header used to propagate request ids.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin context key holding the request id.
	RequestIDKey = "request_id"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig returns a permissive configuration suitable for
// development. Production deployments should set explicit origins.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			RequestIDHeader,
		},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
}

// CORS returns a CORS middleware with the default configuration.
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig())
}

// CORSWithConfig returns a CORS middleware for the given configuration.
// Requests without an Origin header pass through untouched. Preflight
// requests are answered directly with 204.
func CORSWithConfig(config CORSConfig) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(config.AllowOrigins))
	for _, origin := range config.AllowOrigins {
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[strings.ToLower(origin)] = struct{}{}
	}

	allowMethods := strings.Join(config.AllowMethods, ", ")
	allowHeaders := strings.Join(config.AllowHeaders, ", ")
	exposeHeaders := strings.Join(config.ExposeHeaders, ", ")
	maxAge := strconv.Itoa(int(config.MaxAge.Seconds()))

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			c.Next()
			return
		}

		_, originAllowed := allowed[strings.ToLower(origin)]
		if !originAllowed && !allowAll {
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		header := c.Writer.Header()
		if allowAll && !config.AllowCredentials {
			header.Set("Access-Control-Allow-Origin", "*")
		} else {
			// Credentialed responses must echo the concrete origin.
			header.Set("Access-Control-Allow-Origin", origin)
			header.Add("Vary", "Origin")
		}
		if config.AllowCredentials {
			header.Set("Access-Control-Allow-Credentials", "true")
		}
		if exposeHeaders != "" {
			header.Set("Access-Control-Expose-Headers", exposeHeaders)
		}

		if c.Request.Method == http.MethodOptions {
			header.Set("Access-Control-Allow-Methods", allowMethods)
			header.Set("Access-Control-Allow-Headers", allowHeaders)
			header.Set("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestID ensures every request carries a request id. An incoming
// X-Request-ID is trusted and propagated, otherwise a new id is generated.
// The id is stored on the gin context and echoed on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = newRequestID()
		}

		c.Set(RequestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the request id stored by RequestID, if any.
func GetRequestID(c *gin.Context) (string, bool) {
	value, exists := c.Get(RequestIDKey)
	if !exists {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}

func newRequestID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(buf)
}

// SecurityConfig holds the security response headers applied by Secure.
type SecurityConfig struct {
	ContentTypeNosniff    bool
	FrameDeny             bool
	ReferrerPolicy        string
	ContentSecurityPolicy string

	// HSTSMaxAgeSeconds enables Strict-Transport-Security on TLS
	// requests when positive.
	HSTSMaxAgeSeconds int
}

// DefaultSecurityConfig returns the header set applied in production.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		ContentTypeNosniff: true,
		FrameDeny:          true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		HSTSMaxAgeSeconds:  31536000,
	}
}

// Secure returns a middleware applying the default security headers.
func Secure() gin.HandlerFunc {
	return SecureWithConfig(DefaultSecurityConfig())
}

// SecureWithConfig returns a middleware applying the configured
// security headers to every response.
func SecureWithConfig(config SecurityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Writer.Header()
		if config.ContentTypeNosniff {
			header.Set("X-Content-Type-Options", "nosniff")
		}
		if config.FrameDeny {
			header.Set("X-Frame-Options", "DENY")
		}
		if config.ReferrerPolicy != "" {
			header.Set("Referrer-Policy", config.ReferrerPolicy)
		}
		if config.ContentSecurityPolicy != "" {
			header.Set("Content-Security-Policy", config.ContentSecurityPolicy)
		}
		if config.HSTSMaxAgeSeconds > 0 && c.Request.TLS != nil {
			header.Set("Strict-Transport-Security",
				"max-age="+strconv.Itoa(config.HSTSMaxAgeSeconds)+"; includeSubDomains")
		}
		c.Next()
	}
}
