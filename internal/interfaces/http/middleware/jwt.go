package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/salesdesk/backend/internal/infrastructure/auth"
	"github.com/salesdesk/backend/internal/interfaces/http/dto"
)

const (
	// AuthHeaderKey is the header carrying the bearer token.
	AuthHeaderKey = "Authorization"

	// BearerPrefix is the expected authorization scheme prefix.
	BearerPrefix = "Bearer "

	// JWTClaimsKey is the gin context key holding the validated claims.
	JWTClaimsKey = "jwt_claims"

	// JWTSubjectKey is the gin context key holding the token subject.
	JWTSubjectKey = "jwt_subject"

	// JWTEmailKey is the gin context key holding the token email.
	JWTEmailKey = "jwt_email"
)

var (
	errMissingAuthHeader = errors.New("missing authorization header")
	errInvalidAuthFormat = errors.New("invalid authorization header format")
	errMissingToken      = errors.New("missing token")
)

// JWTConfig configures the JWT authentication middleware.
type JWTConfig struct {
	// JWTService validates access tokens. Required.
	JWTService *auth.JWTService

	// TokenBlacklist rejects revoked tokens. Optional; when nil no
	// revocation check is performed.
	TokenBlacklist auth.TokenBlacklist

	// SkipPaths are exact request paths that bypass authentication.
	SkipPaths []string

	// SkipPathPrefixes are path prefixes that bypass authentication.
	SkipPathPrefixes []string

	Logger *zap.Logger
}

// DefaultJWTSkipPaths returns the unauthenticated endpoints: health
// probes and the auth endpoints that establish a session.
func DefaultJWTSkipPaths() []string {
	return []string{
		"/health",
		"/ready",
		"/api/v1/auth/register",
		"/api/v1/auth/confirm",
		"/api/v1/auth/login",
		"/api/v1/auth/refresh",
	}
}

// DefaultJWTSkipPathPrefixes returns path prefixes that bypass
// authentication. Swagger access control is handled separately.
func DefaultJWTSkipPathPrefixes() []string {
	return []string{"/swagger"}
}

// JWT returns a middleware that authenticates requests with a bearer
// access token. Validated claims are stored on the gin context for
// downstream handlers.
func JWT(config JWTConfig) gin.HandlerFunc {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
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

		token, err := extractBearerToken(c)
		if err != nil {
			abortUnauthorized(c, authErrorMessage(err))
			return
		}

		claims, err := config.JWTService.ValidateAccessToken(token)
		if err != nil {
			abortUnauthorized(c, authErrorMessage(err))
			return
		}

		if config.TokenBlacklist != nil {
			revoked, err := config.TokenBlacklist.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				// A broken blacklist store must not lock every
				// user out; the token signature already passed.
				logger.Warn("token blacklist check failed",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err))
			} else if revoked {
				abortUnauthorized(c, "Token has been revoked")
				return
			}
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTSubjectKey, claims.Subject)
		c.Set(JWTEmailKey, claims.Email)
		c.Next()
	}
}

func shouldSkipPath(path string, skipPaths map[string]struct{}, prefixes []string) bool {
	if _, ok := skipPaths[path]; ok {
		return true
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func extractBearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader(AuthHeaderKey)
	if header == "" {
		return "", errMissingAuthHeader
	}
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", errInvalidAuthFormat
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, errMissingAuthHeader):
		return "Missing authorization header"
	case errors.Is(err, errInvalidAuthFormat):
		return "Invalid authorization header format"
	case errors.Is(err, errMissingToken):
		return "Missing token"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidTokenType):
		return "Invalid token type"
	default:
		return "Invalid token"
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	envelope := dto.NewErrorResponse(http.StatusUnauthorized, message)
	c.AbortWithStatusJSON(envelope.StatusCode, envelope)
}

// GetJWTClaims returns the validated claims stored by the JWT middleware.
func GetJWTClaims(c *gin.Context) (*auth.Claims, bool) {
	value, exists := c.Get(JWTClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok
}

// GetSubject returns the authenticated subject stored by the JWT
// middleware.
func GetSubject(c *gin.Context) (string, bool) {
	value, exists := c.Get(JWTSubjectKey)
	if !exists {
		return "", false
	}
	subject, ok := value.(string)
	return subject, ok && subject != ""
}
