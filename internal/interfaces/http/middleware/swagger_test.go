package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/salesdesk/backend/internal/interfaces/http/dto"
)

func swaggerTestRouter(config SwaggerAccessConfig, jwtAuth gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.GET("/swagger/index.html", SwaggerProtection(config, jwtAuth), func(c *gin.Context) {
		c.String(http.StatusOK, "docs")
	})
	return router
}

func TestSwaggerProtection_Disabled(t *testing.T) {
	router := swaggerTestRouter(SwaggerAccessConfig{Enabled: false}, nil)

	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSwaggerProtection_EnabledUnrestricted(t *testing.T) {
	router := swaggerTestRouter(SwaggerAccessConfig{Enabled: true}, nil)

	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "docs", w.Body.String())
}

func TestSwaggerProtection_IPAllowedByCIDR(t *testing.T) {
	// httptest requests originate from 192.0.2.1.
	router := swaggerTestRouter(SwaggerAccessConfig{
		Enabled:    true,
		AllowedIPs: []string{"192.0.2.0/24"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSwaggerProtection_IPRejected(t *testing.T) {
	router := swaggerTestRouter(SwaggerAccessConfig{
		Enabled:    true,
		AllowedIPs: []string{"10.0.0.0/8", "203.0.113.7"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "restricted")
}

func TestSwaggerProtection_RequireAuthDelegates(t *testing.T) {
	deny := func(c *gin.Context) {
		envelope := dto.NewErrorResponse(http.StatusUnauthorized, "Missing authorization header")
		c.AbortWithStatusJSON(envelope.StatusCode, envelope)
	}
	router := swaggerTestRouter(SwaggerAccessConfig{Enabled: true, RequireAuth: true}, deny)

	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSwaggerProtection_RequireAuthPasses(t *testing.T) {
	allow := func(c *gin.Context) { c.Next() }
	router := swaggerTestRouter(SwaggerAccessConfig{Enabled: true, RequireAuth: true}, allow)

	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
