package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestProfiling_PassesRequestThrough(t *testing.T) {
	router := gin.New()
	router.Use(Profiling(DefaultProfilingConfig()))
	router.GET("/api/v1/products/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/42", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfiling_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(Profiling(ProfilingConfig{Enabled: false}))
	router.GET("/resource", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/resource", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestControllerFromRoute(t *testing.T) {
	tests := []struct {
		route    string
		expected string
	}{
		{"/api/v1/products/:id", "products"},
		{"/api/v1/sales/by-email", "sales"},
		{"/api/v2/customers", "customers"},
		{"/health", "health"},
		{"/api/v1/:id", "unknown"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, controllerFromRoute(tt.route), "route %q", tt.route)
	}
}

func TestIsVersionSegment(t *testing.T) {
	assert.True(t, isVersionSegment("v1"))
	assert.True(t, isVersionSegment("v12"))
	assert.False(t, isVersionSegment("v"))
	assert.False(t, isVersionSegment("version"))
	assert.False(t, isVersionSegment("products"))
}
