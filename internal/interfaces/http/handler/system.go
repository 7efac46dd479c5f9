package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// DatabasePinger reports database reachability
type DatabasePinger interface {
	Ping() error
}

// CachePinger reports cache reachability
type CachePinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler handles liveness and readiness endpoints
type SystemHandler struct {
	BaseHandler
	db        DatabasePinger
	cache     CachePinger
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db DatabasePinger, cache CachePinger) *SystemHandler {
	return &SystemHandler{
		db:        db,
		cache:     cache,
		startTime: time.Now(),
	}
}

// HealthResponse represents the liveness response
type HealthResponse struct {
	Status    string `json:"status" example:"healthy"`
	GoVersion string `json:"goVersion" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
	Time      string `json:"time" example:"2026-01-23T12:00:00Z"`
}

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Status string            `json:"status" example:"healthy"`
	Checks map[string]string `json:"checks"`
	Time   string            `json:"time" example:"2026-01-23T12:00:00Z"`
}

// Health godoc
// @Summary      Liveness check
// @Description  Reports that the process is up; no dependencies are touched
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Time:      time.Now().Format(time.RFC3339),
	})
}

// Ready godoc
// @Summary      Readiness check
// @Description  Reports whether the database and cache are reachable
// @Tags         system
// @Produce      json
// @Success      200 {object} ReadyResponse
// @Failure      503 {object} ReadyResponse
// @Router       /ready [get]
func (h *SystemHandler) Ready(c *gin.Context) {
	checks := map[string]string{
		"database": "ok",
		"cache":    "ok",
	}
	status := http.StatusOK

	if err := h.db.Ping(); err != nil {
		checks["database"] = "error"
		status = http.StatusServiceUnavailable
	}
	if err := h.cache.Ping(c.Request.Context()); err != nil {
		checks["cache"] = "error"
		status = http.StatusServiceUnavailable
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}

	c.JSON(status, ReadyResponse{
		Status: state,
		Checks: checks,
		Time:   time.Now().Format(time.RFC3339),
	})
}
