package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/salesdesk/backend/internal/interfaces/http/dto"
)

// RateLimiter is a fixed-window request counter keyed by client. It is
// intentionally in-process; a multi-instance deployment fronted by a
// shared limiter does not need this middleware.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	limit   int
	window  time.Duration
	stop    chan struct{}
}

type clientWindow struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window
// per client key. A cleanup loop drops idle clients.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientWindow),
		limit:   limit,
		window:  window,
		stop:    make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow reports whether the client identified by key may proceed and
// consumes one slot if so.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, ok := rl.clients[key]
	if !ok || now.Sub(client.windowStart) >= rl.window {
		rl.clients[key] = &clientWindow{count: 1, windowStart: now}
		return true
	}
	if client.count < rl.limit {
		client.count++
		return true
	}
	return false
}

// Remaining returns how many requests the client may still make in the
// current window.
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, ok := rl.clients[key]
	if !ok || time.Since(client.windowStart) >= rl.window {
		return rl.limit
	}
	remaining := rl.limit - client.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Stop terminates the cleanup loop.
func (rl *RateLimiter) Stop() {
	close(rl.stop)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(2 * rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	for key, client := range rl.clients {
		if client.windowStart.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// RateLimit returns a middleware limiting requests per client IP. Every
// response carries X-RateLimit-Limit and X-RateLimit-Remaining headers;
// rejected requests get a 429 with a Retry-After hint.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	limitHeader := strconv.Itoa(limiter.limit)
	retryAfter := strconv.Itoa(int(limiter.window.Seconds()))

	return func(c *gin.Context) {
		key := c.ClientIP()

		if !limiter.Allow(key) {
			c.Header("X-RateLimit-Limit", limitHeader)
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", retryAfter)
			envelope := dto.NewErrorResponse(http.StatusTooManyRequests,
				"Rate limit exceeded, retry later")
			c.AbortWithStatusJSON(envelope.StatusCode, envelope)
			return
		}

		c.Header("X-RateLimit-Limit", limitHeader)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Next()
	}
}
