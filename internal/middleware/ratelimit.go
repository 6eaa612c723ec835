package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// fixedWindow is a per-client fixed-window counter. Windows reset
// wholesale, so a burst straddling the boundary can briefly exceed the
// nominal rate; acceptable for an abuse guard.
type fixedWindow struct {
	capacity int
	window   time.Duration

	mu        sync.Mutex
	count     int
	startedAt time.Time
}

func (w *fixedWindow) allow() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if now.Sub(w.startedAt) > w.window {
		w.count = 0
		w.startedAt = now
	}
	if w.count >= w.capacity {
		return false
	}
	w.count++
	return true
}

// RateLimiter keeps one fixed window per client IP.
type RateLimiter struct {
	capacity int
	window   time.Duration

	mu      sync.Mutex
	clients map[string]*fixedWindow
}

func NewRateLimiter(capacity int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		capacity: capacity,
		window:   window,
		clients:  make(map[string]*fixedWindow),
	}
}

// Allow reports whether the given client may proceed.
func (rl *RateLimiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	w, ok := rl.clients[clientIP]
	if !ok {
		w = &fixedWindow{capacity: rl.capacity, window: rl.window, startedAt: time.Now()}
		rl.clients[clientIP] = w
	}
	rl.mu.Unlock()

	return w.allow()
}

// RateLimit rejects clients that exceed the configured request cap
// within the window.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false, "error": "Too many requests, slow down",
			})
			return
		}
		c.Next()
	}
}
