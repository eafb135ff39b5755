package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/response"
)

const sweepThreshold = 1024

// RateLimiter keeps one token-bucket limiter per client IP.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idle    time.Duration
	mu      sync.Mutex
	clients map[string]*client
	now     func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows burst requests at once and refills perMinute tokens each minute.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	if burst <= 0 {
		burst = perMinute
	}
	limit := rate.Limit(float64(perMinute) / 60)
	return &RateLimiter{
		limit:   limit,
		burst:   burst,
		idle:    time.Duration(float64(burst)/float64(limit)) * time.Second,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// Middleware rejects requests once the caller's bucket is empty.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if key == "" {
			key = "unknown"
		}
		if !l.Allow(key) {
			response.Error(c, appErrors.Clone(appErrors.ErrTooManyRequests, "Too many requests, try again later"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Allow takes one token for key if available.
func (l *RateLimiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	entry, ok := l.clients[key]
	if !ok {
		l.sweep(now)
		entry = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// sweep drops clients idle long enough for their bucket to be full again.
// Callers hold l.mu.
func (l *RateLimiter) sweep(now time.Time) {
	if len(l.clients) < sweepThreshold {
		return
	}
	for key, entry := range l.clients {
		if now.Sub(entry.lastSeen) > l.idle {
			delete(l.clients, key)
		}
	}
}
