// Package ratelimit applies a per-client token bucket to mutating
// endpoints, replacing a hand-rolled sweep-based limiter
// (src/diplomat/middleware/ratelimit.go) with the ecosystem primitive
// golang.org/x/time/rate, the same library
// r3e-network-service_layer/infrastructure/ratelimit/ratelimit.go depends
// on for the identical concern.
package ratelimit

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/fandangolas/core-banking-platform/internal/platform/apierror"
)

type Config struct {
	RequestsPerSecond float64
	Burst             int
}

// Limiter keeps one token bucket per client IP, created lazily and never
// evicted — acceptable for the moderate client cardinality of an internal
// banking platform; a production deployment would bound this with a TTL
// cache.
type Limiter struct {
	cfg     Config
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func New(cfg Config) *Limiter {
	return &Limiter{cfg: cfg, buckets: make(map[string]*rate.Limiter)}
}

func (l *Limiter) bucketFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.Burst)
		l.buckets[key] = b
	}
	return b
}

func (l *Limiter) Allow(key string) bool {
	return l.bucketFor(key).Allow()
}

// Middleware rate-limits POST/PUT/PATCH/DELETE requests per client IP and
// passes every other method through. A rejected request gets 429 with the
// canonical body shape written directly (not via apierror.Respond), carrying
// the error value RATE_LIMIT_EXCEEDED, which is not one of apierror's kinds;
// its timestamp and traceId are left empty.
func Middleware(l *Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.Body{
				Status:  http.StatusTooManyRequests,
				Error:   "RATE_LIMIT_EXCEEDED",
				Message: "rate limit exceeded, please try again later",
				Path:    c.Request.URL.Path,
			})
			return
		}
		c.Next()
	}
}
