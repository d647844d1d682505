package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit applies a token-bucket limiter per caller. Authenticated
// callers are keyed by user id, anonymous callers by client IP. Idle
// buckets are evicted after a few minutes so the map cannot grow
// without bound.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	type bucket struct {
		lim  *rate.Limiter
		seen time.Time
	}

	var (
		mu      sync.Mutex
		buckets = make(map[string]*bucket)
	)

	const idleEvict = 5 * time.Minute

	get := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		b, ok := buckets[key]
		if !ok {
			b = &bucket{lim: rate.NewLimiter(rate.Limit(rps), burst)}
			buckets[key] = b
		}
		b.seen = now

		if len(buckets) > 1024 {
			for k, v := range buckets {
				if now.Sub(v.seen) > idleEvict {
					delete(buckets, k)
				}
			}
		}
		return b.lim
	}

	return func(c *gin.Context) {
		key := IdentityFrom(c).ID
		if key == "" {
			key = c.ClientIP()
		}

		if !get(key).Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "rate_limited",
				"message":    "Too many requests. Please slow down.",
			})
			return
		}
		c.Next()
	}
}
