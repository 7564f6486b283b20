package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Buckets for clients idle longer than limiterIdleTTL are dropped by a
// background sweep every limiterSweepInterval.
const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleTTL       = 10 * time.Minute
)

type clientBucket struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// RateLimiter returns a gin middleware enforcing a per-client token bucket.
// rps is the steady-state requests per second and burst the bucket depth;
// clients are keyed by source IP.
func RateLimiter(rps, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	clients := make(map[string]*clientBucket)

	go func() {
		for {
			time.Sleep(limiterSweepInterval)
			mu.Lock()
			for ip, b := range clients {
				if time.Since(b.lastSeen) > limiterIdleTTL {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		b, ok := clients[ip]
		if !ok {
			b = &clientBucket{bucket: rate.NewLimiter(rate.Limit(rps), burst)}
			clients[ip] = b
		}
		b.lastSeen = time.Now()
		mu.Unlock()

		if !b.bucket.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
