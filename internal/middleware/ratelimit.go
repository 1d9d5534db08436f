package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyedLimiters hands out one token-bucket limiter per API key, creating
// them lazily on first use. The mutex protects the map from concurrent
// goroutine access — a shared map with simple read/write is cleaner with a
// mutex than a channel.
type keyedLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

func (k *keyedLimiters) get(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	limiter, ok := k.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(k.rps), k.burst)
		k.limiters[key] = limiter
	}
	return limiter
}

// RateLimit returns per-API-key rate limiting middleware using token buckets.
//
// Token bucket algorithm: each key gets a bucket that fills at `rps` tokens/sec
// up to `burst` tokens. Each request consumes one token. If the bucket is empty,
// the request is rejected with 429. Keeping the limit per key means one noisy
// client can't starve the others.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	buckets := &keyedLimiters{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
		burst:    burst,
	}

	return func(c *gin.Context) {
		// Get the API key set by auth middleware
		key, exists := c.Get("api_key")
		if !exists {
			// No API key means auth middleware didn't run — allow through
			c.Next()
			return
		}

		if !buckets.get(key.(string)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
