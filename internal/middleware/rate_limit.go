package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter implements a token bucket rate limiting algorithm
type RateLimiter struct {
	requestsPerMinute int
	burstSize         int
	clients           map[string]*TokenBucket
	mu                sync.Mutex
	now               func() time.Time
}

// TokenBucket implements a token bucket for rate limiting
type TokenBucket struct {
	tokens       float64
	lastRefill   time.Time
	tokensPerSec float64
	maxTokens    float64
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerMinute, burstSize int) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		burstSize:         burstSize,
		clients:           make(map[string]*TokenBucket),
		now:               time.Now,
	}
}

// Allow checks if a request is allowed based on rate limits
func (r *RateLimiter) Allow(clientIP string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	bucket, exists := r.clients[clientIP]
	if !exists {
		bucket = &TokenBucket{
			tokens:       float64(r.burstSize),
			lastRefill:   now,
			tokensPerSec: float64(r.requestsPerMinute) / 60.0,
			maxTokens:    float64(r.burstSize),
		}
		r.clients[clientIP] = bucket
	}

	elapsed := now.Sub(bucket.lastRefill).Seconds()
	bucket.lastRefill = now
	bucket.tokens += elapsed * bucket.tokensPerSec
	if bucket.tokens > bucket.maxTokens {
		bucket.tokens = bucket.maxTokens
	}

	if bucket.tokens >= 1.0 {
		bucket.tokens -= 1.0
		return true
	}

	return false
}

// RateLimit creates middleware for rate limiting requests in memory.
// It is used when Redis is not available.
func RateLimit(limiter *RateLimiter, clientIPHeader string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(clientKey(c, clientIPHeader)) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Try again later.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func clientKey(c *gin.Context, header string) string {
	if header != "" {
		if ip := c.GetHeader(header); ip != "" {
			return ip
		}
	}
	return c.ClientIP()
}
