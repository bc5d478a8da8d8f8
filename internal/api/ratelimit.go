package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Baduit/Timer/clock"
	"github.com/Baduit/Timer/executor"
)

const (
	staleClientAfter = 10 * time.Minute
	sweepPeriod      = 5 * time.Minute
)

// RateLimiter implements a token bucket rate limiter per IP address
type RateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientBucket
	rate     int           // tokens per interval
	interval time.Duration // refill interval
	burst    int           // max tokens (bucket size)

	source  clock.Source
	sweeper *executor.Interval
}

type clientBucket struct {
	tokens    int
	lastCheck time.Time
}

// NewRateLimiter creates a rate limiter with specified rate (requests per interval) and burst size.
// Stale clients are forgotten periodically until Close is called.
func NewRateLimiter(rate int, interval time.Duration, burst int, src clock.Source) *RateLimiter {
	rl := &RateLimiter{
		clients:  make(map[string]*clientBucket),
		rate:     rate,
		interval: interval,
		burst:    burst,
		source:   clock.OrReal(src),
	}
	rl.sweeper = executor.Every(sweepPeriod, rl.sweep,
		executor.WithName("ratelimit-sweep"),
		executor.WithSource(rl.source),
	)
	return rl
}

// Allow checks if a request from the given IP should be allowed
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.source.Now()

	bucket, exists := rl.clients[ip]
	if !exists {
		// New client starts with full bucket
		rl.clients[ip] = &clientBucket{
			tokens:    rl.burst - 1, // -1 for this request
			lastCheck: now,
		}
		return true
	}

	// Refill whole intervals only; the remainder carries over to the next check
	intervals := int(now.Sub(bucket.lastCheck) / rl.interval)
	if intervals > 0 {
		bucket.tokens += intervals * rl.rate
		if bucket.tokens > rl.burst {
			bucket.tokens = rl.burst
		}
		bucket.lastCheck = bucket.lastCheck.Add(time.Duration(intervals) * rl.interval)
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true
	}

	return false
}

// sweep removes clients not seen for staleClientAfter.
func (rl *RateLimiter) sweep() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := rl.source.Now().Add(-staleClientAfter)
	for ip, bucket := range rl.clients {
		if bucket.lastCheck.Before(threshold) {
			delete(rl.clients, ip)
		}
	}
	return nil
}

// Middleware returns a Gin middleware that rate limits requests
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		if !rl.Allow(ip) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": rl.interval.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// Close stops the stale client sweep.
func (rl *RateLimiter) Close() error {
	return rl.sweeper.Close()
}
