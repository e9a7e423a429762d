package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/GTDGit/costchecker/internal/utils"
)

// idleAfter is how long an IP's limiter survives without requests.
const idleAfter = 10 * time.Minute

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	rps      rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows rps requests per second per IP with the given
// burst. A non-positive rps disables limiting.
func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		limiters: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether ip may make another request now.
func (r *IPRateLimiter) Allow(ip string) bool {
	if r.rps <= 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.limiters[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.rps, r.burst)}
		r.limiters[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

// Cleanup drops limiters idle for longer than idleAfter.
func (r *IPRateLimiter) Cleanup(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for ip, v := range r.limiters {
		if now.Sub(v.lastSeen) > idleAfter {
			delete(r.limiters, ip)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done.
func (r *IPRateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Cleanup(now)
		}
	}
}

// Handle rejects requests over the limit with 429.
func (r *IPRateLimiter) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Allow(c.ClientIP()) {
			utils.Abort(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many requests, please slow down")
			return
		}
		c.Next()
	}
}
