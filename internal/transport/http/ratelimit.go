package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter keeps one token bucket per client IP.
// A bucket holds maxRequests tokens and refills fully over window.
type ipRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

func newIPRateLimiter(maxRequests int, window time.Duration) *ipRateLimiter {
	if maxRequests <= 0 || window <= 0 {
		return nil
	}
	return &ipRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(window / time.Duration(maxRequests)),
		burst:    maxRequests,
		idle:     window,
	}
}

func (r *ipRateLimiter) allow(ip string) bool {
	if r == nil {
		return true
	}

	r.mu.Lock()
	v, ok := r.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	r.mu.Unlock()

	return v.limiter.Allow()
}

// prune forgets visitors idle for longer than a full window; their bucket is full again anyway.
func (r *ipRateLimiter) prune() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.idle)
	for ip, v := range r.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(r.visitors, ip)
		}
	}
}

func (r *ipRateLimiter) startCleanup(stop <-chan struct{}) {
	if r == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.prune()
			case <-stop:
				return
			}
		}
	}()
}

// middleware rejects requests over the per-IP budget with 429.
func (r *ipRateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.allow(c.ClientIP()) {
			fail(c, http.StatusTooManyRequests, "Too many requests from this IP, please try again later.", "")
			return
		}
		c.Next()
	}
}
