package core

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const defaultSweepInterval = time.Minute

// RateLimitConfig bounds how many messages a user may send per sliding window.
type RateLimitConfig struct {
	MaxMessages   int
	Window        time.Duration
	SweepInterval time.Duration
}

type attempt struct {
	at    time.Time
	count int
}

// rateWindow holds the attempts of one user, oldest first.
// A window removed by Sweep is marked dead so racing callers fetch a fresh one.
type rateWindow struct {
	mu       sync.Mutex
	attempts []attempt
	dead     bool
}

// purge drops attempts that fell out of the window. Caller holds w.mu.
func (w *rateWindow) purge(now time.Time, window time.Duration) {
	i := 0
	for i < len(w.attempts) && now.Sub(w.attempts[i].at) >= window {
		i++
	}
	if i > 0 {
		w.attempts = append(w.attempts[:0], w.attempts[i:]...)
	}
}

func (w *rateWindow) total() int {
	n := 0
	for _, a := range w.attempts {
		n += a.count
	}
	return n
}

// RateLimiter is a per-user sliding window limiter.
type RateLimiter struct {
	cfg   RateLimitConfig
	clock clock.Clock

	mu      sync.Mutex
	windows map[int64]*rateWindow
}

// NewRateLimiter creates a limiter. A nil clock means wall time.
func NewRateLimiter(cfg RateLimitConfig, clk clock.Clock) *RateLimiter {
	if clk == nil {
		clk = clock.New()
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	return &RateLimiter{
		cfg:     cfg,
		clock:   clk,
		windows: make(map[int64]*rateWindow),
	}
}

// Config returns the limiter configuration.
func (rl *RateLimiter) Config() RateLimitConfig {
	return rl.cfg
}

func (rl *RateLimiter) window(userID int64, create bool) *rateWindow {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[userID]
	if !ok && create {
		w = &rateWindow{}
		rl.windows[userID] = w
	}
	return w
}

// Permit records an attempt for the user and reports whether it is allowed.
// Denied attempts are not recorded.
func (rl *RateLimiter) Permit(userID int64) bool {
	for {
		w := rl.window(userID, true)
		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			continue
		}

		now := rl.clock.Now()
		w.purge(now, rl.cfg.Window)
		if w.total() >= rl.cfg.MaxMessages {
			w.mu.Unlock()
			return false
		}
		w.attempts = append(w.attempts, attempt{at: now, count: 1})
		w.mu.Unlock()
		return true
	}
}

// Remaining returns how many attempts the user has left in the current window.
func (rl *RateLimiter) Remaining(userID int64) int {
	w := rl.window(userID, false)
	if w == nil {
		return max(0, rl.cfg.MaxMessages)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.purge(rl.clock.Now(), rl.cfg.Window)
	return max(0, rl.cfg.MaxMessages-w.total())
}

// ResetAt returns when the oldest retained attempt leaves the window,
// or now when the user has no attempts.
func (rl *RateLimiter) ResetAt(userID int64) time.Time {
	now := rl.clock.Now()
	w := rl.window(userID, false)
	if w == nil {
		return now
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.purge(now, rl.cfg.Window)
	if len(w.attempts) == 0 {
		return now
	}
	return w.attempts[0].at.Add(rl.cfg.Window)
}

// Sweep removes users whose windows have fully expired.
func (rl *RateLimiter) Sweep() int {
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for userID, w := range rl.windows {
		w.mu.Lock()
		w.purge(now, rl.cfg.Window)
		if len(w.attempts) == 0 {
			w.dead = true
			delete(rl.windows, userID)
			removed++
		}
		w.mu.Unlock()
	}
	return removed
}

// Len returns the number of tracked users.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// Run sweeps expired windows every SweepInterval until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := rl.clock.Ticker(rl.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}
