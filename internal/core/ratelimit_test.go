package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

func newMockLimiter(maxMessages int, window time.Duration) (*RateLimiter, *clock.Mock) {
	mock := clock.NewMock()
	mock.Set(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewRateLimiter(RateLimitConfig{MaxMessages: maxMessages, Window: window}, mock), mock
}

func TestRateLimiterDeniesAfterLimit(t *testing.T) {
	rl, mock := newMockLimiter(5, 10*time.Second)
	start := mock.Now()

	for i := range 5 {
		require.True(t, rl.Permit(1), "attempt %d", i+1)
	}
	require.False(t, rl.Permit(1))
	require.Equal(t, 0, rl.Remaining(1))
	require.Equal(t, start.Add(10*time.Second), rl.ResetAt(1))

	// Other users are independent.
	require.True(t, rl.Permit(2))
	require.Equal(t, 4, rl.Remaining(2))
}

func TestRateLimiterSlidesWithTime(t *testing.T) {
	rl, mock := newMockLimiter(2, time.Second)

	require.True(t, rl.Permit(1))
	mock.Add(400 * time.Millisecond)
	require.True(t, rl.Permit(1))
	require.False(t, rl.Permit(1))

	// The first attempt leaves the window exactly one window after it was made.
	mock.Add(600 * time.Millisecond)
	require.Equal(t, 1, rl.Remaining(1))
	require.True(t, rl.Permit(1))
	require.False(t, rl.Permit(1))

	mock.Add(time.Second)
	require.Equal(t, 2, rl.Remaining(1))
	require.Equal(t, mock.Now(), rl.ResetAt(1))
}

func TestRateLimiterRemainingPlusGrantedIsMax(t *testing.T) {
	rl, mock := newMockLimiter(5, 10*time.Second)

	granted := 0
	for range 8 {
		if rl.Permit(7) {
			granted++
		}
		require.Equal(t, 5, granted+rl.Remaining(7))
		mock.Add(time.Second)
	}
}

func TestRateLimiterUnknownUser(t *testing.T) {
	rl, mock := newMockLimiter(5, 10*time.Second)

	require.Equal(t, 5, rl.Remaining(42))
	require.Equal(t, mock.Now(), rl.ResetAt(42))
	require.Equal(t, 0, rl.Len())
}

func TestRateLimiterZeroLimitDeniesEveryone(t *testing.T) {
	rl, _ := newMockLimiter(0, 10*time.Second)

	require.False(t, rl.Permit(1))
	require.Equal(t, 0, rl.Remaining(1))
}

func TestRateLimiterSweepDropsIdleUsers(t *testing.T) {
	rl, mock := newMockLimiter(5, 10*time.Second)

	require.True(t, rl.Permit(1))
	mock.Add(5 * time.Second)
	require.True(t, rl.Permit(2))

	mock.Add(5 * time.Second)
	require.Equal(t, 1, rl.Sweep())
	require.Equal(t, 1, rl.Len())
	require.Equal(t, 4, rl.Remaining(2))

	mock.Add(5 * time.Second)
	require.Equal(t, 1, rl.Sweep())
	require.Equal(t, 0, rl.Len())

	// A swept user starts from a fresh window.
	require.True(t, rl.Permit(1))
	require.Equal(t, 4, rl.Remaining(1))
}

func TestRateLimiterRunSweepsPeriodically(t *testing.T) {
	mock := clock.NewMock()
	rl := NewRateLimiter(RateLimitConfig{MaxMessages: 5, Window: time.Second, SweepInterval: time.Minute}, mock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		rl.Run(ctx)
		close(done)
	}()

	require.True(t, rl.Permit(1))
	require.Eventually(t, func() bool {
		mock.Add(time.Minute)
		return rl.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestRateLimiterConcurrentPermitsNeverExceedLimit(t *testing.T) {
	rl, _ := newMockLimiter(5, time.Hour)

	var granted atomic.Int64
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				if rl.Permit(1) {
					granted.Add(1)
				}
			}
		}()
	}

	// Sweeps racing with permits must not lose or double count attempts.
	stop := make(chan struct{})
	sweeper := make(chan struct{})
	go func() {
		defer close(sweeper)
		for {
			select {
			case <-stop:
				return
			default:
				rl.Sweep()
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-sweeper

	require.EqualValues(t, 5, granted.Load())
	require.Equal(t, 0, rl.Remaining(1))
}

func TestRateLimiterConcurrentSweepAfterExpiry(t *testing.T) {
	rl, mock := newMockLimiter(3, time.Second)

	for round := range 20 {
		var granted atomic.Int64
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				if rl.Permit(9) {
					granted.Add(1)
				}
			}()
			go func() {
				defer wg.Done()
				rl.Sweep()
			}()
		}
		wg.Wait()
		require.EqualValues(t, 3, granted.Load(), "round %d", round)
		mock.Add(time.Second)
	}
}
