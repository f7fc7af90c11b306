package service

import (
	"sync"
	"time"
)

// RateLimiter is an in-memory per-key token bucket, used to throttle
// sign-in and password reset attempts per client. Buckets idle for longer
// than the idle window are dropped by a background sweep.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens refilled per second
	burst   float64
	idle    time.Duration
	now     func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewRateLimiter allows burst attempts per key, refilling at rate per
// second.
func NewRateLimiter(rate, burst float64, idle time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		idle:    idle,
		now:     time.Now,
	}
	go rl.sweepLoop()
	return rl
}

// Allow consumes one token for key and reports whether one was available.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.burst, last: now}
		rl.buckets[key] = b
	}
	b.tokens = min(b.tokens+now.Sub(b.last).Seconds()*rl.rate, rl.burst)
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.idle / 2)
	for range ticker.C {
		rl.mu.Lock()
		cutoff := rl.now().Add(-rl.idle)
		for key, b := range rl.buckets {
			if b.last.Before(cutoff) {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}
