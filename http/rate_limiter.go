package http

import (
	"sync"
	"time"
)

const (
	idleBucketTTL = 1 * time.Hour
	sweepInterval = 30 * time.Minute
)

type bucket struct {
	remaining   int
	windowStart time.Time
}

// RateLimiter allows each client `limit` requests per window. Buckets idle
// for longer than idleBucketTTL are swept in the background.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*bucket
	done    chan struct{}
	once    sync.Once
	now     func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go rl.sweepLoop()
	return rl
}

func (r *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.done:
			return
		}
	}
}

func (r *RateLimiter) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for key, b := range r.buckets {
		if now.Sub(b.windowStart) > idleBucketTTL {
			delete(r.buckets, key)
		}
	}
}

// Stop ends the background sweep. Safe to call more than once.
func (r *RateLimiter) Stop() {
	r.once.Do(func() { close(r.done) })
}

// Allow consumes one request for key. When the bucket is empty it reports
// how long until the window resets.
func (r *RateLimiter) Allow(key string) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	b, ok := r.buckets[key]
	if !ok || now.Sub(b.windowStart) >= r.window {
		// New window for this client
		r.buckets[key] = &bucket{remaining: r.limit - 1, windowStart: now}
		return true, 0
	}

	if b.remaining <= 0 {
		return false, b.windowStart.Add(r.window).Sub(now)
	}

	b.remaining--
	return true, 0
}
