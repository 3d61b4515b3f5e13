package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestRateLimiter_AllowAndReset(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("1.1.1.1")
	assert.True(t, ok)
	ok, _ = rl.Allow("1.1.1.1")
	assert.True(t, ok)

	now = now.Add(20 * time.Second)
	ok, retryAfter := rl.Allow("1.1.1.1")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, retryAfter)

	// Another IP has its own bucket
	ok, _ = rl.Allow("2.2.2.2")
	assert.True(t, ok)

	now = now.Add(40 * time.Second)
	ok, _ = rl.Allow("1.1.1.1")
	assert.True(t, ok)
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow("1.1.1.1")

	now = now.Add(30 * time.Minute)
	rl.Allow("2.2.2.2")

	now = now.Add(40 * time.Minute)
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.buckets, "1.1.1.1")
	assert.Contains(t, rl.buckets, "2.2.2.2")
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	defer rl.Stop()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := RateLimitMiddleware(rl, zaptest.NewLogger(t), next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/credit/model", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/credit/model", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	assert.Equal(t, "10.0.0.7", clientIP(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientIP(req))
}
