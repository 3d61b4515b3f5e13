package http

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"credit-risk-agent/metrics"

	"go.uber.org/zap"
)

// clientIP keys the limiter by remote host, falling back to the raw address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func RateLimitMiddleware(
	limiter *RateLimiter,
	log *zap.Logger,
	next http.Handler,
) http.Handler {

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		allowed, retryAfter := limiter.Allow(ip)
		if !allowed {
			metrics.RateLimitedRequests.WithLabelValues(r.URL.Path).Inc()
			log.Debug("rate limit exceeded",
				zap.String("ip", ip),
				zap.String("path", r.URL.Path),
				zap.Duration("retry_after", retryAfter),
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
