package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter registers the credit routes behind the rate limiter, plus the
// health and metrics endpoints.
func NewRouter(handler *DecisionHandler, limiter *RateLimiter, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	limited := func(h http.HandlerFunc) http.Handler {
		return RateLimitMiddleware(limiter, log, h)
	}

	mux := http.NewServeMux()
	mux.Handle("/credit/decision", limited(handler.CreateDecision))
	mux.Handle("GET /credit/decisions", limited(handler.ListDecisions))
	mux.Handle("GET /credit/decisions/{id}", limited(handler.GetDecision))
	mux.Handle("GET /credit/model", limited(handler.GetModel))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}
