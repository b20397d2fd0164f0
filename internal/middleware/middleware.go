// Package middleware carries the cross-cutting request plumbing: trace
// injection, per-IP rate limiting and request metrics.
package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"ragline/internal/api"
	"ragline/internal/config"
	"ragline/internal/metrics"
	"ragline/pkg/logx"
)

// InjectTrace reuses an inbound X-Trace-Id or mints one, and makes it
// available to every downstream logger through the request context.
func InjectTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace := r.Header.Get("X-Trace-Id")
		if trace == "" {
			trace = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), config.TraceIDKey, trace)
		w.Header().Set("X-Trace-Id", trace)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Metrics records the response status per path.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc()
	})
}

// RateLimit rejects clients exceeding the configured per-IP rate with
// 429 responses.
func RateLimit(perSecond, burst int) func(http.Handler) http.Handler {
	limiter := NewIPRateLimiter(perSecond, burst)
	logger := logx.New("rate-limit")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiter.Get(ip).Allow() {
				logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				writeTooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeTooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	raw, _ := json.Marshal(api.ErrorResponse{Kind: "rate_limited", Message: "too many requests"})
	w.Write(raw)
}
