package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"collocation-backend/pkg/common"
	"collocation-backend/pkg/ratelimit"

	"go.uber.org/zap"
)

// RateLimit rejects requests from a client address that exceeded the
// limiter's budget with 429. It expects RealIP to have run first.
func RateLimit(limiter *ratelimit.SlidingWindowLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !limiter.Allow(key) {
				retryAfter := limiter.RetryAfter(key)
				logger.Warn("Rate limit exceeded",
					zap.String("client", key),
					zap.String("path", r.URL.Path),
					zap.Duration("retryAfter", retryAfter),
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				_ = common.RespondJSON(w, http.StatusTooManyRequests, common.Envelope{
					"status":  "error",
					"message": "Too many requests, try again later",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
