// Package ratelimit provides a global token-bucket limiter for HTTP routes.
package ratelimit

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	dErrors "transcript/pkg/domain-errors"
	"transcript/pkg/platform/httputil"
	"transcript/pkg/requestcontext"
)

// Observer is notified of every rejected request.
type Observer interface {
	IncRateLimited()
}

// Limit allows requestsPerSecond with the given burst across all clients.
// If requestsPerSecond <= 0, rate limiting is disabled.
func Limit(requestsPerSecond, burst int32, logger *slog.Logger, observer Observer) func(http.Handler) http.Handler {
	if requestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	if burst < 1 {
		burst = 1
	}

	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				ctx := r.Context()
				logger.WarnContext(ctx, "rate limit exceeded",
					"client_ip", requestcontext.ClientIP(ctx),
					"request_id", requestcontext.RequestID(ctx),
				)
				if observer != nil {
					observer.IncRateLimited()
				}
				w.Header().Set("Retry-After", "1")
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, please try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
