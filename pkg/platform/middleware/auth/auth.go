// Package auth resolves the caller of a request from its bearer token.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"transcript/pkg/domain"
	"transcript/pkg/requestcontext"
)

// CallerValidator validates a bearer token and returns its claims.
type CallerValidator interface {
	ValidateToken(tokenString string) (*CallerClaims, error)
}

// CallerClaims are the claims the middleware needs from a valid token.
type CallerClaims struct {
	Caller domain.Address
	JTI    string
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// Authenticate sets the caller from an Authorization bearer token.
//
// Requests without an Authorization header proceed with the zero caller, so
// public reads need no credentials and mutations fail the authority check.
// A present but malformed, invalid or expired token is rejected with 401.
func Authenticate(validator CallerValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - malformed authorization header",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithCaller(ctx, claims.Caller)
			if claims.JTI != "" {
				ctx = requestcontext.WithTokenJTI(ctx, claims.JTI)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
