package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"transcript/pkg/domain"
	"transcript/pkg/requestcontext"
)

type stubValidator struct {
	claims *CallerClaims
	err    error
}

func (v stubValidator) ValidateToken(string) (*CallerClaims, error) {
	return v.claims, v.err
}

func TestAuthenticate(t *testing.T) {
	caller := domain.Address{0xa1}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		header     string
		validator  stubValidator
		wantStatus int
		wantCaller domain.Address
		wantJTI    string
	}{
		{
			name:       "no header proceeds anonymously",
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid token sets caller",
			header:     "Bearer good",
			validator:  stubValidator{claims: &CallerClaims{Caller: caller, JTI: "jti-1"}},
			wantStatus: http.StatusOK,
			wantCaller: caller,
			wantJTI:    "jti-1",
		},
		{
			name:       "invalid token is rejected",
			header:     "Bearer bad",
			validator:  stubValidator{err: errors.New("expired")},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "non-bearer scheme is rejected",
			header:     "Basic dXNlcjpwYXNz",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty bearer is rejected",
			header:     "Bearer ",
			wantStatus: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotCaller domain.Address
			var gotJTI string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotCaller = requestcontext.Caller(r.Context())
				gotJTI = requestcontext.TokenJTI(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/v1/transcripts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			Authenticate(tt.validator, logger)(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantCaller, gotCaller)
			assert.Equal(t, tt.wantJTI, gotJTI)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"unauthorized","error_description":"`+errorDescription(tt.header)+`"}`, rr.Body.String())
			}
		})
	}
}

func errorDescription(header string) string {
	if header == "Bearer bad" {
		return "Invalid or expired token"
	}
	return "Missing or invalid Authorization header"
}
