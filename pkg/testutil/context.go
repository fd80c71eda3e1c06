package testutil

import (
	"net/http"

	"transcript/pkg/domain"
	"transcript/pkg/requestcontext"
)

// WithCaller sets the authenticated caller on the request context, as the
// auth middleware does for a valid bearer token.
func WithCaller(req *http.Request, caller domain.Address) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}
