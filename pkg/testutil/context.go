package testutil

import (
	"net/http"
	"time"

	id "cockpit/pkg/domain"
	"cockpit/pkg/requestcontext"
)

// WithUser adds a user ID to the request context, as the auth middleware would.
func WithUser(req *http.Request, userID id.UserID) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
