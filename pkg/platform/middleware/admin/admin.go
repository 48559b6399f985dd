// Package admin guards the back-office routes with a shared operator token.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "cockpit/pkg/domain-errors"
	"cockpit/pkg/platform/httputil"
	"cockpit/pkg/requestcontext"
)

const (
	tokenHeader    = "X-Admin-Token"
	operatorHeader = "X-Operator"
)

// RequireAdminToken lets a request through only when X-Admin-Token matches expectedToken.
// With no configured token every request is refused.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	want := []byte(expectedToken)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(tokenHeader))
			if len(want) > 0 && subtle.ConstantTimeCompare(got, want) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			logger.WarnContext(ctx, "back-office request rejected",
				"request_id", requestcontext.RequestID(ctx),
				"operator", r.Header.Get(operatorHeader),
				"path", r.URL.Path,
				"token_present", len(got) > 0,
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
		})
	}
}
