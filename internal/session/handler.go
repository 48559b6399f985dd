package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cockpit/pkg/platform/httputil"
	"cockpit/pkg/requestcontext"
)

type SignOutService interface {
	SignOut(ctx context.Context) error
}

type Handler struct {
	service SignOutService
	logger  *slog.Logger
}

func NewHandler(service SignOutService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the sign-out route. The router must already authenticate the caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/signout", h.HandleSignOut)
}

func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.SignOut(ctx); err != nil {
		h.logger.WarnContext(ctx, "sign-out failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
