package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "cockpit/pkg/domain"
	"cockpit/pkg/platform/httputil"
	"cockpit/pkg/requestcontext"
)

type OverviewService interface {
	Overview(ctx context.Context, subsidiaryID id.SubsidiaryID) (*Overview, error)
}

type Handler struct {
	service OverviewService
	logger  *slog.Logger
}

func NewHandler(service OverviewService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/subsidiaries/{id}/status", h.HandleOverview)
}

func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subsidiaryID, err := id.ParseSubsidiaryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	overview, err := h.service.Overview(ctx, subsidiaryID)
	if err != nil {
		h.logger.WarnContext(ctx, "status overview failed",
			"subsidiary_id", subsidiaryID,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, overview)
}
