package documents

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	id "cockpit/pkg/domain"
	dErrors "cockpit/pkg/domain-errors"
	"cockpit/pkg/platform/httputil"
	"cockpit/pkg/requestcontext"
)

type DocumentService interface {
	UploadURL(ctx context.Context, subsidiaryID id.SubsidiaryID, k Kind) (*SignedURL, error)
	DownloadURL(ctx context.Context, subsidiaryID id.SubsidiaryID, k Kind) (*SignedURL, error)
	TemplateFields(ctx context.Context, name string) ([]string, error)
}

type Handler struct {
	service DocumentService
	logger  *slog.Logger
}

func NewHandler(service DocumentService, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the document routes. The router must already authenticate the caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/subsidiaries/{id}/givve/documents/{kind}/upload-url", h.HandleUploadURL)
	r.Get("/subsidiaries/{id}/givve/documents/{kind}", h.HandleDownloadURL)
	r.Get("/givve/templates/{name}/fields", h.HandleTemplateFields)
}

func (h *Handler) HandleUploadURL(w http.ResponseWriter, r *http.Request) {
	h.sign(w, r, h.service.UploadURL)
}

func (h *Handler) HandleDownloadURL(w http.ResponseWriter, r *http.Request) {
	h.sign(w, r, h.service.DownloadURL)
}

func (h *Handler) HandleTemplateFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	fields, err := h.service.TemplateFields(ctx, name)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TemplateFieldsResponse{Template: name, Fields: fields})
}

func (h *Handler) sign(w http.ResponseWriter, r *http.Request, fn func(context.Context, id.SubsidiaryID, Kind) (*SignedURL, error)) {
	ctx := r.Context()
	subsidiaryID, err := id.ParseSubsidiaryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	signed, err := fn(ctx, subsidiaryID, kind)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SignedURLResponse{
		URL:       signed.URL,
		Method:    signed.Method,
		Key:       signed.Key,
		ExpiresAt: signed.ExpiresAt,
	})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	if dErrors.CodeOf(err) == dErrors.CodePersistence {
		h.logger.ErrorContext(ctx, "document request failed", "error", err, "request_id", requestcontext.RequestID(ctx))
	} else {
		h.logger.WarnContext(ctx, "document request rejected", "error", err, "request_id", requestcontext.RequestID(ctx))
	}
	httputil.WriteError(w, err)
}

type SignedURLResponse struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

type TemplateFieldsResponse struct {
	Template string   `json:"template"`
	Fields   []string `json:"fields"`
}
