package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"cockpit/internal/givve/models"
	id "cockpit/pkg/domain"
	dErrors "cockpit/pkg/domain-errors"
	"cockpit/pkg/platform/httputil"
	"cockpit/pkg/requestcontext"
)

// Service defines the givve operations exposed over HTTP.
type Service interface {
	Start(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error)
	MarkSubmitted(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error)
	GetStatus(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error)
	RecordMilestones(ctx context.Context, subsidiaryID id.SubsidiaryID, actor string, update models.MilestoneUpdate) (*models.Progress, error)
}

// operatorHeader names the back-office operator recorded in the audit trail.
const operatorHeader = "X-Operator"

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the subsidiary-facing routes. The router must already authenticate the caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/subsidiaries/{id}/givve", h.HandleStart)
	r.Get("/subsidiaries/{id}/givve", h.HandleGetStatus)
	r.Post("/subsidiaries/{id}/givve/submit", h.HandleMarkSubmitted)
}

// RegisterAdmin mounts the back-office routes. The router must already check the admin token.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Put("/admin/subsidiaries/{id}/givve/milestones", h.HandleRecordMilestones)
}

func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "start", http.StatusCreated, h.service.Start)
}

func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "get_status", http.StatusOK, h.service.GetStatus)
}

// HandleMarkSubmitted answers a repeated submission with 409 already_submitted, which the
// cockpit shows as a notice rather than an error.
func (h *Handler) HandleMarkSubmitted(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "mark_submitted", http.StatusOK, h.service.MarkSubmitted)
}

func (h *Handler) HandleRecordMilestones(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[MilestonesRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	actor := strings.TrimSpace(r.Header.Get(operatorHeader))
	if actor == "" {
		actor = "back-office"
	}
	h.run(w, r, "record_milestones", http.StatusOK, func(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error) {
		return h.service.RecordMilestones(ctx, subsidiaryID, actor, req.MilestoneUpdate)
	})
}

func (h *Handler) run(
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	status int,
	fn func(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error),
) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	subsidiaryID, err := id.ParseSubsidiaryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	progress, err := fn(ctx, subsidiaryID)
	if err != nil {
		args := []any{
			"operation", operation,
			"subsidiary_id", subsidiaryID,
			"request_id", requestID,
			"error", err,
		}
		switch dErrors.CodeOf(err) {
		case dErrors.CodePersistence, dErrors.CodeInternal:
			h.logger.ErrorContext(ctx, "givve request failed", args...)
		default:
			h.logger.WarnContext(ctx, "givve request rejected", args...)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, status, toStatusResponse(progress))
}

// MilestonesRequest is the back-office milestone update.
type MilestonesRequest struct {
	models.MilestoneUpdate
}

func (r *MilestonesRequest) Validate() error {
	if r.IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "at least one milestone field is required")
	}
	return nil
}

type StatusResponse struct {
	SubsidiaryID                 string     `json:"subsidiary_id"`
	Started                      bool       `json:"started"`
	Completed                    bool       `json:"completed"`
	Status                       string     `json:"status"`
	VideoIdentificationLink      *string    `json:"video_identification_link,omitempty"`
	VideoIdentificationCompleted bool       `json:"video_identification_completed"`
	InitialInvoiceReceived       bool       `json:"initial_invoice_received"`
	InitialInvoicePaid           bool       `json:"initial_invoice_paid"`
	SubmittedAt                  *time.Time `json:"submitted_at,omitempty"`
}

func toStatusResponse(p *models.Progress) StatusResponse {
	return StatusResponse{
		SubsidiaryID:                 p.SubsidiaryID.String(),
		Started:                      p.Started(),
		Completed:                    p.Completed,
		Status:                       p.Status,
		VideoIdentificationLink:      p.VideoIdentificationLink,
		VideoIdentificationCompleted: p.VideoIdentificationCompleted,
		InitialInvoiceReceived:       p.InitialInvoiceReceived,
		InitialInvoicePaid:           p.InitialInvoicePaid,
		SubmittedAt:                  p.SubmittedAt,
	}
}
