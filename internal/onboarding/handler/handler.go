package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cockpit/internal/onboarding/models"
	id "cockpit/pkg/domain"
	dErrors "cockpit/pkg/domain-errors"
	"cockpit/pkg/platform/httputil"
	"cockpit/pkg/requestcontext"
)

// Service defines the onboarding operations exposed over HTTP.
type Service interface {
	Initialize(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error)
	Load(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error)
	Advance(ctx context.Context, subsidiaryID id.SubsidiaryID, stepName string, payload json.RawMessage) (*models.Progress, error)
	Retreat(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error)
	PercentComplete(progress *models.Progress) int
}

// Handler serves the onboarding wizard endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the onboarding routes. The router must already authenticate the caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/subsidiaries/{id}/onboarding", h.HandleInitialize)
	r.Get("/subsidiaries/{id}/onboarding", h.HandleLoad)
	r.Post("/subsidiaries/{id}/onboarding/steps/{step}", h.HandleAdvance)
	r.Post("/subsidiaries/{id}/onboarding/retreat", h.HandleRetreat)
}

func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "initialize", http.StatusCreated, func(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error) {
		return h.service.Initialize(ctx, subsidiaryID)
	})
}

func (h *Handler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "load", http.StatusOK, h.service.Load)
}

func (h *Handler) HandleRetreat(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "retreat", http.StatusOK, h.service.Retreat)
}

func (h *Handler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AdvanceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	step := chi.URLParam(r, "step")
	h.run(w, r, "advance", http.StatusOK, func(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error) {
		return h.service.Advance(ctx, subsidiaryID, step, req.Data)
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
		h.logFailure(ctx, operation, subsidiaryID, requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, status, toProgressResponse(progress, h.service.PercentComplete(progress)))
}

func (h *Handler) logFailure(ctx context.Context, operation string, subsidiaryID id.SubsidiaryID, requestID string, err error) {
	args := []any{
		"operation", operation,
		"subsidiary_id", subsidiaryID,
		"request_id", requestID,
		"error", err,
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodePersistence, dErrors.CodeInternal:
		h.logger.ErrorContext(ctx, "onboarding request failed", args...)
	default:
		h.logger.WarnContext(ctx, "onboarding request rejected", args...)
	}
}

// AdvanceRequest carries the form data of the submitted step.
type AdvanceRequest struct {
	Data json.RawMessage `json:"data"`
}

func (r *AdvanceRequest) Validate() error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return dErrors.New(dErrors.CodeValidation, "data is required")
	}
	return nil
}

// StepResponse describes one wizard step for navigation rendering.
type StepResponse struct {
	Rank        int    `json:"rank"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Done        bool   `json:"done"`
}

type ProgressResponse struct {
	SubsidiaryID    string          `json:"subsidiary_id"`
	CurrentStep     int             `json:"current_step"`
	StepName        string          `json:"step_name"`
	StepDisplayName string          `json:"step_display_name"`
	TotalSteps      int             `json:"total_steps"`
	PercentComplete int             `json:"percent_complete"`
	Completed       bool            `json:"completed"`
	Steps           []StepResponse  `json:"steps"`
	StepData        models.StepData `json:"step_data"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toProgressResponse(p *models.Progress, percent int) ProgressResponse {
	steps := make([]StepResponse, 0, models.Total())
	for _, step := range models.Steps() {
		rank := models.RankOf(step)
		steps = append(steps, StepResponse{
			Rank:        rank,
			Name:        string(step),
			DisplayName: step.DisplayName(),
			Done:        p.Completed || rank < p.CurrentStep,
		})
	}
	data := p.StepData
	if data == nil {
		data = models.StepData{}
	}
	current := p.Current()
	return ProgressResponse{
		SubsidiaryID:    p.SubsidiaryID.String(),
		CurrentStep:     p.CurrentStep,
		StepName:        string(current),
		StepDisplayName: current.DisplayName(),
		TotalSteps:      models.Total(),
		PercentComplete: percent,
		Completed:       p.Completed,
		Steps:           steps,
		StepData:        data,
		UpdatedAt:       p.UpdatedAt,
	}
}
