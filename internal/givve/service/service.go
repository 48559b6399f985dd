// Package service implements the givve card sub-flow controller.
//
// The subsidiary side can start the flow, submit its documents once and read the
// milestone snapshot. Milestones are recorded by the back office only.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cockpit/internal/givve/metrics"
	"cockpit/internal/givve/models"
	id "cockpit/pkg/domain"
	dErrors "cockpit/pkg/domain-errors"
	"cockpit/pkg/platform/audit"
	"cockpit/pkg/platform/sentinel"
	"cockpit/pkg/requestcontext"
)

// Store persists one givve record per subsidiary.
type Store interface {
	// FindBySubsidiary returns sentinel.ErrNotFound when no record exists.
	FindBySubsidiary(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error)
	CreateIfAbsent(ctx context.Context, progress *models.Progress) (stored *models.Progress, created bool, err error)
	// Update applies fn to the stored record, or to seed when none exists, and writes the
	// result atomically. Nothing is written when fn returns an error.
	Update(ctx context.Context, seed *models.Progress, fn func(p *models.Progress) error) (*models.Progress, error)
}

type AccessResolver interface {
	Authorize(ctx context.Context, userID id.UserID, subsidiaryID id.SubsidiaryID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	access         AccessResolver
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(store Store, access AccessResolver, opts ...Option) *Service {
	s := &Service{
		store:  store,
		access: access,
		tracer: otel.Tracer("cockpit/givve"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the record with status "Dokumente ausstehend". Starting an existing flow
// returns it unchanged.
func (s *Service) Start(ctx context.Context, subsidiaryID id.SubsidiaryID) (progress *models.Progress, err error) {
	ctx, span := s.startSpan(ctx, "givve.Start", subsidiaryID)
	defer func() { endSpan(span, err) }()
	defer s.observe("start", time.Now())

	if err := s.authorize(ctx, subsidiaryID); err != nil {
		return nil, err
	}
	stored, created, err := s.store.CreateIfAbsent(ctx, models.NewProgress(subsidiaryID, requestcontext.Now(ctx)))
	if err != nil {
		return nil, classifyStoreError(err, "failed to start givve onboarding")
	}
	if created {
		if s.metrics != nil {
			s.metrics.IncrementStarted()
		}
		s.logAudit(ctx, audit.EventGivveStarted, subsidiaryID, "", nil)
	}
	return stored, nil
}

// MarkSubmitted completes the document submission. A repeated submission fails with
// CodeAlreadySubmitted. A subsidiary that never started the flow gets its record created
// and submitted in the same write.
func (s *Service) MarkSubmitted(ctx context.Context, subsidiaryID id.SubsidiaryID) (progress *models.Progress, err error) {
	ctx, span := s.startSpan(ctx, "givve.MarkSubmitted", subsidiaryID)
	defer func() { endSpan(span, err) }()
	defer s.observe("mark_submitted", time.Now())

	if err := s.authorize(ctx, subsidiaryID); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	progress, err = s.store.Update(ctx, models.NewProgress(subsidiaryID, now), func(p *models.Progress) error {
		return p.MarkSubmitted(now)
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeAlreadySubmitted) {
			if s.metrics != nil {
				s.metrics.IncrementSubmissionRejected()
			}
			if s.logger != nil {
				s.logger.InfoContext(ctx, "givve submission repeated",
					"subsidiary_id", subsidiaryID,
					"request_id", requestcontext.RequestID(ctx),
				)
			}
			return nil, err
		}
		return nil, classifyStoreError(err, "failed to submit givve documents")
	}

	if s.metrics != nil {
		s.metrics.IncrementSubmitted()
	}
	s.logAudit(ctx, audit.EventGivveSubmitted, subsidiaryID, "", nil)
	return progress, nil
}

// GetStatus returns the milestone snapshot. A subsidiary without a record gets a
// not-started snapshot; nothing is written.
func (s *Service) GetStatus(ctx context.Context, subsidiaryID id.SubsidiaryID) (progress *models.Progress, err error) {
	ctx, span := s.startSpan(ctx, "givve.GetStatus", subsidiaryID)
	defer func() { endSpan(span, err) }()
	defer s.observe("get_status", time.Now())

	if err := s.authorize(ctx, subsidiaryID); err != nil {
		return nil, err
	}
	return s.status(ctx, subsidiaryID)
}

// Snapshot is GetStatus for callers that already authorized the subsidiary.
func (s *Service) Snapshot(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error) {
	return s.status(ctx, subsidiaryID)
}

// RecordMilestones applies a back-office update. It is reachable only through the
// admin-token protected routes, so no subsidiary membership is checked; actor names the
// operator for the audit trail. Resetting a reached milestone fails with
// CodeInvalidTransition.
func (s *Service) RecordMilestones(ctx context.Context, subsidiaryID id.SubsidiaryID, actor string, update models.MilestoneUpdate) (progress *models.Progress, err error) {
	ctx, span := s.startSpan(ctx, "givve.RecordMilestones", subsidiaryID)
	defer func() { endSpan(span, err) }()
	defer s.observe("record_milestones", time.Now())

	if subsidiaryID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "subsidiary_id is required")
	}
	if update.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "milestone update sets no fields")
	}

	var reached []string
	now := requestcontext.Now(ctx)
	progress, err = s.store.Update(ctx, models.NewProgress(subsidiaryID, now), func(p *models.Progress) error {
		before := *p
		if err := p.ApplyMilestones(update, now); err != nil {
			return err
		}
		reached = newlyReached(&before, p)
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidTransition) {
			if s.logger != nil {
				s.logger.WarnContext(ctx, "givve milestone reset rejected",
					"subsidiary_id", subsidiaryID,
					"actor", actor,
					"reason", dErrors.MessageOf(err),
					"request_id", requestcontext.RequestID(ctx),
				)
			}
			return nil, err
		}
		return nil, classifyStoreError(err, "failed to record givve milestones")
	}

	detail := map[string]string{"status": progress.Status}
	for _, m := range reached {
		detail[m] = "true"
		if s.metrics != nil {
			s.metrics.IncrementMilestone(m)
		}
	}
	s.logAudit(ctx, audit.EventGivveMilestonesUpdated, subsidiaryID, actor, detail)
	return progress, nil
}

func newlyReached(before, after *models.Progress) []string {
	var reached []string
	if !before.VideoIdentificationCompleted && after.VideoIdentificationCompleted {
		reached = append(reached, "video_identification_completed")
	}
	if !before.InitialInvoiceReceived && after.InitialInvoiceReceived {
		reached = append(reached, "initial_invoice_received")
	}
	if !before.InitialInvoicePaid && after.InitialInvoicePaid {
		reached = append(reached, "initial_invoice_paid")
	}
	return reached
}

func (s *Service) status(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error) {
	progress, err := s.store.FindBySubsidiary(ctx, subsidiaryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.NotStarted(subsidiaryID), nil
		}
		return nil, classifyStoreError(err, "failed to load givve status")
	}
	return progress, nil
}

func (s *Service) authorize(ctx context.Context, subsidiaryID id.SubsidiaryID) error {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "no authenticated user")
	}
	if err := s.access.Authorize(ctx, userID, subsidiaryID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return err
		}
		return classifyStoreError(err, "failed to resolve subsidiary access")
	}
	return nil
}

func classifyStoreError(err error, msg string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodePersistence, msg)
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, subsidiaryID id.SubsidiaryID, actor string, detail map[string]string) {
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event),
			"event", string(event),
			"log_type", "audit",
			"subsidiary_id", subsidiaryID,
			"user_id", userID,
			"actor", actor,
			"request_id", requestID,
		)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Timestamp:    requestcontext.Now(ctx),
		UserID:       userID,
		SubsidiaryID: subsidiaryID,
		Action:       string(event),
		RequestID:    requestID,
		ActorID:      actor,
		Detail:       detail,
	})
}

func (s *Service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, start)
	}
}

func (s *Service) startSpan(ctx context.Context, name string, subsidiaryID id.SubsidiaryID) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("subsidiary_id", subsidiaryID.String()),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
