// Package service implements the onboarding progress controller: it authorizes the caller
// for the subsidiary, applies step transitions to the aggregate and persists the result.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cockpit/internal/onboarding/metrics"
	"cockpit/internal/onboarding/models"
	id "cockpit/pkg/domain"
	dErrors "cockpit/pkg/domain-errors"
	"cockpit/pkg/platform/audit"
	"cockpit/pkg/platform/sentinel"
	"cockpit/pkg/requestcontext"
)

// Store persists one progress record per subsidiary.
type Store interface {
	// FindBySubsidiary returns sentinel.ErrNotFound when no record exists.
	FindBySubsidiary(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error)
	// CreateIfAbsent inserts progress unless a record exists, and returns the stored record.
	CreateIfAbsent(ctx context.Context, progress *models.Progress) (stored *models.Progress, created bool, err error)
	// Save upserts the full record in a single write.
	Save(ctx context.Context, progress *models.Progress) error
}

// AccessResolver decides whether a user may work on a subsidiary.
// It returns a CodeUnauthorized error when access is denied.
type AccessResolver interface {
	Authorize(ctx context.Context, userID id.UserID, subsidiaryID id.SubsidiaryID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the onboarding progress controller.
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
		tracer: otel.Tracer("cockpit/onboarding"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize creates the default record for subsidiaryID. An existing record is returned
// unchanged, so calling it again when onboarding is reopened is safe.
func (s *Service) Initialize(ctx context.Context, subsidiaryID id.SubsidiaryID) (progress *models.Progress, err error) {
	ctx, span := s.startSpan(ctx, "onboarding.Initialize", subsidiaryID)
	defer func() { endSpan(span, err) }()
	defer s.observe("initialize", time.Now())

	if err := s.authorize(ctx, subsidiaryID); err != nil {
		return nil, err
	}

	stored, created, err := s.store.CreateIfAbsent(ctx, models.NewProgress(subsidiaryID, requestcontext.Now(ctx)))
	if err != nil {
		return nil, classifyStoreError(err, "failed to initialize onboarding progress")
	}
	if created {
		s.logAudit(ctx, audit.EventOnboardingInitialized, subsidiaryID, nil)
	}
	return stored, nil
}

// Load returns the stored record, or an unpersisted default when onboarding has not started.
func (s *Service) Load(ctx context.Context, subsidiaryID id.SubsidiaryID) (progress *models.Progress, err error) {
	ctx, span := s.startSpan(ctx, "onboarding.Load", subsidiaryID)
	defer func() { endSpan(span, err) }()
	defer s.observe("load", time.Now())

	if err := s.authorize(ctx, subsidiaryID); err != nil {
		return nil, err
	}
	return s.loadOrDefault(ctx, subsidiaryID)
}

// Advance submits the payload for stepName. The step must be the current one and the
// payload must satisfy the step's schema; otherwise nothing is written. Submitting the
// last step completes the onboarding.
func (s *Service) Advance(ctx context.Context, subsidiaryID id.SubsidiaryID, stepName string, payload json.RawMessage) (progress *models.Progress, err error) {
	ctx, span := s.startSpan(ctx, "onboarding.Advance", subsidiaryID)
	span.SetAttributes(attribute.String("onboarding.step", stepName))
	defer func() { endSpan(span, err) }()
	defer s.observe("advance", time.Now())

	if err := s.authorize(ctx, subsidiaryID); err != nil {
		return nil, err
	}

	progress, err = s.loadOrDefault(ctx, subsidiaryID)
	if err != nil {
		return nil, err
	}

	step, err := models.ParseStep(stepName)
	if err != nil {
		return nil, s.reject(ctx, subsidiaryID, err)
	}
	if err := progress.CanAdvance(step); err != nil {
		return nil, s.reject(ctx, subsidiaryID, err)
	}
	decoded, err := models.DecodePayload(step, payload)
	if err != nil {
		return nil, s.reject(ctx, subsidiaryID, err)
	}

	progress.ApplyAdvance(decoded, requestcontext.Now(ctx))
	if err := s.store.Save(ctx, progress); err != nil {
		return nil, classifyStoreError(err, "failed to save onboarding progress")
	}

	if s.metrics != nil {
		s.metrics.IncrementStepAdvanced(string(step))
	}
	s.logAudit(ctx, audit.EventOnboardingAdvanced, subsidiaryID, map[string]string{
		"step":         string(step),
		"current_step": strconv.Itoa(progress.CurrentStep),
	})
	if progress.Completed {
		if s.metrics != nil {
			s.metrics.IncrementCompleted()
		}
		s.logAudit(ctx, audit.EventOnboardingCompleted, subsidiaryID, nil)
	}
	return progress, nil
}

// Retreat moves back one step, never below the first, and clears completed.
// It always writes, also when already on the first step.
func (s *Service) Retreat(ctx context.Context, subsidiaryID id.SubsidiaryID) (progress *models.Progress, err error) {
	ctx, span := s.startSpan(ctx, "onboarding.Retreat", subsidiaryID)
	defer func() { endSpan(span, err) }()
	defer s.observe("retreat", time.Now())

	if err := s.authorize(ctx, subsidiaryID); err != nil {
		return nil, err
	}

	progress, err = s.loadOrDefault(ctx, subsidiaryID)
	if err != nil {
		return nil, err
	}
	progress.ApplyRetreat(requestcontext.Now(ctx))
	if err := s.store.Save(ctx, progress); err != nil {
		return nil, classifyStoreError(err, "failed to save onboarding progress")
	}

	if s.metrics != nil {
		s.metrics.IncrementRetreat()
	}
	s.logAudit(ctx, audit.EventOnboardingRetreated, subsidiaryID, map[string]string{
		"current_step": strconv.Itoa(progress.CurrentStep),
	})
	return progress, nil
}

// PercentComplete is the share of the wizard reached, in whole percent.
func (s *Service) PercentComplete(progress *models.Progress) int {
	return models.PercentComplete(progress)
}

func (s *Service) loadOrDefault(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error) {
	progress, err := s.store.FindBySubsidiary(ctx, subsidiaryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.NewProgress(subsidiaryID, requestcontext.Now(ctx)), nil
		}
		return nil, classifyStoreError(err, "failed to load onboarding progress")
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

func (s *Service) reject(ctx context.Context, subsidiaryID id.SubsidiaryID, err error) error {
	if s.metrics != nil {
		s.metrics.IncrementRejected()
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "onboarding transition rejected",
			"subsidiary_id", subsidiaryID,
			"reason", dErrors.MessageOf(err),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return err
}

// classifyStoreError passes coded errors through and marks everything else as a
// persistence failure the caller may retry.
func classifyStoreError(err error, msg string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodePersistence, msg)
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, subsidiaryID id.SubsidiaryID, detail map[string]string) {
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event),
			"event", string(event),
			"log_type", "audit",
			"subsidiary_id", subsidiaryID,
			"user_id", userID,
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
