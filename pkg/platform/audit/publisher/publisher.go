package publisher

import (
	"context"
	"log/slog"
	"time"

	id "cockpit/pkg/domain"
	audit "cockpit/pkg/platform/audit"
)

// Publisher logs audit events and appends them to a store.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit fills in timestamp, category and ID defaults, logs the event and appends it.
// The store error is returned so callers may log it; callers do not fail on it.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.logger != nil {
		p.logger.InfoContext(ctx, event.Action,
			"log_type", "audit",
			"category", event.Category,
			"user_id", event.UserID,
			"subsidiary_id", event.SubsidiaryID,
			"request_id", event.RequestID,
		)
	}
	if p.store == nil {
		return nil
	}
	if err := p.store.Append(ctx, event); err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "failed to persist audit event",
				"action", event.Action,
				"request_id", event.RequestID,
				"error", err,
			)
		}
		return err
	}
	return nil
}

// List returns the audit trail of one subsidiary.
func (p *Publisher) List(ctx context.Context, subsidiaryID id.SubsidiaryID) ([]audit.Event, error) {
	return p.store.ListBySubsidiary(ctx, subsidiaryID)
}
