package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	id "cockpit/pkg/domain"
	audit "cockpit/pkg/platform/audit"
	txcontext "cockpit/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table.
type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) execer(ctx context.Context) sqlx.ExtContext {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

type eventRow struct {
	ID           uuid.UUID  `db:"id"`
	Action       string     `db:"action"`
	UserID       *uuid.UUID `db:"user_id"`
	SubsidiaryID *uuid.UUID `db:"subsidiary_id"`
	RequestID    string     `db:"request_id"`
	Detail       string     `db:"detail"`
	CreatedAt    time.Time  `db:"created_at"`
}

// Append inserts the event. The actor is stored inside detail.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()
	if event.ID != "" {
		parsed, err := uuid.Parse(event.ID)
		if err != nil {
			return fmt.Errorf("parse audit event id: %w", err)
		}
		eventID = parsed
	}

	detail := make(map[string]string, len(event.Detail)+1)
	for k, v := range event.Detail {
		detail[k] = v
	}
	if event.ActorID != "" {
		detail["actor_id"] = event.ActorID
	}
	detailBytes, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal audit detail: %w", err)
	}

	row := eventRow{
		ID:        eventID,
		Action:    event.Action,
		RequestID: event.RequestID,
		Detail:    string(detailBytes),
		CreatedAt: event.Timestamp,
	}
	if !event.UserID.IsNil() {
		u := uuid.UUID(event.UserID)
		row.UserID = &u
	}
	if !event.SubsidiaryID.IsNil() {
		u := uuid.UUID(event.SubsidiaryID)
		row.SubsidiaryID = &u
	}

	query := `
		INSERT INTO audit_events (id, action, user_id, subsidiary_id, request_id, detail, created_at)
		VALUES (:id, :action, :user_id, :subsidiary_id, :request_id, :detail, :created_at)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := sqlx.NamedExecContext(ctx, s.execer(ctx), query, row); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubsidiary returns events oldest first.
func (s *Store) ListBySubsidiary(ctx context.Context, subsidiaryID id.SubsidiaryID) ([]audit.Event, error) {
	query := `
		SELECT id, action, user_id, subsidiary_id, request_id, detail, created_at
		FROM audit_events
		WHERE subsidiary_id = $1
		ORDER BY created_at ASC
	`
	var rows []eventRow
	if err := sqlx.SelectContext(ctx, s.execer(ctx), &rows, query, uuid.UUID(subsidiaryID)); err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}

	events := make([]audit.Event, 0, len(rows))
	for _, r := range rows {
		event := audit.Event{
			ID:        r.ID.String(),
			Category:  audit.AuditEvent(r.Action).Category(),
			Timestamp: r.CreatedAt,
			Action:    r.Action,
			RequestID: r.RequestID,
		}
		if r.UserID != nil {
			event.UserID = id.UserID(*r.UserID)
		}
		if r.SubsidiaryID != nil {
			event.SubsidiaryID = id.SubsidiaryID(*r.SubsidiaryID)
		}
		if len(r.Detail) > 0 {
			if err := json.Unmarshal([]byte(r.Detail), &event.Detail); err != nil {
				return nil, fmt.Errorf("decode audit detail: %w", err)
			}
			if actor, ok := event.Detail["actor_id"]; ok {
				event.ActorID = actor
				delete(event.Detail, "actor_id")
			}
		}
		events = append(events, event)
	}
	return events, nil
}
