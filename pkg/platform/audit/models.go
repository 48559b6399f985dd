// Package audit records who changed onboarding state and when.
//
// Services emit events through a Publisher; the publisher logs every event and appends it
// to a Store. Audit is best effort: a failed append is logged and never fails the
// business operation that produced it.
package audit

import (
	"context"
	"time"

	id "cockpit/pkg/domain"
)

// EventCategory classifies audit events for retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers changes to a subsidiary's onboarding record.
	CategoryCompliance EventCategory = "compliance"
	// CategorySecurity covers sign-outs and rejected access.
	CategorySecurity EventCategory = "security"
	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions.
type Event struct {
	ID           string
	Category     EventCategory
	Timestamp    time.Time
	UserID       id.UserID
	SubsidiaryID id.SubsidiaryID
	Action       string
	RequestID    string
	// ActorID is set when an operator acts on behalf of a subsidiary, e.g. the back office.
	ActorID string
	Detail  map[string]string
}

type AuditEvent string

const (
	// Onboarding events
	EventOnboardingInitialized AuditEvent = "onboarding_initialized"
	EventOnboardingAdvanced    AuditEvent = "onboarding_step_advanced"
	EventOnboardingCompleted   AuditEvent = "onboarding_completed"
	EventOnboardingRetreated   AuditEvent = "onboarding_retreated"

	// Givve card events
	EventGivveStarted           AuditEvent = "givve_started"
	EventGivveSubmitted         AuditEvent = "givve_submitted"
	EventGivveMilestonesUpdated AuditEvent = "givve_milestones_recorded"

	// Session events
	EventSignedOut    AuditEvent = "signed_out"
	EventAccessDenied AuditEvent = "access_denied"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventOnboardingInitialized:  CategoryCompliance,
	EventOnboardingAdvanced:     CategoryCompliance,
	EventOnboardingCompleted:    CategoryCompliance,
	EventOnboardingRetreated:    CategoryCompliance,
	EventGivveStarted:           CategoryCompliance,
	EventGivveSubmitted:         CategoryCompliance,
	EventGivveMilestonesUpdated: CategoryCompliance,

	EventSignedOut:    CategorySecurity,
	EventAccessDenied: CategorySecurity,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubsidiary(ctx context.Context, subsidiaryID id.SubsidiaryID) ([]Event, error)
}
