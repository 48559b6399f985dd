// Package models holds the givve card onboarding record and its transitions.
package models

import (
	"strings"
	"time"

	id "cockpit/pkg/domain"
	dErrors "cockpit/pkg/domain-errors"
)

// Human-readable status texts shown in the cockpit banner.
const (
	StatusNotStarted       = "Nicht gestartet"
	StatusDocumentsPending = "Dokumente ausstehend"
	StatusSubmitted        = "Unterlagen eingereicht"
)

// Progress is the givve card sub-flow record of one subsidiary. It is independent of the
// main onboarding wizard.
//
// Milestones (video identification, initial invoice) are set by the back office only and
// never go from true back to false.
type Progress struct {
	SubsidiaryID                 id.SubsidiaryID `json:"subsidiary_id"`
	Completed                    bool            `json:"completed"`
	Status                       string          `json:"status"`
	VideoIdentificationLink      *string         `json:"video_identification_link,omitempty"`
	VideoIdentificationCompleted bool            `json:"video_identification_completed"`
	InitialInvoiceReceived       bool            `json:"initial_invoice_received"`
	InitialInvoicePaid           bool            `json:"initial_invoice_paid"`
	SubmittedAt                  *time.Time      `json:"submitted_at,omitempty"`
	CreatedAt                    time.Time       `json:"created_at"`
	UpdatedAt                    time.Time       `json:"updated_at"`
}

// NewProgress returns the record written when the card flow starts.
func NewProgress(subsidiaryID id.SubsidiaryID, now time.Time) *Progress {
	return &Progress{
		SubsidiaryID: subsidiaryID,
		Status:       StatusDocumentsPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NotStarted is the snapshot reported for a subsidiary without a record. It is never stored.
func NotStarted(subsidiaryID id.SubsidiaryID) *Progress {
	return &Progress{SubsidiaryID: subsidiaryID, Status: StatusNotStarted}
}

// Started reports whether the record exists in the store.
func (p *Progress) Started() bool {
	return !p.CreatedAt.IsZero()
}

// MarkSubmitted completes the document submission. A second submission is rejected
// rather than treated as success. Milestones are left as they are.
func (p *Progress) MarkSubmitted(now time.Time) error {
	if p.Completed {
		return dErrors.New(dErrors.CodeAlreadySubmitted, "givve documents have already been submitted")
	}
	p.Completed = true
	p.Status = StatusSubmitted
	submitted := now
	p.SubmittedAt = &submitted
	p.UpdatedAt = now
	return nil
}

// MilestoneUpdate carries the fields the back office may set. Nil fields are left unchanged.
type MilestoneUpdate struct {
	Status                       *string `json:"status,omitempty"`
	VideoIdentificationLink      *string `json:"video_identification_link,omitempty"`
	VideoIdentificationCompleted *bool   `json:"video_identification_completed,omitempty"`
	InitialInvoiceReceived       *bool   `json:"initial_invoice_received,omitempty"`
	InitialInvoicePaid           *bool   `json:"initial_invoice_paid,omitempty"`
}

// IsEmpty reports whether the update sets nothing.
func (u MilestoneUpdate) IsEmpty() bool {
	return u.Status == nil && u.VideoIdentificationLink == nil &&
		u.VideoIdentificationCompleted == nil && u.InitialInvoiceReceived == nil && u.InitialInvoicePaid == nil
}

// ApplyMilestones writes u onto the record. Resetting a reached milestone is an invalid
// transition and leaves the record untouched.
func (p *Progress) ApplyMilestones(u MilestoneUpdate, now time.Time) error {
	if err := checkMonotonic("video_identification_completed", p.VideoIdentificationCompleted, u.VideoIdentificationCompleted); err != nil {
		return err
	}
	if err := checkMonotonic("initial_invoice_received", p.InitialInvoiceReceived, u.InitialInvoiceReceived); err != nil {
		return err
	}
	if err := checkMonotonic("initial_invoice_paid", p.InitialInvoicePaid, u.InitialInvoicePaid); err != nil {
		return err
	}
	if u.InitialInvoicePaid != nil && *u.InitialInvoicePaid && !p.InitialInvoiceReceived &&
		(u.InitialInvoiceReceived == nil || !*u.InitialInvoiceReceived) {
		return dErrors.New(dErrors.CodeInvalidTransition, "initial invoice cannot be paid before it was received")
	}

	if u.Status != nil {
		p.Status = strings.TrimSpace(*u.Status)
	}
	if u.VideoIdentificationLink != nil {
		link := strings.TrimSpace(*u.VideoIdentificationLink)
		if link == "" {
			p.VideoIdentificationLink = nil
		} else {
			p.VideoIdentificationLink = &link
		}
	}
	if u.VideoIdentificationCompleted != nil {
		p.VideoIdentificationCompleted = *u.VideoIdentificationCompleted
	}
	if u.InitialInvoiceReceived != nil {
		p.InitialInvoiceReceived = *u.InitialInvoiceReceived
	}
	if u.InitialInvoicePaid != nil {
		p.InitialInvoicePaid = *u.InitialInvoicePaid
	}
	p.UpdatedAt = now
	return nil
}

func checkMonotonic(field string, current bool, next *bool) error {
	if current && next != nil && !*next {
		return dErrors.New(dErrors.CodeInvalidTransition, field+" cannot be reset once reached")
	}
	return nil
}

// Clone returns a deep copy.
func (p *Progress) Clone() *Progress {
	if p == nil {
		return nil
	}
	c := *p
	if p.VideoIdentificationLink != nil {
		link := *p.VideoIdentificationLink
		c.VideoIdentificationLink = &link
	}
	if p.SubmittedAt != nil {
		at := *p.SubmittedAt
		c.SubmittedAt = &at
	}
	return &c
}
