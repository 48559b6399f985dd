package models

import (
	"fmt"
	"math"
	"time"

	id "cockpit/pkg/domain"
	dErrors "cockpit/pkg/domain-errors"
)

// Progress is the onboarding aggregate for one subsidiary.
//
// Invariants:
//   - 1 <= CurrentStep <= Total()
//   - Completed implies CurrentStep == Total() and a payload for every step
//   - every StepData entry is keyed by the step its payload belongs to
type Progress struct {
	SubsidiaryID id.SubsidiaryID `json:"subsidiary_id"`
	CurrentStep  int             `json:"current_step"`
	Completed    bool            `json:"completed"`
	StepData     StepData        `json:"step_data"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewProgress returns the default record for a subsidiary that has not started.
func NewProgress(subsidiaryID id.SubsidiaryID, now time.Time) *Progress {
	return &Progress{
		SubsidiaryID: subsidiaryID,
		CurrentStep:  1,
		StepData:     StepData{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Current is the step the user is expected to submit next.
func (p *Progress) Current() Step {
	return NameOf(p.CurrentStep)
}

// CanAdvance checks that step is the current step of an unfinished onboarding.
// Use with ApplyAdvance in Execute callbacks.
func (p *Progress) CanAdvance(step Step) error {
	if p.Completed {
		return dErrors.New(dErrors.CodeInvalidTransition, "onboarding is already completed")
	}
	if !step.IsValid() {
		return dErrors.New(dErrors.CodeInvalidTransition, "unknown onboarding step: "+string(step))
	}
	if RankOf(step) != p.CurrentStep {
		return dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("step %s cannot be submitted while on step %s", step, p.Current()))
	}
	return nil
}

// ApplyAdvance stores payload under its step and moves to the next step.
// Passing the last step marks the onboarding completed and keeps CurrentStep at Total().
// Call CanAdvance first.
func (p *Progress) ApplyAdvance(payload StepPayload, now time.Time) {
	if p.StepData == nil {
		p.StepData = StepData{}
	}
	p.StepData[payload.Step()] = payload
	p.CurrentStep++
	if p.CurrentStep > Total() {
		p.Completed = true
		p.CurrentStep = Total()
	}
	p.UpdatedAt = now
}

// Advance validates and applies an advance in one call.
func (p *Progress) Advance(payload StepPayload, now time.Time) error {
	if err := p.CanAdvance(payload.Step()); err != nil {
		return err
	}
	p.ApplyAdvance(payload, now)
	return nil
}

// ApplyRetreat moves back one step, never below the first, and reopens the onboarding.
// Recorded payloads are kept so the user can edit them.
func (p *Progress) ApplyRetreat(now time.Time) {
	if p.CurrentStep > 1 {
		p.CurrentStep--
	}
	p.Completed = false
	p.UpdatedAt = now
}

// Validate checks the aggregate invariants. Stores call it on rows they read.
func (p *Progress) Validate() error {
	if p.CurrentStep < 1 || p.CurrentStep > Total() {
		return dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("current_step %d outside 1..%d", p.CurrentStep, Total()))
	}
	if p.Completed {
		if p.CurrentStep != Total() {
			return dErrors.New(dErrors.CodeInvariantViolation, "completed onboarding must be on the last step")
		}
		for _, step := range orderedSteps {
			if _, ok := p.StepData[step]; !ok {
				return dErrors.New(dErrors.CodeInvariantViolation, "completed onboarding is missing data for step "+string(step))
			}
		}
	}
	for step, payload := range p.StepData {
		if payload == nil || payload.Step() != step {
			return dErrors.New(dErrors.CodeInvariantViolation, "step data entry does not match its step: "+string(step))
		}
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (p *Progress) Clone() *Progress {
	if p == nil {
		return nil
	}
	c := *p
	c.StepData = p.StepData.Clone()
	return &c
}

// PercentComplete returns round(CurrentStep / Total() * 100), rounding halves away from zero.
func PercentComplete(p *Progress) int {
	return int(math.Round(float64(p.CurrentStep) / float64(Total()) * 100))
}
