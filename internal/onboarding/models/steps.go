package models

import (
	"strings"

	dErrors "cockpit/pkg/domain-errors"
)

// Step names one page of the onboarding wizard. The set is closed and ordered.
type Step string

const (
	StepGesellschaft    Step = "gesellschaft"
	StepStandorte       Step = "standorte"
	StepLohnabrechnung  Step = "lohnabrechnung"
	StepBuchhaltung     Step = "buchhaltung"
	StepAnsprechpartner Step = "ansprechpartner"
	StepGivveCard       Step = "givve_card"
	StepReview          Step = "review"
)

// orderedSteps holds the wizard order; rank is index+1.
var orderedSteps = [...]Step{
	StepGesellschaft,
	StepStandorte,
	StepLohnabrechnung,
	StepBuchhaltung,
	StepAnsprechpartner,
	StepGivveCard,
	StepReview,
}

var displayNames = map[Step]string{
	StepGesellschaft:    "Gesellschaft",
	StepStandorte:       "Standorte",
	StepLohnabrechnung:  "Lohnabrechnung",
	StepBuchhaltung:     "Buchhaltung",
	StepAnsprechpartner: "Ansprechpartner",
	StepGivveCard:       "Givve-Card",
	StepReview:          "Review",
}

// Total returns the number of steps. Always greater than zero.
func Total() int {
	return len(orderedSteps)
}

// Steps returns the steps in wizard order.
func Steps() []Step {
	out := make([]Step, len(orderedSteps))
	copy(out, orderedSteps[:])
	return out
}

// RankOf returns the 1-based position of step, or 0 for unknown steps.
func RankOf(step Step) int {
	for i, s := range orderedSteps {
		if s == step {
			return i + 1
		}
	}
	return 0
}

// NameOf returns the step at rank, or "" when rank is outside 1..Total().
func NameOf(rank int) Step {
	if rank < 1 || rank > len(orderedSteps) {
		return ""
	}
	return orderedSteps[rank-1]
}

// ParseStep maps untrusted input onto a known step.
func ParseStep(s string) (Step, error) {
	step := Step(strings.ToLower(strings.TrimSpace(s)))
	if RankOf(step) == 0 {
		return "", dErrors.New(dErrors.CodeInvalidTransition, "unknown onboarding step: "+s)
	}
	return step, nil
}

func (s Step) IsValid() bool {
	return RankOf(s) != 0
}

// DisplayName is the label shown in the wizard navigation.
func (s Step) DisplayName() string {
	return displayNames[s]
}

func (s Step) String() string {
	return string(s)
}
