// Package onboardingtest provides valid step payloads for tests across the onboarding packages.
package onboardingtest

import (
	"encoding/json"
	"time"

	"cockpit/internal/onboarding/models"
	id "cockpit/pkg/domain"
)

// Payload returns a valid payload for step.
func Payload(step models.Step) models.StepPayload {
	switch step {
	case models.StepGesellschaft:
		return &models.Gesellschaft{
			CompanyName:    "Muster Logistik GmbH",
			LegalForm:      "GmbH",
			Street:         "Hafenstraße 12",
			PostalCode:     "20457",
			City:           "Hamburg",
			RegisterCourt:  "Amtsgericht Hamburg",
			RegisterNumber: "HRB 123456",
		}
	case models.StepStandorte:
		return &models.Standorte{Locations: []models.Location{
			{Name: "Zentrale", Street: "Hafenstraße 12", PostalCode: "20457", City: "Hamburg", EmployeeCount: 40},
			{Name: "Lager Süd", Street: "Industrieweg 3", PostalCode: "80331", City: "München", EmployeeCount: 12},
		}}
	case models.StepLohnabrechnung:
		return &models.Lohnabrechnung{PayrollStartMonth: "2026-01", EmployeeCount: 52, PayDay: 28}
	case models.StepBuchhaltung:
		return &models.Buchhaltung{AccountingSystem: "DATEV", TaxAdvisor: "Kanzlei Schmidt", DatevConsultantNumber: "1234567", DatevClientNumber: "10001"}
	case models.StepAnsprechpartner:
		return &models.Ansprechpartner{Contacts: []models.Contact{
			{Name: "Erika Mustermann", Email: "erika@muster-logistik.de", Role: "HR"},
		}}
	case models.StepGivveCard:
		return &models.GivveCard{Wanted: true, CardCount: 25, MonthlyBenefitCents: 5000}
	case models.StepReview:
		return &models.Review{Confirmed: true}
	default:
		return nil
	}
}

// RawPayload returns Payload(step) encoded as JSON.
func RawPayload(step models.Step) json.RawMessage {
	b, err := json.Marshal(Payload(step))
	if err != nil {
		panic(err)
	}
	return b
}

// ProgressAt returns a record positioned on rank with payloads for every earlier step.
// A rank past the last step yields a completed record.
func ProgressAt(subsidiaryID id.SubsidiaryID, rank int, now time.Time) *models.Progress {
	p := models.NewProgress(subsidiaryID, now)
	for r := 1; r < rank && !p.Completed; r++ {
		p.ApplyAdvance(Payload(models.NameOf(r)), now)
	}
	return p
}
