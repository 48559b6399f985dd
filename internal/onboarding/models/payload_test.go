package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cockpit/pkg/domain-errors"
)

func TestDecodePayload(t *testing.T) {
	t.Run("decodes into the step schema", func(t *testing.T) {
		payload, err := DecodePayload(StepLohnabrechnung, json.RawMessage(`{"payroll_start_month":"2026-04","employee_count":12,"pay_day":25}`))
		require.NoError(t, err)
		assert.Equal(t, &Lohnabrechnung{PayrollStartMonth: "2026-04", EmployeeCount: 12, PayDay: 25}, payload)
		assert.Equal(t, StepLohnabrechnung, payload.Step())
	})

	tests := []struct {
		name    string
		step    Step
		raw     string
		message string
	}{
		{"missing payload", StepGesellschaft, ``, "payload is required"},
		{"null payload", StepGesellschaft, `null`, "payload is required"},
		{"malformed json", StepGesellschaft, `{"company_name":`, "malformed payload"},
		{"unknown field", StepReview, `{"confirmed":true,"extra":1}`, "malformed payload"},
		{"wrong field type", StepLohnabrechnung, `{"employee_count":"many"}`, "malformed payload"},
		{"missing required field", StepGesellschaft, `{"company_name":"A","legal_form":"GmbH","street":"B","postal_code":"12345"}`, "city is required"},
		{"bad postal code", StepGesellschaft, `{"company_name":"A","legal_form":"GmbH","street":"B","city":"C","postal_code":"123"}`, "postal_code"},
		{"half register entry", StepGesellschaft, `{"company_name":"A","legal_form":"GmbH","street":"B","city":"C","postal_code":"12345","register_court":"AG"}`, "register_number"},
		{"no locations", StepStandorte, `{"locations":[]}`, "at least one location"},
		{"duplicate locations", StepStandorte, `{"locations":[{"name":"A","street":"S","postal_code":"12345","city":"C"},{"name":"a","street":"S","postal_code":"12345","city":"C"}]}`, "unique"},
		{"bad payroll month", StepLohnabrechnung, `{"payroll_start_month":"01/2026","employee_count":1,"pay_day":1}`, "YYYY-MM"},
		{"pay day out of range", StepLohnabrechnung, `{"payroll_start_month":"2026-01","employee_count":1,"pay_day":32}`, "pay_day"},
		{"non numeric datev number", StepBuchhaltung, `{"accounting_system":"DATEV","datev_client_number":"12a"}`, "digits only"},
		{"bad contact email", StepAnsprechpartner, `{"contacts":[{"name":"Max","email":"max-at-example"}]}`, "email"},
		{"cards wanted without count", StepGivveCard, `{"wanted":true,"card_count":0}`, "card_count"},
		{"review not confirmed", StepReview, `{"confirmed":false}`, "confirmed"},
		{"unknown step", Step("steuern"), `{}`, "unknown onboarding step"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePayload(tt.step, json.RawMessage(tt.raw))
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
			assert.Contains(t, dErrors.MessageOf(err), tt.message)
		})
	}
}

func TestStepDataUnmarshalToleratesUnknownFields(t *testing.T) {
	var data StepData
	err := json.Unmarshal([]byte(`{"review":{"confirmed":true,"legacy":"x"}}`), &data)
	require.NoError(t, err)
	assert.Equal(t, &Review{Confirmed: true}, data[StepReview])
}

func TestStepDataUnmarshalRejectsUnknownSteps(t *testing.T) {
	var data StepData
	err := json.Unmarshal([]byte(`{"steuern":{}}`), &data)
	require.Error(t, err)
}
