package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strings"
	"time"

	dErrors "cockpit/pkg/domain-errors"
)

// StepPayload is the form data collected on one wizard step. The variants are the
// pointer types in this file; the unexported clone method keeps the set closed.
type StepPayload interface {
	Step() Step
	Validate() error
	clone() StepPayload
}

var (
	postalCodePattern = regexp.MustCompile(`^[0-9]{5}$`)
	digitsPattern     = regexp.MustCompile(`^[0-9]+$`)
)

// Gesellschaft is the legal entity master data.
type Gesellschaft struct {
	CompanyName    string `json:"company_name"`
	LegalForm      string `json:"legal_form"`
	Street         string `json:"street"`
	PostalCode     string `json:"postal_code"`
	City           string `json:"city"`
	RegisterCourt  string `json:"register_court,omitempty"`
	RegisterNumber string `json:"register_number,omitempty"`
	TaxNumber      string `json:"tax_number,omitempty"`
}

func (*Gesellschaft) Step() Step { return StepGesellschaft }

func (p *Gesellschaft) Validate() error {
	if err := required(map[string]string{
		"company_name": p.CompanyName,
		"legal_form":   p.LegalForm,
		"street":       p.Street,
		"city":         p.City,
	}); err != nil {
		return err
	}
	if !postalCodePattern.MatchString(p.PostalCode) {
		return dErrors.New(dErrors.CodeValidation, "postal_code must have 5 digits")
	}
	if (p.RegisterCourt == "") != (p.RegisterNumber == "") {
		return dErrors.New(dErrors.CodeValidation, "register_court and register_number must be given together")
	}
	return nil
}

func (p *Gesellschaft) clone() StepPayload {
	c := *p
	return &c
}

// Location is one site of the subsidiary.
type Location struct {
	Name          string `json:"name"`
	Street        string `json:"street"`
	PostalCode    string `json:"postal_code"`
	City          string `json:"city"`
	EmployeeCount int    `json:"employee_count"`
}

// Standorte lists the subsidiary's sites.
type Standorte struct {
	Locations []Location `json:"locations"`
}

func (*Standorte) Step() Step { return StepStandorte }

func (p *Standorte) Validate() error {
	if len(p.Locations) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one location is required")
	}
	seen := make(map[string]bool, len(p.Locations))
	for i, loc := range p.Locations {
		if err := required(map[string]string{
			fmt.Sprintf("locations[%d].name", i):   loc.Name,
			fmt.Sprintf("locations[%d].street", i): loc.Street,
			fmt.Sprintf("locations[%d].city", i):   loc.City,
		}); err != nil {
			return err
		}
		if !postalCodePattern.MatchString(loc.PostalCode) {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("locations[%d].postal_code must have 5 digits", i))
		}
		if loc.EmployeeCount < 0 {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("locations[%d].employee_count must not be negative", i))
		}
		key := strings.ToLower(strings.TrimSpace(loc.Name))
		if seen[key] {
			return dErrors.New(dErrors.CodeValidation, "location names must be unique")
		}
		seen[key] = true
	}
	return nil
}

func (p *Standorte) clone() StepPayload {
	return &Standorte{Locations: slices.Clone(p.Locations)}
}

// Lohnabrechnung configures payroll.
type Lohnabrechnung struct {
	PayrollStartMonth string `json:"payroll_start_month"`
	EmployeeCount     int    `json:"employee_count"`
	PayDay            int    `json:"pay_day"`
	PreviousProvider  string `json:"previous_provider,omitempty"`
}

func (*Lohnabrechnung) Step() Step { return StepLohnabrechnung }

func (p *Lohnabrechnung) Validate() error {
	if _, err := time.Parse("2006-01", p.PayrollStartMonth); err != nil {
		return dErrors.New(dErrors.CodeValidation, "payroll_start_month must be formatted as YYYY-MM")
	}
	if p.EmployeeCount < 1 {
		return dErrors.New(dErrors.CodeValidation, "employee_count must be at least 1")
	}
	if p.PayDay < 1 || p.PayDay > 31 {
		return dErrors.New(dErrors.CodeValidation, "pay_day must be between 1 and 31")
	}
	return nil
}

func (p *Lohnabrechnung) clone() StepPayload {
	c := *p
	return &c
}

// Buchhaltung holds the accounting hand-off data.
type Buchhaltung struct {
	AccountingSystem      string `json:"accounting_system"`
	TaxAdvisor            string `json:"tax_advisor,omitempty"`
	DatevConsultantNumber string `json:"datev_consultant_number,omitempty"`
	DatevClientNumber     string `json:"datev_client_number,omitempty"`
}

func (*Buchhaltung) Step() Step { return StepBuchhaltung }

func (p *Buchhaltung) Validate() error {
	if err := required(map[string]string{"accounting_system": p.AccountingSystem}); err != nil {
		return err
	}
	for field, v := range map[string]string{
		"datev_consultant_number": p.DatevConsultantNumber,
		"datev_client_number":     p.DatevClientNumber,
	} {
		if v != "" && !digitsPattern.MatchString(v) {
			return dErrors.New(dErrors.CodeValidation, field+" must contain digits only")
		}
	}
	return nil
}

func (p *Buchhaltung) clone() StepPayload {
	c := *p
	return &c
}

// Contact is a person the payroll team can reach.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Ansprechpartner lists contacts for the subsidiary.
type Ansprechpartner struct {
	Contacts []Contact `json:"contacts"`
}

func (*Ansprechpartner) Step() Step { return StepAnsprechpartner }

func (p *Ansprechpartner) Validate() error {
	if len(p.Contacts) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one contact is required")
	}
	for i, c := range p.Contacts {
		if strings.TrimSpace(c.Name) == "" {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("contacts[%d].name is required", i))
		}
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("contacts[%d].email is invalid", i))
		}
	}
	return nil
}

func (p *Ansprechpartner) clone() StepPayload {
	return &Ansprechpartner{Contacts: slices.Clone(p.Contacts)}
}

// GivveCard records whether benefit cards are wanted and how many.
type GivveCard struct {
	Wanted              bool `json:"wanted"`
	CardCount           int  `json:"card_count"`
	MonthlyBenefitCents int  `json:"monthly_benefit_cents"`
}

func (*GivveCard) Step() Step { return StepGivveCard }

func (p *GivveCard) Validate() error {
	if p.CardCount < 0 || p.MonthlyBenefitCents < 0 {
		return dErrors.New(dErrors.CodeValidation, "card_count and monthly_benefit_cents must not be negative")
	}
	if p.Wanted && p.CardCount == 0 {
		return dErrors.New(dErrors.CodeValidation, "card_count is required when cards are wanted")
	}
	if !p.Wanted && p.CardCount > 0 {
		return dErrors.New(dErrors.CodeValidation, "card_count must be 0 when cards are not wanted")
	}
	return nil
}

func (p *GivveCard) clone() StepPayload {
	c := *p
	return &c
}

// Review is the final confirmation.
type Review struct {
	Confirmed bool   `json:"confirmed"`
	Notes     string `json:"notes,omitempty"`
}

func (*Review) Step() Step { return StepReview }

func (p *Review) Validate() error {
	if !p.Confirmed {
		return dErrors.New(dErrors.CodeValidation, "the onboarding data must be confirmed")
	}
	return nil
}

func (p *Review) clone() StepPayload {
	c := *p
	return &c
}

func newPayload(step Step) (StepPayload, bool) {
	switch step {
	case StepGesellschaft:
		return &Gesellschaft{}, true
	case StepStandorte:
		return &Standorte{}, true
	case StepLohnabrechnung:
		return &Lohnabrechnung{}, true
	case StepBuchhaltung:
		return &Buchhaltung{}, true
	case StepAnsprechpartner:
		return &Ansprechpartner{}, true
	case StepGivveCard:
		return &GivveCard{}, true
	case StepReview:
		return &Review{}, true
	default:
		return nil, false
	}
}

// DecodePayload parses raw JSON into the schema of step and validates it.
// Unknown fields and schema violations fail with CodeInvalidTransition.
func DecodePayload(step Step, raw json.RawMessage) (StepPayload, error) {
	payload, err := decodePayload(step, raw, true)
	if err != nil {
		return nil, err
	}
	if err := payload.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidTransition,
			fmt.Sprintf("invalid %s data: %s", step, dErrors.MessageOf(err)))
	}
	return payload, nil
}

func decodePayload(step Step, raw json.RawMessage, strict bool) (StepPayload, error) {
	payload, ok := newPayload(step)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, "unknown onboarding step: "+string(step))
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, dErrors.New(dErrors.CodeInvalidTransition, fmt.Sprintf("invalid %s data: payload is required", step))
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(payload); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidTransition, fmt.Sprintf("invalid %s data: malformed payload", step))
	}
	return payload, nil
}

func required(fields map[string]string) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if strings.TrimSpace(fields[k]) == "" {
			return dErrors.New(dErrors.CodeValidation, k+" is required")
		}
	}
	return nil
}

// StepData holds the payload recorded for each completed step.
type StepData map[Step]StepPayload

// Get returns the typed payload for step, if present.
func (d StepData) Get(step Step) (StepPayload, bool) {
	p, ok := d[step]
	return p, ok
}

// Clone deep-copies the map and its payloads.
func (d StepData) Clone() StepData {
	out := make(StepData, len(d))
	for k, v := range d {
		out[k] = v.clone()
	}
	return out
}

// UnmarshalJSON dispatches each entry to its step schema. Stored data is not
// re-validated and unknown fields are tolerated so older rows stay readable.
func (d *StepData) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(StepData, len(raw))
	for name, body := range raw {
		step := Step(name)
		payload, err := decodePayload(step, body, false)
		if err != nil {
			return fmt.Errorf("decode step data %q: %w", name, err)
		}
		out[step] = payload
	}
	*d = out
	return nil
}
