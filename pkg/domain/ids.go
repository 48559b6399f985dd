// Package domain holds shared domain primitives.
//
// IDs are distinct named UUID types so that a subsidiary ID can never be passed where a
// user ID is expected. Parse functions are the trust boundary for IDs arriving from
// URLs, tokens and request bodies.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "cockpit/pkg/domain-errors"
)

// UserID identifies an authenticated cockpit user.
type UserID uuid.UUID

// SubsidiaryID identifies the legal entity onboarding progress is tracked against.
type SubsidiaryID uuid.UUID

// CompanyID identifies the parent company owning subsidiaries.
type CompanyID uuid.UUID

func (id UserID) String() string       { return uuid.UUID(id).String() }
func (id SubsidiaryID) String() string { return uuid.UUID(id).String() }
func (id CompanyID) String() string    { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id SubsidiaryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CompanyID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// ParseUserID parses a non-nil user UUID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

// ParseSubsidiaryID parses a non-nil subsidiary UUID.
func ParseSubsidiaryID(s string) (SubsidiaryID, error) {
	u, err := parseUUID(s, "subsidiary_id")
	return SubsidiaryID(u), err
}

// ParseCompanyID parses a non-nil company UUID.
func ParseCompanyID(s string) (CompanyID, error) {
	u, err := parseUUID(s, "company_id")
	return CompanyID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be nil")
	}
	return u, nil
}

// MarshalText renders IDs in canonical UUID form in JSON and logs.
func (id UserID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id SubsidiaryID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id CompanyID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SubsidiaryID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CompanyID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
