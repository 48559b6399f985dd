// Package documents issues signed URLs for givve card documents and reads the fillable
// fields of the PDF templates kept in the same bucket.
package documents

import (
	"fmt"
	"regexp"
	"strings"

	id "cockpit/pkg/domain"
	dErrors "cockpit/pkg/domain-errors"
)

// Kind is a document the subsidiary uploads for the givve card flow.
type Kind string

const (
	KindOrderForm            Kind = "order_form"
	KindIdentityDocument     Kind = "identity_document"
	KindTradeRegisterExtract Kind = "trade_register_extract"
)

var kinds = map[Kind]struct{}{
	KindOrderForm:            {},
	KindIdentityDocument:     {},
	KindTradeRegisterExtract: {},
}

// ParseKind validates a document kind taken from a URL.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := kinds[k]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown document kind: %s", s))
	}
	return k, nil
}

// ObjectKey is where a subsidiary's document of kind k is stored.
func ObjectKey(subsidiaryID id.SubsidiaryID, k Kind) string {
	return fmt.Sprintf("givve/%s/%s.pdf", subsidiaryID, k)
}

var templateName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// TemplateKey is where the PDF template name is stored.
func TemplateKey(name string) (string, error) {
	if !templateName.MatchString(name) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid template name")
	}
	return "templates/" + name + ".pdf", nil
}
