package documents

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// FieldReader lists the fillable AcroForm field names of a PDF.
type FieldReader func(rs io.ReadSeeker) ([]string, error)

// PDFFieldNames reads field names with pdfcpu, in document order.
func PDFFieldNames(rs io.ReadSeeker) ([]string, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	fields, err := api.FormFields(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("read form fields: %w", err)
	}
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	return names, nil
}
