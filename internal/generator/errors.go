package generator

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/sesiond/internal/docx"
	"github.com/fyrsmithlabs/sesiond/internal/plan"
	"github.com/fyrsmithlabs/sesiond/internal/schema"
)

// Errors returned by Generate. Callers match them with errors.Is.
var (
	// ErrMissingInput indicates a required input was not supplied.
	ErrMissingInput = errors.New("missing input")

	// ErrInvalidStartDate indicates start_date is not YYYY-MM-DD.
	ErrInvalidStartDate = errors.New("invalid start date")

	// ErrMalformedJSON indicates a document is not valid JSON.
	ErrMalformedJSON = plan.ErrMalformedJSON

	// ErrInvalidDocument indicates a document failed schema validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidTemplate indicates the template is not a usable .docx.
	ErrInvalidTemplate = docx.ErrInvalidTemplate

	// ErrRender indicates template execution failed.
	ErrRender = docx.ErrRender
)

// ValidationError carries the field problems of one document.
type ValidationError struct {
	Document schema.Kind
	Fields   []*schema.FieldError
	err      error
}

func newValidationError(kind schema.Kind, err error) *ValidationError {
	return &ValidationError{Document: kind, Fields: schema.Errors(err), err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s document: %s", ErrInvalidDocument, e.Document, schema.Summary(e.err))
}

// Unwrap exposes ErrInvalidDocument and the underlying field errors.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrInvalidDocument, e.err}
}

// IsClientError reports whether err was caused by the request rather than
// by the server.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingInput) ||
		errors.Is(err, ErrInvalidStartDate) ||
		errors.Is(err, ErrMalformedJSON) ||
		errors.Is(err, ErrInvalidDocument) ||
		errors.Is(err, ErrInvalidTemplate)
}
