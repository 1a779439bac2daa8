package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrInvalidSchema is returned when a reference structure is not a usable
// JSON Schema document.
var ErrInvalidSchema = errors.New("invalid reference schema")

// ValidateAgainst validates the JSON document instance against a
// caller-supplied JSON Schema (draft 2020-12). A mismatch is reported as a
// *FieldError on the root; a broken schema wraps ErrInvalidSchema.
func ValidateAgainst(schemaDoc, instance []byte) error {
	var s jsonschema.Schema
	if err := json.Unmarshal(schemaDoc, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	resolved, err := s.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}

	var v any
	if err := json.Unmarshal(instance, &v); err != nil {
		return &FieldError{Field: "$", Problem: "is not valid JSON: " + err.Error()}
	}
	if err := resolved.Validate(v); err != nil {
		return &FieldError{Field: "$", Problem: "does not match the reference structure: " + err.Error()}
	}
	return nil
}
