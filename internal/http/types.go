package http

import "encoding/json"

// DocxMIME is the Content-Type of generated documents.
const DocxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Multipart form fields of POST /generate.
const (
	FieldTemplate    = "template"
	FieldSession     = "session_json"
	FieldSessionText = "session_json_text"
	FieldClass       = "class_json"
	FieldClassText   = "class_json_text"
	FieldStartDate   = "start_date"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status          string   `json:"status"`
	Service         string   `json:"service"`
	Version         string   `json:"version,omitempty"`
	DefaultTemplate bool     `json:"default_template"`
	Telemetry       string   `json:"telemetry,omitempty"` // "ok", "degraded" or empty when off
	Warnings        []string `json:"warnings,omitempty"`
}

// PeriodResponse is the response body for GET /api/v1/period.
type PeriodResponse struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Period    string `json:"period"`
}

// ValidateRequest is the request body for POST /validate_json.
//
// ReferenceStructure selects the check: "session" or "class" for the fixed
// rule sets, a JSON Schema object, or anything else for a syntax check.
type ValidateRequest struct {
	JSONText           string          `json:"json_text"`
	ReferenceStructure json.RawMessage `json:"reference_structure"`
}

// ValidateResponse is the response body for POST /validate_json.
type ValidateResponse struct {
	Valid  bool         `json:"valid"`
	Error  string       `json:"error,omitempty"`
	Fields []FieldIssue `json:"fields,omitempty"`
}

// FieldIssue is one schema violation.
type FieldIssue struct {
	Field   string `json:"field"`
	Problem string `json:"problem"`
}
