package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sesiond/internal/calendar"
	"github.com/fyrsmithlabs/sesiond/internal/generator"
	"github.com/fyrsmithlabs/sesiond/internal/schema"
)

// handleHealth reports liveness. Telemetry problems are reported but never
// make the service unhealthy.
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{
		Status:          "ok",
		Service:         s.config.Observability.ServiceName,
		Version:         s.version,
		DefaultTemplate: s.generator.HasDefaultTemplate(),
	}
	if s.health != nil && s.config.Observability.EnableTelemetry {
		h := s.health()
		resp.Telemetry = "ok"
		if h.Degraded {
			resp.Telemetry = "degraded"
			resp.Warnings = h.Reasons
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// handleGenerate renders a document from the multipart form.
func (s *Server) handleGenerate(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return formError(err)
	}

	tmpl, err := formFile(form, FieldTemplate)
	if err != nil {
		return err
	}
	session, err := formDocument(form, FieldSessionText, FieldSession)
	if err != nil {
		return err
	}
	class, err := formDocument(form, FieldClassText, FieldClass)
	if err != nil {
		return err
	}

	doc, err := s.generator.Generate(c.Request().Context(), generator.Request{
		Template:  tmpl,
		Session:   session,
		Class:     class,
		StartDate: strings.TrimSpace(formValue(form, FieldStartDate)),
	})
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	return c.Blob(http.StatusOK, DocxMIME, doc.Content)
}

func formError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	if errors.Is(err, http.ErrNotMultipart) {
		return echo.NewHTTPError(http.StatusBadRequest, "request must be multipart/form-data")
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid form data: "+err.Error())
}

func formValue(form *multipart.Form, name string) string {
	if v := form.Value[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// formFile returns the uploaded file, or nil when no file was chosen.
// Browsers submit an empty part without a file name in that case.
func formFile(form *multipart.Form, name string) ([]byte, error) {
	files := form.File[name]
	if len(files) == 0 || files[0].Filename == "" || files[0].Size == 0 {
		return nil, nil
	}
	f, err := files[0].Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s upload: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s upload: %w", name, err)
	}
	return data, nil
}

// formDocument prefers the pasted text field over the uploaded file.
func formDocument(form *multipart.Form, textField, fileField string) ([]byte, error) {
	if text := formValue(form, textField); strings.TrimSpace(text) != "" {
		return []byte(text), nil
	}
	return formFile(form, fileField)
}

// handlePeriod computes the period for ?start_date=YYYY-MM-DD.
func (s *Server) handlePeriod(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam(FieldStartDate))
	if raw == "" {
		return fmt.Errorf("%w: start date is required", generator.ErrMissingInput)
	}
	start, err := calendar.ParseStartDate(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", generator.ErrInvalidStartDate, err)
	}

	p := calendar.NewPeriod(start)
	return c.JSON(http.StatusOK, PeriodResponse{
		StartDate: p.Start.Format(calendar.StartDateLayout),
		EndDate:   p.End.Format(calendar.StartDateLayout),
		Period:    p.String(),
	})
}

// handleValidateJSON checks json_text against reference_structure.
func (s *Server) handleValidateJSON(c echo.Context) error {
	var req ValidateRequest
	if err := c.Bind(&req); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code != http.StatusBadRequest {
			return he
		}
		s.logger.Debug(c.Request().Context(), "invalid validate request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ValidateResponse{Error: "invalid request body"})
	}

	ref := gjson.ParseBytes(req.ReferenceStructure)
	if strings.TrimSpace(req.JSONText) == "" || !ref.Exists() || isFalsy(ref) {
		return c.JSON(http.StatusBadRequest, ValidateResponse{Error: "incomplete validation data"})
	}

	var doc any
	if err := json.Unmarshal([]byte(req.JSONText), &doc); err != nil {
		return c.JSON(http.StatusBadRequest, ValidateResponse{Error: "invalid JSON: " + err.Error()})
	}
	// Rule checks read the decoded form so duplicated keys resolve as they do
	// when rendering.
	canonical, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("re-encoding json_text: %w", err)
	}

	switch {
	case ref.Type == gjson.String:
		kind, err := schema.ParseKind(ref.Str)
		if err != nil {
			return c.JSON(http.StatusOK, syntaxCheck(doc))
		}
		return c.JSON(http.StatusOK, fieldCheck(schema.Validate(kind, canonical)))

	case ref.IsObject():
		err := schema.ValidateAgainst(req.ReferenceStructure, []byte(req.JSONText))
		if errors.Is(err, schema.ErrInvalidSchema) {
			s.logger.Debug(c.Request().Context(), "unusable reference schema", zap.Error(err))
			return c.JSON(http.StatusBadRequest, ValidateResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusOK, fieldCheck(err))

	default:
		return c.JSON(http.StatusOK, syntaxCheck(doc))
	}
}

// isFalsy reports reference values that count as absent: null, false, 0,
// "" and empty containers.
func isFalsy(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null, gjson.False:
		return true
	case gjson.Number:
		return v.Num == 0
	case gjson.String:
		return v.Str == ""
	case gjson.JSON:
		if v.IsArray() {
			return len(v.Array()) == 0
		}
		return len(v.Map()) == 0
	}
	return false
}

// syntaxCheck accepts any JSON object or array.
func syntaxCheck(doc any) ValidateResponse {
	switch doc.(type) {
	case map[string]any, []any:
		return ValidateResponse{Valid: true}
	default:
		return ValidateResponse{Valid: false}
	}
}

func fieldCheck(err error) ValidateResponse {
	if err == nil {
		return ValidateResponse{Valid: true}
	}
	resp := ValidateResponse{Error: schema.Summary(err)}
	for _, fe := range schema.Errors(err) {
		resp.Fields = append(resp.Fields, FieldIssue{Field: fe.Field, Problem: fe.Problem})
	}
	return resp
}
