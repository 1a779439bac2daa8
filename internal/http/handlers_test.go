package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/sesiond/internal/docx"
)

const sessionJSON = `{
  "nombreproyecto": "Jugamos con el agua",
  "titulo": "¿Flota o se hunde?",
  "area": "Ciencia y Tecnología",
  "proposito": "Explorar objetos que flotan",
  "competencias": [{
    "competencia": "Indaga mediante métodos científicos",
    "capacidades": ["Problematiza situaciones"],
    "desempenos": ["Hace preguntas"]
  }],
  "secuencia": {"inicio": "Asamblea", "desarrollo": "Experimento", "cierre": "Dibujo"}
}`

const classJSON = `{
  "institucion": "IEI 123",
  "docente": "Ana Quispe",
  "aula": "Delfines",
  "estudiantes": [{"nombre": "Luis", "fechanacimiento": "03/03/2021"}]
}`

type generateForm struct {
	Template    []byte
	Session     string // uploaded file
	SessionText string
	Class       string // uploaded file
	ClassText   string
	StartDate   string
}

func newGenerateRequest(t *testing.T, f generateForm) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	addFile := func(field, name string, data []byte) {
		if data == nil {
			return
		}
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	addField := func(field, value string) {
		if value == "" {
			return
		}
		require.NoError(t, w.WriteField(field, value))
	}

	addFile(FieldTemplate, "plantilla.docx", f.Template)
	if f.Session != "" {
		addFile(FieldSession, "sesion.json", []byte(f.Session))
	}
	if f.Class != "" {
		addFile(FieldClass, "clase.json", []byte(f.Class))
	}
	addField(FieldSessionText, f.SessionText)
	addField(FieldClassText, f.ClassText)
	addField(FieldStartDate, f.StartDate)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/generate", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func testTemplate(t *testing.T) []byte {
	return docx.NewTestPackage(t, docx.TestParagraph("{{ .titulo }} / {{ .Periodo }}")+
		docx.TestParagraph("{{p range .estudiantes }}")+
		docx.TestParagraph("{{ .nombre }} ({{ .edad }})")+
		docx.TestParagraph("{{p end }}"), nil)
}

func TestHandleGenerate(t *testing.T) {
	server := setupTestServer(t, nil)

	rec := serve(server, newGenerateRequest(t, generateForm{
		Template:    testTemplate(t),
		SessionText: sessionJSON,
		Class:       classJSON,
		StartDate:   "2025-03-03",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, DocxMIME, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, `attachment; filename="sesion_Jugamos_con_el_agua_Del_3_al_7_de_Marzo.docx"`,
		rec.Header().Get(echo.HeaderContentDisposition))

	body := docx.ReadTestPart(t, rec.Body.Bytes(), docx.DocumentPart)
	assert.Contains(t, body, "¿Flota o se hunde? / Del 3 al 7 de Marzo")
	assert.Contains(t, body, "Luis (48 meses)")
}

func TestHandleGenerate_TextWinsOverFile(t *testing.T) {
	server := setupTestServer(t, nil)

	pasted := strings.Replace(sessionJSON, "Jugamos con el agua", "Texto pegado", 1)
	rec := serve(server, newGenerateRequest(t, generateForm{
		Template:    testTemplate(t),
		Session:     sessionJSON,
		SessionText: pasted,
		ClassText:   classJSON,
		StartDate:   "2025-03-03",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "sesion_Texto_pegado_")
}

func TestHandleGenerate_Errors(t *testing.T) {
	valid := func(t *testing.T) generateForm {
		return generateForm{
			Template:    testTemplate(t),
			SessionText: sessionJSON,
			ClassText:   classJSON,
			StartDate:   "2025-03-03",
		}
	}

	tests := []struct {
		name    string
		modify  func(*testing.T, *generateForm)
		status  int
		message string
	}{
		{
			name:    "missing template",
			modify:  func(_ *testing.T, f *generateForm) { f.Template = nil },
			status:  http.StatusBadRequest,
			message: "missing input: template file is required",
		},
		{
			name:    "missing class",
			modify:  func(_ *testing.T, f *generateForm) { f.ClassText = "" },
			status:  http.StatusBadRequest,
			message: "class roster JSON is required",
		},
		{
			name:    "missing start date",
			modify:  func(_ *testing.T, f *generateForm) { f.StartDate = "" },
			status:  http.StatusBadRequest,
			message: "start date is required",
		},
		{
			name:    "bad start date",
			modify:  func(_ *testing.T, f *generateForm) { f.StartDate = "2025-13-01" },
			status:  http.StatusBadRequest,
			message: "invalid start date",
		},
		{
			name:    "malformed JSON",
			modify:  func(_ *testing.T, f *generateForm) { f.SessionText = `{"titulo": "x",}` },
			status:  http.StatusBadRequest,
			message: "malformed JSON in session plan",
		},
		{
			name:    "schema violation",
			modify:  func(_ *testing.T, f *generateForm) { f.ClassText = `{"institucion":"i","docente":"d","aula":"a"}` },
			status:  http.StatusBadRequest,
			message: `field "estudiantes" is required`,
		},
		{
			name: "duplicated key overriding a valid value",
			modify: func(_ *testing.T, f *generateForm) {
				f.ClassText = strings.TrimSuffix(strings.TrimSpace(classJSON), "}") + `, "estudiantes": "nadie"}`
			},
			status:  http.StatusBadRequest,
			message: `field "estudiantes" must be an array, got string`,
		},
		{
			name:    "array root",
			modify:  func(_ *testing.T, f *generateForm) { f.SessionText = `[1,2]` },
			status:  http.StatusBadRequest,
			message: `field "$" must be a JSON object, got array`,
		},
		{
			name:    "not a docx",
			modify:  func(_ *testing.T, f *generateForm) { f.Template = []byte("hello") },
			status:  http.StatusBadRequest,
			message: "invalid template",
		},
		{
			name: "render failure",
			modify: func(t *testing.T, f *generateForm) {
				f.Template = docx.NewTestPackage(t, docx.TestParagraph("{{ index .estudiantes 5 }}"), nil)
			},
			status:  http.StatusInternalServerError,
			message: "render",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(t, nil)
			form := valid(t)
			tt.modify(t, &form)

			rec := serve(server, newGenerateRequest(t, form))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, echo.MIMEApplicationJSON, strings.Split(rec.Header().Get(echo.HeaderContentType), ";")[0])
			assert.Contains(t, decodeError(t, rec), tt.message)
		})
	}
}

func TestHandleGenerate_NotMultipart(t *testing.T) {
	server := setupTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := serve(server, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request must be multipart/form-data", decodeError(t, rec))
}

func validate(t *testing.T, server *Server, body string) (int, ValidateResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/validate_json", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := serve(server, req)

	var resp ValidateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestHandleValidateJSON(t *testing.T) {
	server := setupTestServer(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
		valid  bool
		error  string
		fields []string
	}{
		{
			name:   "missing reference",
			body:   mustJSON(t, map[string]any{"json_text": "{}"}),
			status: http.StatusBadRequest,
			error:  "incomplete validation data",
		},
		{
			name:   "empty text",
			body:   mustJSON(t, map[string]any{"json_text": "", "reference_structure": "session"}),
			status: http.StatusBadRequest,
			error:  "incomplete validation data",
		},
		{
			name:   "empty object reference",
			body:   mustJSON(t, map[string]any{"json_text": "{}", "reference_structure": map[string]any{}}),
			status: http.StatusBadRequest,
			error:  "incomplete validation data",
		},
		{
			name:   "invalid JSON text",
			body:   mustJSON(t, map[string]any{"json_text": "{nope", "reference_structure": "class"}),
			status: http.StatusBadRequest,
			error:  "invalid JSON: ",
		},
		{
			name:   "valid class",
			body:   mustJSON(t, map[string]any{"json_text": classJSON, "reference_structure": "class"}),
			status: http.StatusOK,
			valid:  true,
		},
		{
			name:   "class with problems",
			body:   mustJSON(t, map[string]any{"json_text": `{"institucion":"i","docente":"d"}`, "reference_structure": "class"}),
			status: http.StatusOK,
			error:  `field "aula" is required`,
			fields: []string{"aula", "estudiantes"},
		},
		{
			name: "class with a duplicated key",
			body: mustJSON(t, map[string]any{
				"json_text":           strings.TrimSuffix(strings.TrimSpace(classJSON), "}") + `, "estudiantes": "nadie"}`,
				"reference_structure": "class",
			}),
			status: http.StatusOK,
			error:  `field "estudiantes" must be an array, got string`,
			fields: []string{"estudiantes"},
		},
		{
			name:   "session kind",
			body:   mustJSON(t, map[string]any{"json_text": sessionJSON, "reference_structure": "Session"}),
			status: http.StatusOK,
			valid:  true,
		},
		{
			name: "json schema reference",
			body: mustJSON(t, map[string]any{
				"json_text": `{"aula": 3}`,
				"reference_structure": map[string]any{
					"type":       "object",
					"properties": map[string]any{"aula": map[string]any{"type": "string"}},
				},
			}),
			status: http.StatusOK,
			error:  "does not match the reference structure",
			fields: []string{"$"},
		},
		{
			name: "unusable json schema",
			body: mustJSON(t, map[string]any{
				"json_text":           `{}`,
				"reference_structure": map[string]any{"type": 12},
			}),
			status: http.StatusBadRequest,
			error:  "invalid reference schema",
		},
		{
			name:   "syntax only accepts arrays",
			body:   mustJSON(t, map[string]any{"json_text": `[1, 2]`, "reference_structure": true}),
			status: http.StatusOK,
			valid:  true,
		},
		{
			name:   "syntax only rejects scalars",
			body:   mustJSON(t, map[string]any{"json_text": `"text"`, "reference_structure": "sesion_plantilla"}),
			status: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := validate(t, server, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.valid, resp.Valid)
			if tt.error != "" {
				assert.Contains(t, resp.Error, tt.error)
			}
			var fields []string
			for _, f := range resp.Fields {
				fields = append(fields, f.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestHandleValidateJSON_UnsupportedMediaType(t *testing.T) {
	server := setupTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/validate_json", strings.NewReader(`{"json_text":"{}"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
	rec := serve(server, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "Unsupported Media Type", decodeError(t, rec))
}

func TestHandleValidateJSON_BadBody(t *testing.T) {
	server := setupTestServer(t, nil)
	status, resp := validate(t, server, `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Error, "invalid request body")
}
