// Package plan decodes the session-plan and class-roster documents and
// enriches them with derived fields before rendering.
//
// Enrichment writes into the raw JSON with sjson so that every key the client
// sent, known to the schema or not, reaches the template unchanged:
//
//	session: Periodo = "Del 3 al 7 de Marzo"
//	class:   estudiantes[i].edad = "52 meses"
package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/fyrsmithlabs/sesiond/internal/calendar"
)

// Context keys injected next to the session fields.
const (
	KeyPeriod    = "Periodo"
	KeyStartDate = "fecha_inicio"
	KeyEndDate   = "fecha_fin"
	KeyClass     = "clase"
	KeyStudents  = "estudiantes"
	KeyAge       = "edad"
	KeyBirthDate = "fechanacimiento"

	// DefaultProjectName is used for file names when nombreproyecto is absent.
	DefaultProjectName = "Proyecto"
)

// ErrMalformedJSON is returned when a document is not valid JSON.
var ErrMalformedJSON = errors.New("malformed JSON")

// Decode parses a JSON document. name identifies it in error messages.
// Syntax errors wrap ErrMalformedJSON and carry the byte offset.
func Decode(name string, data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, malformed(name, err)
	}
	return doc, nil
}

// Canonicalize re-encodes a JSON document so that every later reader sees the
// members Decode sees: a duplicated key keeps only its last value. Only
// syntax errors are reported; a well-formed array or scalar root is returned
// re-encoded for the schema checks to reject.
func Canonicalize(name string, data []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, malformed(name, err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("re-encoding %s: %w", name, err)
	}
	return out, nil
}

func malformed(name string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("%w in %s at offset %d: %v", ErrMalformedJSON, name, syntaxErr.Offset, err)
	}
	return fmt.Errorf("%w in %s: %v", ErrMalformedJSON, name, err)
}

// Enriched is the outcome of Enrich.
type Enriched struct {
	Period  calendar.Period
	Session []byte
	Class   []byte

	// Context is the data handed to the document template.
	Context map[string]any
}

// ProjectName returns nombreproyecto, or DefaultProjectName when unset.
func (e *Enriched) ProjectName() string {
	if name, ok := e.Context["nombreproyecto"].(string); ok && name != "" {
		return name
	}
	return DefaultProjectName
}

// Enrich injects the derived fields into both documents and builds the render
// context. today is the reference date for student ages. Both documents are
// expected in the form Canonicalize returns.
func Enrich(session, class []byte, start, today time.Time) (*Enriched, error) {
	period := calendar.NewPeriod(start)

	session, err := sjson.SetBytes(session, KeyPeriod, period.String())
	if err != nil {
		return nil, fmt.Errorf("setting %s: %w", KeyPeriod, err)
	}

	students := gjson.GetBytes(class, KeyStudents)
	if students.IsArray() {
		for i, student := range students.Array() {
			if !student.IsObject() {
				continue
			}
			age := calendar.FormatAge(student.Get(KeyBirthDate).String(), today)
			class, err = sjson.SetBytes(class, fmt.Sprintf("%s.%d.%s", KeyStudents, i, KeyAge), age)
			if err != nil {
				return nil, fmt.Errorf("setting age of student %d: %w", i, err)
			}
		}
	}

	ctx, err := Decode("session plan", session)
	if err != nil {
		return nil, err
	}
	classDoc, err := Decode("class roster", class)
	if err != nil {
		return nil, err
	}

	ctx[KeyStartDate] = period.Start.Format(calendar.BirthDateLayout)
	ctx[KeyEndDate] = period.End.Format(calendar.BirthDateLayout)
	ctx[KeyClass] = classDoc
	ctx[KeyStudents] = classDoc[KeyStudents]

	return &Enriched{
		Period:  period,
		Session: session,
		Class:   class,
		Context: ctx,
	}, nil
}
