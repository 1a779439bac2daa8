package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSession = `{
  "nombreproyecto": "Exploramos nuestro huerto",
  "titulo": "Conocemos las plantas",
  "area": "Ciencia y Tecnología",
  "proposito": "Que los niños observen y describan plantas",
  "competencias": [
    {
      "competencia": "Indaga mediante métodos científicos",
      "capacidades": ["Problematiza situaciones"],
      "desempenos": ["Hace preguntas sobre lo que observa"],
      "criterios": ["Describe características"]
    }
  ],
  "secuencia": {"inicio": "Asamblea", "desarrollo": "Salida al huerto", "cierre": "Dibujo"},
  "materiales": ["lupas", "hojas"],
  "evidencia": "Dibujos"
}`

const validClass = `{
  "institucion": "IEI 123",
  "docente": "Ana Quispe",
  "aula": "Girasoles",
  "estudiantes": [
    {"nombre": "Luis", "fechanacimiento": "15/04/2021"},
    {"nombre": "María", "fechanacimiento": "02/11/2020"}
  ]
}`

func fields(err error) []string {
	var out []string
	for _, fe := range Errors(err) {
		out = append(out, fe.Field)
	}
	return out
}

func TestValidate_ValidDocuments(t *testing.T) {
	assert.NoError(t, Validate(KindSession, []byte(validSession)))
	assert.NoError(t, Validate(KindClass, []byte(validClass)))
}

func TestValidate_UnknownFieldsAllowed(t *testing.T) {
	doc := `{"institucion":"x","docente":"y","aula":"z","extra":{"a":1},
		"estudiantes":[{"nombre":"n","fechanacimiento":"01/01/2020","apodo":"k"}]}`
	assert.NoError(t, Validate(KindClass, []byte(doc)))
}

func TestValidate_RootMustBeObject(t *testing.T) {
	for _, doc := range []string{`[]`, `"text"`, `42`, `null`} {
		t.Run(doc, func(t *testing.T) {
			err := Validate(KindSession, []byte(doc))
			require.Error(t, err)
			assert.Equal(t, []string{"$"}, fields(err))
			assert.Contains(t, err.Error(), "must be a JSON object")
		})
	}
}

func TestValidate_InvalidJSON(t *testing.T) {
	err := Validate(KindClass, []byte(`{"institucion":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestValidate_ClassFieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		fields []string
	}{
		{
			name:   "empty object",
			doc:    `{}`,
			fields: []string{"institucion", "docente", "aula", "estudiantes"},
		},
		{
			name:   "wrong scalar types",
			doc:    `{"institucion":1,"docente":true,"aula":null,"estudiantes":[{"nombre":"a","fechanacimiento":"x"}]}`,
			fields: []string{"institucion", "docente", "aula"},
		},
		{
			name:   "blank strings",
			doc:    `{"institucion":"  ","docente":"d","aula":"a","estudiantes":[{"nombre":"","fechanacimiento":"x"}]}`,
			fields: []string{"institucion", "estudiantes[0].nombre"},
		},
		{
			name:   "empty student list",
			doc:    `{"institucion":"i","docente":"d","aula":"a","estudiantes":[]}`,
			fields: []string{"estudiantes"},
		},
		{
			name:   "students not an array",
			doc:    `{"institucion":"i","docente":"d","aula":"a","estudiantes":{"nombre":"x"}}`,
			fields: []string{"estudiantes"},
		},
		{
			name: "nested student problems",
			doc: `{"institucion":"i","docente":"d","aula":"a","estudiantes":[
				{"nombre":"ok","fechanacimiento":"01/01/2020"},
				{"fechanacimiento":"01/01/2020"},
				{"nombre":"x","fechanacimiento":20200101},
				"not an object"]}`,
			fields: []string{"estudiantes[1].nombre", "estudiantes[2].fechanacimiento", "estudiantes[3]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(KindClass, []byte(tt.doc))
			require.Error(t, err)
			if diff := cmp.Diff(tt.fields, fields(err)); diff != "" {
				t.Errorf("field errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate_SessionFieldErrors(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(validSession), &doc))

	doc["competencias"] = []any{
		map[string]any{"competencia": "c", "capacidades": []any{}, "desempenos": []any{"d", 3}},
	}
	doc["secuencia"] = map[string]any{"inicio": "i", "cierre": ""}
	doc["materiales"] = "lupas"
	delete(doc, "titulo")

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	verr := Validate(KindSession, data)
	require.Error(t, verr)
	want := []string{
		"titulo",
		"competencias[0].capacidades",
		"competencias[0].desempenos[1]",
		"secuencia.desarrollo",
		"secuencia.cierre",
		"materiales",
	}
	if diff := cmp.Diff(want, fields(verr)); diff != "" {
		t.Errorf("field errors mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldError_Message(t *testing.T) {
	err := Validate(KindClass, []byte(`{"institucion":"i","docente":"d","aula":"a","estudiantes":[{"fechanacimiento":"x"}]}`))
	require.Error(t, err)
	assert.Equal(t, `field "estudiantes[0].nombre" is required`, Summary(err))

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "estudiantes[0].nombre", fe.Field)
}

func TestSummary_JoinsAllProblems(t *testing.T) {
	err := Validate(KindClass, []byte(`{"institucion":"i","docente":"d"}`))
	assert.Equal(t, `field "aula" is required; field "estudiantes" is required`, Summary(err))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Session ")
	require.NoError(t, err)
	assert.Equal(t, KindSession, k)

	k, err = ParseKind("class")
	require.NoError(t, err)
	assert.Equal(t, KindClass, k)

	_, err = ParseKind("roster")
	assert.Error(t, err)
}

func TestValidate_UnknownKind(t *testing.T) {
	err := Validate(Kind("roster"), []byte(`{}`))
	require.Error(t, err)
	assert.Empty(t, Errors(err))
}

func TestValidateAgainst(t *testing.T) {
	ref := []byte(`{
		"type": "object",
		"required": ["nombreproyecto"],
		"properties": {"nombreproyecto": {"type": "string"}}
	}`)

	t.Run("matching document", func(t *testing.T) {
		assert.NoError(t, ValidateAgainst(ref, []byte(`{"nombreproyecto":"Huerto"}`)))
	})

	t.Run("missing property", func(t *testing.T) {
		err := ValidateAgainst(ref, []byte(`{"titulo":"x"}`))
		require.Error(t, err)
		var fe *FieldError
		require.True(t, errors.As(err, &fe))
		assert.Contains(t, fe.Problem, "does not match the reference structure")
	})

	t.Run("wrong type", func(t *testing.T) {
		assert.Error(t, ValidateAgainst(ref, []byte(`{"nombreproyecto":5}`)))
	})

	t.Run("broken schema", func(t *testing.T) {
		err := ValidateAgainst([]byte(`{"type": `), []byte(`{}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidSchema)
	})
}
