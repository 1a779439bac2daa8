package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func encodeFields(t *testing.T, cfg RedactionConfig, fields ...zap.Field) string {
	t.Helper()
	enc, err := NewRedactingEncoder(newEncoder("json"), cfg)
	require.NoError(t, err)
	buf, err := enc.EncodeEntry(zapcore.Entry{Message: "m", Time: time.Unix(0, 0)}, fields)
	require.NoError(t, err)
	defer buf.Free()
	return buf.String()
}

func TestRedactedString(t *testing.T) {
	f := RedactedString("nombre", "María")
	assert.Equal(t, "[REDACTED:6]", f.String)
}

func TestRedactingEncoder_FieldNames(t *testing.T) {
	out := encodeFields(t, NewDefaultConfig().Redaction,
		zap.String("Nombre", "Luis"),
		zap.ByteString("token", []byte("t0k")),
		zap.Any("estudiantes", []string{"Luis", "Ana"}),
		zap.String("aula", "Girasoles"),
	)

	assert.NotContains(t, out, "Luis")
	assert.NotContains(t, out, "t0k")
	assert.Contains(t, out, `"Nombre":"[REDACTED]"`)
	assert.Contains(t, out, `"estudiantes":"[REDACTED]"`)
	assert.Contains(t, out, `"aula":"Girasoles"`)
}

func TestRedactingEncoder_Patterns(t *testing.T) {
	out := encodeFields(t, NewDefaultConfig().Redaction,
		zap.String("note", "api_key=abc123"),
		zap.String("ok", "plain"),
	)
	assert.Contains(t, out, `"note":"[REDACTED:pattern]"`)
	assert.Contains(t, out, `"ok":"plain"`)
}

func TestRedactingEncoder_Disabled(t *testing.T) {
	out := encodeFields(t, RedactionConfig{Enabled: false, Patterns: []string{"[invalid("}},
		zap.String("nombre", "Luis"))
	assert.Contains(t, out, "Luis")
}

func TestNewRedactingEncoder_InvalidPattern(t *testing.T) {
	enc, err := NewRedactingEncoder(newEncoder("json"), RedactionConfig{
		Enabled:  true,
		Patterns: []string{"[invalid("},
	})
	assert.Nil(t, enc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redaction pattern")
}

func TestRedactingEncoder_CloneKeepsRules(t *testing.T) {
	enc, err := NewRedactingEncoder(newEncoder("json"), NewDefaultConfig().Redaction)
	require.NoError(t, err)

	clone := enc.Clone().(*RedactingEncoder)
	assert.True(t, clone.shouldRedactKey("fechanacimiento"))
	assert.True(t, clone.shouldRedactKey("roster.docente"))
	assert.False(t, clone.shouldRedactKey("nombreproyecto"))
}
