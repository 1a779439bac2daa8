// Package logging provides structured logging with OpenTelemetry integration.
//
// Logger wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Dual output (stdout + OpenTelemetry via otelzap)
//   - Automatic context fields (trace_id, span_id, request.id)
//   - Redaction of credentials and student data by field name and pattern
//   - Per-level sampling (errors never sampled)
//
// # Usage
//
//	cfg, err := logging.FromObservability(appCfg.Observability)
//	logger, err := logging.NewLogger(cfg, otelLoggerProvider)
//	defer logger.Sync()
//
//	ctx = logging.WithRequestID(ctx, "5f0c...")
//	logger.Info(ctx, "document generated", zap.String("file", name))
//
// # Redaction
//
// Roster fields such as nombre and fechanacimiento identify children. The
// encoder replaces them with [REDACTED] wherever they appear as a field key,
// including dotted keys like "student.nombre". Use RedactedString when a
// value must be logged by length only.
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertNoSecrets(t)
package logging
