// Package telemetry wires OpenTelemetry tracing and metrics for sesiond.
//
// Spans and metrics are exported over OTLP (gRPC or HTTP/protobuf) to a
// collector. Telemetry is off by default; the Prometheus /metrics endpoint
// works either way.
//
// # Usage
//
//	tel, err := telemetry.New(ctx, telemetry.FromObservability(cfg.Observability, version))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx, span := tel.Tracer("sesiond/generator").Start(ctx, "generator.render")
//	defer span.End()
//
// # Configuration
//
//	observability:
//	  enable_telemetry: true
//	  otlp_endpoint: "localhost:4317"
//	  otlp_protocol: "grpc"   # or "http/protobuf"
//	  otlp_insecure: true     # loopback endpoints only
//
// # Error Handling
//
// Exporter setup failures mark the instance degraded (see Health) and
// callers keep working against no-op providers.
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	_, span := tt.Tracer("test").Start(ctx, "test-span")
//	span.End()
//	tt.AssertSpanExists(t, "test-span")
package telemetry
