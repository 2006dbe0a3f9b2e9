// Package telemetry provides OpenTelemetry instrumentation for middleout.
//
// Traces and metrics are exported over OTLP (gRPC or HTTP/protobuf) to a
// collector. Telemetry is disabled by default; a disabled instance hands out
// the global no-op providers.
//
// # Usage
//
//	tel, err := telemetry.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	svc, err := compression.NewService(
//	    compression.WithTracerProvider(tel.TracerProvider()),
//	    compression.WithMeterProvider(tel.MeterProvider()),
//	)
//
// # Configuration
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  protocol: grpc          # or http/protobuf
//	  insecure: true          # loopback endpoints only
//	  sampling:
//	    rate: 1.0
//	  metrics:
//	    export_interval: 15s
//
// # Error Handling
//
// Exporter failures do not stop the program. The instance is marked
// degraded, Health reports why, and instrumentation falls back to no-ops.
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	svc, _ := compression.NewService(
//	    compression.WithTracerProvider(tt.TracerProvider()),
//	    compression.WithMeterProvider(tt.MeterProvider()),
//	)
//	...
//	tt.AssertSpanExists(t, "compression.compress")
//	tt.CounterValue(t, "compression.operations_total")
package telemetry
