package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
)

// saveGlobals snapshots the process-wide tracer provider and
// propagator that SetupTracing overwrites, restoring them after the
// test.
func saveGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func setupTestTracing(t *testing.T, cfg TracerConfig) {
	t.Helper()
	saveGlobals(t)
	tp, err := SetupTracing(context.Background(), cfg)
	if err != nil {
		t.Fatalf("SetupTracing() error = %v", err)
	}
	t.Cleanup(func() {
		if err := ShutdownTracing(context.Background(), tp); err != nil {
			t.Errorf("ShutdownTracing() error = %v", err)
		}
	})
}

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig()

	if cfg.ExporterType != "none" {
		t.Errorf("ExporterType = %q, want tracing off by default", cfg.ExporterType)
	}
	if cfg.ServiceName != "nupanel" {
		t.Errorf("ServiceName = %q, want nupanel", cfg.ServiceName)
	}
	if cfg.ServiceVersion == "" {
		t.Error("ServiceVersion is empty")
	}
	if cfg.SamplingRate != 1.0 {
		t.Errorf("SamplingRate = %v, want 1.0", cfg.SamplingRate)
	}
}

func TestSetupTracing_NoneKeepsPropagatorUntouched(t *testing.T) {
	saveGlobals(t)
	otel.SetTextMapPropagator(propagation.Baggage{})

	tp, err := SetupTracing(context.Background(), DefaultTracerConfig())
	if err != nil {
		t.Fatalf("SetupTracing() error = %v", err)
	}
	defer func() {
		if err := ShutdownTracing(context.Background(), tp); err != nil {
			t.Errorf("ShutdownTracing() error = %v", err)
		}
	}()

	for _, field := range otel.GetTextMapPropagator().Fields() {
		if field == "traceparent" {
			t.Error("none exporter installed trace context propagation")
		}
	}

	// Spans still start and carry valid contexts, they just go nowhere.
	_, span := StartSpan(context.Background(), "nupanel.test", "noop")
	defer span.End()
	if !span.SpanContext().IsValid() {
		t.Error("span context invalid under the none exporter")
	}
}

func TestSetupTracing_StdoutInstallsPropagation(t *testing.T) {
	cfg := DefaultTracerConfig()
	cfg.ExporterType = "stdout"
	cfg.SamplingRate = 0 // drop every span so nothing prints
	setupTestTracing(t, cfg)

	sawTraceparent := false
	for _, field := range otel.GetTextMapPropagator().Fields() {
		if field == "traceparent" {
			sawTraceparent = true
		}
	}
	if !sawTraceparent {
		t.Error("stdout exporter did not install W3C trace context propagation")
	}

	_, span := StartSpan(context.Background(), "nupanel.test", "dropped")
	span.End()
	if span.SpanContext().IsSampled() {
		t.Error("root span sampled despite a zero sampling rate")
	}
}

func TestSetupTracing_RejectsUnknownExporter(t *testing.T) {
	saveGlobals(t)

	cfg := DefaultTracerConfig()
	cfg.ExporterType = "jaeger"

	_, err := SetupTracing(context.Background(), cfg)
	if err == nil {
		t.Fatal("SetupTracing() accepted an unknown exporter type")
	}
	if !strings.Contains(err.Error(), "jaeger") {
		t.Errorf("error %q does not name the rejected exporter", err)
	}
}

func TestStartSpan_RoundTripsThroughContext(t *testing.T) {
	setupTestTracing(t, DefaultTracerConfig())

	ctx, span := StartSpan(context.Background(), "nupanel.test", "lookup")
	defer span.End()

	SetAttributes(ctx, attribute.Int("result.count", 3))

	got := SpanFromContext(ctx)
	if got.SpanContext().TraceID() != span.SpanContext().TraceID() {
		t.Error("SpanFromContext() returned a span from a different trace")
	}
}

func TestShutdownTracing_Flushes(t *testing.T) {
	saveGlobals(t)
	tp, err := SetupTracing(context.Background(), DefaultTracerConfig())
	if err != nil {
		t.Fatalf("SetupTracing() error = %v", err)
	}

	_, span := StartSpan(context.Background(), "nupanel.test", "pending")
	span.End()

	if err := ShutdownTracing(context.Background(), tp); err != nil {
		t.Errorf("ShutdownTracing() error = %v", err)
	}
}

func TestSetupTracing_OTLPRoundTrip(t *testing.T) {
	// Needs a local collector:
	//   docker run -d -p 4317:4317 jaegertracing/all-in-one:latest
	const endpoint = "localhost:4317"

	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Skipf("no OTLP collector at %s: %v", endpoint, err)
	}
	defer conn.Close()

	waitCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn.Connect()
	for state := conn.GetState(); state != connectivity.Ready; state = conn.GetState() {
		if state == connectivity.Shutdown || state == connectivity.TransientFailure {
			t.Skipf("no OTLP collector at %s (connection state %v)", endpoint, state)
		}
		if !conn.WaitForStateChange(waitCtx, state) {
			t.Skipf("no OTLP collector at %s (connect timed out)", endpoint)
		}
	}

	saveGlobals(t)
	cfg := DefaultTracerConfig()
	cfg.ExporterType = "otlp"
	cfg.OTLPEndpoint = endpoint
	cfg.OTLPInsecure = true

	tp, err := SetupTracing(context.Background(), cfg)
	if err != nil {
		t.Fatalf("SetupTracing() error = %v", err)
	}

	ctx, span := StartSpan(context.Background(), "nupanel.test", "otlp.roundtrip")
	SetAttributes(ctx, attribute.String("collector", endpoint))
	span.End()

	if err := ShutdownTracing(context.Background(), tp); err != nil {
		t.Errorf("ShutdownTracing() error = %v", err)
	}
}
