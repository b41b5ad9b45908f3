package trace

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

func TestInitTrace_InstallsProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	// The gRPC exporter dials lazily, so an unused port is fine here.
	shutdown, err := InitTrace("127.0.0.1:1", "allat-test")
	if err != nil {
		t.Fatalf("InitTrace: %v", err)
	}
	if shutdown == nil {
		t.Fatal("shutdown is nil")
	}
	if otel.GetTracerProvider() == prev {
		t.Fatal("global tracer provider was not replaced")
	}

	_, span := otel.Tracer(TracerTranscript).Start(context.Background(), "probe")
	if !span.SpanContext().IsValid() {
		t.Fatal("span context is not valid")
	}
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}
