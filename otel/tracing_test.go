package otel_test

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	n8notel "github.com/skokaina/ark-n8n-custom-nodes/otel"
)

func TestSetupTracingDisabled(t *testing.T) {
	provider, shutdown, err := n8notel.SetupTracing(context.Background(), "  ", "n8n-mcp")
	if err != nil {
		t.Fatalf("SetupTracing() error = %v", err)
	}
	if _, ok := provider.(*sdktrace.TracerProvider); ok {
		t.Fatal("provider is an SDK provider, want no-op")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown() error = %v", err)
	}
}

func TestSetupTracingEnabled(t *testing.T) {
	provider, shutdown, err := n8notel.SetupTracing(context.Background(), "http://127.0.0.1:4318", "n8n-mcp")
	if err != nil {
		t.Fatalf("SetupTracing() error = %v", err)
	}
	if _, ok := provider.(*sdktrace.TracerProvider); !ok {
		t.Fatalf("provider = %T, want *sdktrace.TracerProvider", provider)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}

func TestSetupTracingRejectsInvalidEndpoint(t *testing.T) {
	for _, endpoint := range []string{"localhost:4318", "ftp://collector", "http://"} {
		if _, _, err := n8notel.SetupTracing(context.Background(), endpoint, "n8n-mcp"); err == nil {
			t.Fatalf("SetupTracing(%q) error = nil, want error", endpoint)
		}
	}
}
