package otel

import (
	"context"
	"testing"
)

func TestSetupDisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("BRIDGE_OTEL_ENDPOINT", "")

	shutdown, err := Setup(context.Background(), "test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("expected no-op shutdown, got %v", err)
	}
}

func TestSetupExplicitlyDisabled(t *testing.T) {
	t.Setenv("BRIDGE_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("BRIDGE_OTEL_ENABLED", "FALSE")

	shutdown, err := Setup(context.Background(), "test")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("expected no-op shutdown, got %v", err)
	}
}
