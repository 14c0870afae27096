package telemetry

import (
	"context"
	"testing"

	"github.com/diewo77/go-dealership/internal/config"
	"github.com/diewo77/go-dealership/internal/logger"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	shutdown := Setup(context.Background(), config.TelemetryConfig{ServiceName: "test"}, logger.Discard())
	if shutdown == nil {
		t.Fatal("expected a shutdown func")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown returned %v", err)
	}
}
