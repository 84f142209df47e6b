package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/speech-steps/backend/internal/config"
)

func TestSetup_NoopWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), "test-service", config.TelemetryConfig{Enabled: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopWhenDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), "test-service", config.TelemetryConfig{
		Endpoint: "http://localhost:4318",
		Enabled:  false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_InstallsProviders(t *testing.T) {
	// Non-routable address: nothing is exported before shutdown.
	shutdown, err := Setup(context.Background(), "test-service", config.TelemetryConfig{
		Endpoint: "http://192.0.2.1:4318/",
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestLoggerWritesLocally(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "github.com/speech-steps/backend/internal/content")

	logger.With("topic", "clothes").WarnContext(context.Background(), "content request failed", "error", "boom")

	out := buf.String()
	for _, want := range []string{"level=WARN", `msg="content request failed"`, "topic=clothes", "error=boom", "scope=github.com/speech-steps/backend/internal/content"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "scope").DebugContext(context.Background(), "hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("debug record written: %q", buf.String())
	}
}
