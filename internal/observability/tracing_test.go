package observability

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestInitTracing_DisabledWithoutURL(t *testing.T) {
	shutdown, err := InitTracing("weather-uk", "")
	if err != nil {
		t.Fatalf("InitTracing() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestInitTracing_Zipkin(t *testing.T) {
	// Nothing listens here; an idle provider never exports, so shutdown succeeds.
	shutdown, err := InitTracing("weather-uk", "http://127.0.0.1:1/api/v2/spans")
	if err != nil {
		t.Fatalf("InitTracing() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestInitTracing_InvalidURL(t *testing.T) {
	if _, err := InitTracing("weather-uk", "://bad"); err == nil {
		t.Fatal("InitTracing() expected error for invalid URL")
	}
}

// TestFlushTelemetry verifies that every step runs and failures are joined.
func TestFlushTelemetry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather-uk.prom")
	logger, err := NewLogger("info", filepath.Join(t.TempDir(), "weather-uk.log"))
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	called := false
	if err := FlushTelemetry(context.Background(), logger, path, func(context.Context) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("FlushTelemetry() error = %v", err)
	}
	if !called {
		t.Error("tracing shutdown not called")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("metrics textfile not written: %v", err)
	}

	errStop := errors.New("exporter stuck")
	// A directory where the textfile should go makes the write fail.
	badPath := t.TempDir()
	err = FlushTelemetry(context.Background(), zap.NewNop(), badPath, func(context.Context) error { return errStop })
	if !errors.Is(err, errStop) {
		t.Errorf("FlushTelemetry() error = %v, want it to include the tracing error", err)
	}
	if err == nil || !strings.Contains(err.Error(), "metrics") || !strings.Contains(err.Error(), "shutdown tracing") {
		t.Errorf("FlushTelemetry() error = %v, want both failures", err)
	}
}
