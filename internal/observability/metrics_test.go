package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestMetrics_Usable verifies that all Prometheus metrics can be used without
// panic, ensuring label dimensions match usage across client and service.
func TestMetrics_Usable(t *testing.T) {
	DatapointRequestsTotal.WithLabelValues("get_forecast", "success").Inc()
	DatapointRequestDuration.WithLabelValues("list_locations", "server_error").Observe(0.2)
	DatapointErrorsTotal.WithLabelValues("decode").Inc()
	LocationCacheHitsTotal.Inc()
	LocationCacheErrorsTotal.WithLabelValues("get", "timeout").Inc()
	DecodedLocations.Set(5988)

	if got := testutil.ToFloat64(DecodedLocations); got != 5988 {
		t.Errorf("DecodedLocations = %v, want 5988", got)
	}
	before := testutil.ToFloat64(DatapointErrorsTotal.WithLabelValues("timeout"))
	DatapointErrorsTotal.WithLabelValues("timeout").Inc()
	if got := testutil.ToFloat64(DatapointErrorsTotal.WithLabelValues("timeout")); got != before+1 {
		t.Errorf("DatapointErrorsTotal{timeout} = %v, want %v", got, before+1)
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "success"},
		{204, "success"},
		{401, "unauthorized"},
		{403, "unauthorized"},
		{404, "client_error"},
		{429, "rate_limited"},
		{500, "server_error"},
		{503, "server_error"},
		{302, "error"},
	}
	for _, tt := range tests {
		if got := StatusLabel(tt.code); got != tt.want {
			t.Errorf("StatusLabel(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

// TestWriteTextfile verifies that WriteTextfile writes the registry in
// Prometheus text exposition format, creating the directory.
func TestWriteTextfile(t *testing.T) {
	DatapointRequestsTotal.WithLabelValues("authenticate", "success").Inc()

	path := filepath.Join(t.TempDir(), "textfile", "weather-uk.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	body := string(data)
	for _, want := range []string{"# TYPE datapointRequestsTotal counter", `datapointRequestsTotal{operation="authenticate",status="success"}`} {
		if !strings.Contains(body, want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}

func TestWriteTextfile_EmptyPathIsNoop(t *testing.T) {
	if err := WriteTextfile(""); err != nil {
		t.Fatalf("WriteTextfile(\"\") error = %v", err)
	}
}
