package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestServerHealthz(t *testing.T) {
	s := NewServer(":0", prom.NewRegistry())
	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestServerMetricsEndpoint(t *testing.T) {
	reg := prom.NewRegistry()
	recorder := NewPrometheusRecorder(reg)
	recorder.StepFinished("build", false, true, 0)

	s := NewServer(":0", reg)
	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestServerShutdown(t *testing.T) {
	s := NewServer(":0", prom.NewRegistry())
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown on an unstarted server returned error: %v", err)
	}
}
