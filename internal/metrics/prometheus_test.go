package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestNewPrometheusRecorderRegistersMetrics(t *testing.T) {
	reg := prom.NewRegistry()
	recorder := NewPrometheusRecorder(reg)
	if recorder == nil {
		t.Fatal("expected a non-nil recorder")
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatal("expected registered metric families")
	}
}

func TestPrometheusRecorderStepFinishedRecordsOutcome(t *testing.T) {
	reg := prom.NewRegistry()
	recorder := NewPrometheusRecorder(reg)

	recorder.StepStarted("build")
	recorder.StepFinished("build", false, true, 10*time.Millisecond)
	recorder.StepFinished("verify", true, false, 0)
	recorder.GateTripped("AuditGateTripped")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}
	found := map[string]bool{}
	for _, mf := range mfs {
		found[mf.GetName()] = true
	}
	for _, want := range []string{
		"powerforge_step_duration_seconds",
		"powerforge_step_results_total",
		"powerforge_cache_hits_total",
		"powerforge_gate_trips_total",
	} {
		if !found[want] {
			t.Errorf("expected metric family %q to be registered, got %v", want, found)
		}
	}
}

func TestPrometheusRecorderNilSafe(t *testing.T) {
	var p *PrometheusRecorder
	p.StepStarted("build")
	p.StepFinished("build", false, true, 0)
	p.GateTripped("x")
}
