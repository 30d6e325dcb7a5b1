// Package metrics provides the Prometheus-backed implementation of
// pipeline.Recorder, plus a small chi-mounted HTTP server exposing it.
package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements pipeline.Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once         sync.Once
	stepDuration *prom.HistogramVec
	stepResults  *prom.CounterVec
	cacheHits    *prom.CounterVec
	gateTrips    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the pipeline metrics
// against reg (a fresh prometheus.Registry if nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stepDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "powerforge",
			Name:      "step_duration_seconds",
			Help:      "Duration of individual pipeline steps",
			Buckets:   prom.DefBuckets,
		}, []string{"task"})
		pr.stepResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "powerforge",
			Name:      "step_results_total",
			Help:      "Step result counts by outcome",
		}, []string{"task", "result"})
		pr.cacheHits = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "powerforge",
			Name:      "cache_hits_total",
			Help:      "Step cache hit/miss counts",
		}, []string{"task", "hit"})
		pr.gateTrips = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "powerforge",
			Name:      "gate_trips_total",
			Help:      "Audit/verify gate trips by code",
		}, []string{"code"})
		reg.MustRegister(pr.stepDuration, pr.stepResults, pr.cacheHits, pr.gateTrips)
	})
	return pr
}

// StepStarted implements pipeline.Recorder.
func (p *PrometheusRecorder) StepStarted(task string) {}

// StepFinished implements pipeline.Recorder.
func (p *PrometheusRecorder) StepFinished(task string, cacheHit, success bool, duration time.Duration) {
	if p == nil {
		return
	}
	if p.cacheHits != nil {
		hit := "false"
		if cacheHit {
			hit = "true"
		}
		p.cacheHits.WithLabelValues(task, hit).Inc()
	}
	if p.stepDuration != nil && !cacheHit {
		p.stepDuration.WithLabelValues(task).Observe(duration.Seconds())
	}
	if p.stepResults != nil {
		result := "success"
		if !success {
			result = "failure"
		}
		p.stepResults.WithLabelValues(task, result).Inc()
	}
}

// GateTripped implements pipeline.Recorder.
func (p *PrometheusRecorder) GateTripped(code string) {
	if p == nil || p.gateTrips == nil {
		return
	}
	p.gateTrips.WithLabelValues(code).Inc()
}
