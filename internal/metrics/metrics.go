// Package metrics exposes scenario outcomes as Prometheus series.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"quoteScope/internal/model"
)

type Recorder struct {
	registry *prometheus.Registry
	outcomes *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	lastRun  *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quotecheck_scenarios_total",
			Help: "Scenario outcomes by kind, status and failure class.",
		}, []string{"kind", "status", "class"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quotecheck_quote_latency_seconds",
			Help:    "Observed quote request latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"kind"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "quotecheck_last_run_scenarios",
			Help: "Scenario counts of the last completed run by status.",
		}, []string{"status"}),
	}
	r.registry.MustRegister(r.outcomes, r.latency, r.lastRun)
	return r
}

// Registry returns the registry holding the recorder's series.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records one scenario result. Requests that never got a response carry no latency.
func (r *Recorder) Observe(res model.ScenarioResult) {
	r.outcomes.WithLabelValues(string(res.Kind), string(res.Status), string(res.Class)).Inc()
	if res.LatencyMs > 0 {
		r.latency.WithLabelValues(string(res.Kind)).Observe(float64(res.LatencyMs) / 1000)
	}
}

// ObserveSummary sets the last-run gauges.
func (r *Recorder) ObserveSummary(sum model.RunSummary) {
	r.lastRun.WithLabelValues(string(model.StatusPassed)).Set(float64(sum.Passed))
	r.lastRun.WithLabelValues(string(model.StatusFailed)).Set(float64(sum.Failed))
	r.lastRun.WithLabelValues(string(model.StatusSkipped)).Set(float64(sum.Skipped))
}

// Push sends the registry to a Pushgateway, grouped by run id.
func (r *Recorder) Push(ctx context.Context, url, job, runID string) error {
	if url == "" {
		return nil
	}
	pusher := push.New(url, job).Gatherer(r.registry)
	if runID != "" {
		pusher = pusher.Grouping("run_id", runID)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
