package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quoteScope/internal/model"
)

func TestRecorderObserve(t *testing.T) {
	r := NewRecorder()
	r.Observe(model.ScenarioResult{Kind: model.KindNumeraireIn, Status: model.StatusPassed, LatencyMs: 120})
	r.Observe(model.ScenarioResult{Kind: model.KindNumeraireIn, Status: model.StatusPassed, LatencyMs: 80})
	r.Observe(model.ScenarioResult{Kind: model.KindOrderbook, Status: model.StatusFailed, Class: model.ClassServiceError, LatencyMs: 10})
	r.Observe(model.ScenarioResult{Kind: model.KindTransmuter, Status: model.StatusSkipped})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.outcomes.WithLabelValues("numeraire_in", "passed", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.outcomes.WithLabelValues("orderbook", "failed", "service_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.outcomes.WithLabelValues("transmuter", "skipped", "")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.latency))

	r.ObserveSummary(model.RunSummary{Passed: 2, Failed: 1, Skipped: 1})
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lastRun.WithLabelValues("failed")))
}

func TestRecorderPush(t *testing.T) {
	var path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path = req.URL.Path
		data, _ := io.ReadAll(req.Body)
		body = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRecorder()
	r.Observe(model.ScenarioResult{Kind: model.KindSimulation, Status: model.StatusPassed, LatencyMs: 5})
	require.NoError(t, r.Push(context.Background(), srv.URL, "quotecheck", "run-1"))
	assert.Equal(t, "/metrics/job/quotecheck/run_id/run-1", path)
	assert.Contains(t, body, "quotecheck_scenarios_total")

	require.NoError(t, r.Push(context.Background(), "", "quotecheck", "run-1"))
}
