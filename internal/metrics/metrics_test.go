package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/stroke-risk-backend/internal/metrics"
	"github.com/nyashahama/stroke-risk-backend/internal/scoring"
)

func TestObserveEvaluation(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	res, err := scoring.Evaluate(scoring.HealthRecord{Age: 30})
	require.NoError(t, err)

	m.ObserveEvaluation(metrics.SourceHTTP, res)
	m.ObserveEvaluation(metrics.SourceHTTP, res)
	m.ObserveEvaluation(metrics.SourceGRPC, res)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("http", "low")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EvaluationsTotal.WithLabelValues("grpc", "low")))
}

func TestObserveFailuresAndJobs(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveEvaluationFailure(metrics.SourceBatch, metrics.ReasonValidation)
	m.ObserveJob("done")
	m.ObserveJob("done")
	m.ObserveNarrativeFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EvaluationFailuresTotal.WithLabelValues("batch", "validation")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.JobsTotal.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NarrativeFailuresTotal))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveEvaluation(metrics.SourceHTTP, scoring.RiskResult{})
		m.ObserveEvaluationFailure(metrics.SourceHTTP, metrics.ReasonInternal)
		m.ObserveHTTP("GET", "/healthz", 200, time.Millisecond)
		m.ObserveJob("failed")
		m.ObserveNarrativeFailure()
	})
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	m.ObserveHTTP("POST", "/api/evaluate", 200, 25*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(string(body), "strokerisk_http_request_duration_seconds"),
		"metrics output missing histogram:\n%s", body)
}
