// Package metrics holds the Prometheus collectors for the service. A nil
// *Metrics is valid and records nothing, so components can be built without
// one in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nyashahama/stroke-risk-backend/internal/scoring"
)

const namespace = "strokerisk"

// Source labels where an evaluation came from.
const (
	SourceHTTP  = "http"
	SourceBatch = "batch"
	SourceGRPC  = "grpc"
)

// Failure reasons.
const (
	ReasonValidation = "validation"
	ReasonInternal   = "internal"
)

type Metrics struct {
	EvaluationsTotal        *prometheus.CounterVec
	EvaluationFailuresTotal *prometheus.CounterVec
	SixMonthRisk            prometheus.Histogram
	HTTPRequestDuration     *prometheus.HistogramVec
	JobsTotal               *prometheus.CounterVec
	NarrativeFailuresTotal  prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers every collector with reg. Pass prometheus.NewRegistry() in
// tests to keep them isolated from the global registry.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EvaluationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Successful risk evaluations by source and risk level.",
		}, []string{"source", "risk_level"}),

		EvaluationFailuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_failures_total",
			Help:      "Rejected or failed evaluations by source and reason.",
		}, []string{"source", "reason"}),

		SixMonthRisk: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "six_month_risk_percent",
			Help:      "Distribution of computed six-month risk percentages.",
			Buckets:   []float64{0.1, 0.5, 1.2, 2.8, 5.5, 9.0, 15.0},
		}),

		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		JobsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_jobs_total",
			Help:      "Follow-up jobs by outcome.",
		}, []string{"outcome"}),

		NarrativeFailuresTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrative_failures_total",
			Help:      "Narrative generation calls that failed on every backend.",
		}),

		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveEvaluation(source string, res scoring.RiskResult) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(source, string(res.RiskLevel)).Inc()
	m.SixMonthRisk.Observe(res.SixMonthRisk)
}

func (m *Metrics) ObserveEvaluationFailure(source, reason string) {
	if m == nil {
		return
	}
	m.EvaluationFailuresTotal.WithLabelValues(source, reason).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) ObserveJob(outcome string) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveNarrativeFailure() {
	if m == nil {
		return
	}
	m.NarrativeFailuresTotal.Inc()
}
