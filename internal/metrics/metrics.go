package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the engine's Prometheus instruments behind a private
// registry. A nil *Collector is valid and records nothing, so callers can
// leave metrics unwired.
type Collector struct {
	registry          *prometheus.Registry
	casesEvaluated    prometheus.Counter
	evaluationSeconds prometheus.Histogram
	checkResults      *prometheus.CounterVec
	actionsCreated    prometheus.Counter
	actionFailures    prometheus.Counter
	scoreDistribution prometheus.Histogram
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		casesEvaluated: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "compliance_cases_evaluated_total",
			Help: "Total number of case compliance evaluations",
		}),
		evaluationSeconds: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "compliance_evaluation_duration_seconds",
			Help:    "Time taken to evaluate one case",
			Buckets: prometheus.DefBuckets,
		}),
		checkResults: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "compliance_check_results_total",
			Help: "Rule check outcomes by status",
		}, []string{"status"}),
		actionsCreated: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "compliance_actions_created_total",
			Help: "Remediation actions created or refreshed",
		}),
		actionFailures: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "compliance_action_failures_total",
			Help: "Remediation action creations that failed",
		}),
		scoreDistribution: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "compliance_score_distribution",
			Help:    "Distribution of case compliance scores",
			Buckets: []float64{0, 20, 40, 60, 80, 100},
		}),
	}
}

// RecordEvaluation records one completed case evaluation.
func (c *Collector) RecordEvaluation(duration time.Duration, score int) {
	if c == nil {
		return
	}
	c.casesEvaluated.Inc()
	c.evaluationSeconds.Observe(duration.Seconds())
	c.scoreDistribution.Observe(float64(score))
}

// RecordCheck records one rule check outcome.
func (c *Collector) RecordCheck(status string) {
	if c == nil {
		return
	}
	c.checkResults.WithLabelValues(status).Inc()
}

// RecordActionCreated records a successful remediation action upsert.
func (c *Collector) RecordActionCreated() {
	if c == nil {
		return
	}
	c.actionsCreated.Inc()
}

// RecordActionFailure records a failed remediation action upsert.
func (c *Collector) RecordActionFailure() {
	if c == nil {
		return
	}
	c.actionFailures.Inc()
}

// Handler exposes the collector's registry for a /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
