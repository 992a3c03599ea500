// Package metrics exports Prometheus instrumentation for resolution passes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/boq-resolver/internal/model"
)

// Metrics holds the resolver's Prometheus collectors.
type Metrics struct {
	CandidatesResolved *prometheus.CounterVec
	ReviewRequired     prometheus.Counter
	ConversionsApplied *prometheus.CounterVec
	Outliers           prometheus.Counter
	Batches            *prometheus.CounterVec
	BatchDuration      prometheus.Histogram
	BatchSize          prometheus.Histogram

	registry *prometheus.Registry
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		CandidatesResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "boq_candidates_resolved_total",
			Help: "Candidates resolved, by terminal outcome and confidence",
		}, []string{"outcome", "confidence"}),
		ReviewRequired: factory.NewCounter(prometheus.CounterOpts{
			Name: "boq_candidates_review_required_total",
			Help: "Candidates flagged for manual review",
		}),
		ConversionsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "boq_unit_conversions_applied_total",
			Help: "Quantities converted into the matched record's unit, by rule",
		}, []string{"rule"}),
		Outliers: factory.NewCounter(prometheus.CounterOpts{
			Name: "boq_factor_outliers_total",
			Help: "Resolved factors flagged as category outliers",
		}),
		Batches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "boq_batches_total",
			Help: "Resolution batches, by jurisdiction and result",
		}, []string{"jurisdiction", "result"}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "boq_batch_duration_seconds",
			Help:    "Time to resolve one batch",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "boq_batch_size",
			Help:    "Candidates per batch",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		registry: reg,
	}
}

// AdHocJurisdiction is the jurisdiction label for batches resolved against
// a jurisdiction that is not registered. Free-form names never become labels.
const AdHocJurisdiction = "adhoc"

// ObserveBatch records a successful batch.
func (m *Metrics) ObserveBatch(jurisdiction string, resolved []model.ResolvedMaterial, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Batches.WithLabelValues(jurisdiction, "ok").Inc()
	m.BatchDuration.Observe(elapsed.Seconds())
	m.BatchSize.Observe(float64(len(resolved)))

	for _, r := range resolved {
		m.CandidatesResolved.WithLabelValues(string(r.Outcome), string(r.ConfidenceLevel)).Inc()
		if r.RequiresReview {
			m.ReviewRequired.Inc()
		}
		if r.UnitConversionApplied {
			m.ConversionsApplied.WithLabelValues(r.ConversionRule).Inc()
		}
		if r.IsOutlier {
			m.Outliers.Inc()
		}
	}
}

// ObserveFailure records a batch rejected before resolution.
func (m *Metrics) ObserveFailure(jurisdiction string) {
	if m == nil {
		return
	}
	m.Batches.WithLabelValues(jurisdiction, "error").Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
