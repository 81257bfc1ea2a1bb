package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stocksignal"

// Metrics holds the Prometheus collectors for the analysis pipeline.
type Metrics struct {
	AnalysesTotal     *prometheus.CounterVec // labels: outcome
	AnalysisDuration  prometheus.Histogram
	ScoreDistribution prometheus.Histogram
	FetchesTotal      *prometheus.CounterVec // labels: source, outcome
	CacheLookups      *prometheus.CounterVec // labels: layer, result
	IndicatorsMissing *prometheus.CounterVec // labels: indicator
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AnalysesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Ticker analyses by outcome (verdict or error kind)",
		}, []string{"outcome"}),
		AnalysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end latency of a ticker analysis",
			Buckets:   prometheus.DefBuckets,
		}),
		ScoreDistribution: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score",
			Help:      "Composite scores produced by successful analyses",
			Buckets:   prometheus.LinearBuckets(-6, 1, 13),
		}),
		FetchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "fetches_total",
			Help:      "Provider calls by source and outcome",
		}, []string{"source", "outcome"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by layer and result",
		}, []string{"layer", "result"}),
		IndicatorsMissing: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indicators_unavailable_total",
			Help:      "Indicator values that could not be computed",
		}, []string{"indicator"}),
	}
}

func (m *Metrics) AnalysisCompleted(outcome string, score *int, d time.Duration) {
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.Observe(d.Seconds())
	if score != nil {
		m.ScoreDistribution.Observe(float64(*score))
	}
}

func (m *Metrics) FetchAttempt(source, outcome string) {
	m.FetchesTotal.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) CacheLookup(layer string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(layer, result).Inc()
}

func (m *Metrics) IndicatorUnavailable(name string) {
	m.IndicatorsMissing.WithLabelValues(name).Inc()
}
