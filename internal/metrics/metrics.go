// Package metrics defines the Prometheus collectors for the ranking pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	BatchesTotal       *prometheus.CounterVec
	ResumesAnalyzed    prometheus.Counter
	FilesRejectedTotal *prometheus.CounterVec
	ExtractionDuration *prometheus.HistogramVec
	CombinedScore      prometheus.Histogram
	EmbeddingCache     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		BatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_batches_total",
				Help: "Ranked batches by outcome (ranked, empty).",
			},
			[]string{"outcome"},
		),
		ResumesAnalyzed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "resume_analyzed_total",
				Help: "Resumes that produced an analysis result.",
			},
		),
		FilesRejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_files_rejected_total",
				Help: "Uploaded files excluded from a batch, by reason.",
			},
			[]string{"reason"},
		),
		ExtractionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resume_extraction_duration_seconds",
				Help:    "Text extraction latency by document format.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"format"},
		),
		CombinedScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "resume_combined_score",
				Help:    "Distribution of combined match scores (0-100).",
				Buckets: prometheus.LinearBuckets(10, 10, 9),
			},
		),
		EmbeddingCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_embedding_cache_total",
				Help: "Embedding cache lookups by result (hit, miss, error).",
			},
			[]string{"result"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.BatchesTotal,
		m.ResumesAnalyzed,
		m.FilesRejectedTotal,
		m.ExtractionDuration,
		m.CombinedScore,
		m.EmbeddingCache,
	)

	return m
}

func (m *Metrics) ObserveBatch(outcome string) {
	if m == nil {
		return
	}
	m.BatchesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveResult(combinedScore float64) {
	if m == nil {
		return
	}
	m.ResumesAnalyzed.Inc()
	m.CombinedScore.Observe(combinedScore)
}

func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.FilesRejectedTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveExtraction(format string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ExtractionDuration.WithLabelValues(format).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.EmbeddingCache.WithLabelValues(result).Inc()
}

// Handler serves the registry this Metrics was created with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
