package hooks

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Skryldev/webtools/core"
	apperrors "github.com/Skryldev/webtools/errors"
)

// ── Prometheus collector ──────────────────────────────────────────────────────

// PrometheusMetrics implements core.MetricsCollector on client_golang.
// Safe for concurrent use.
type PrometheusMetrics struct {
	stepDuration *prometheus.HistogramVec
	stepErrors   *prometheus.CounterVec
	bytes        *prometheus.CounterVec
	results      *prometheus.CounterVec
}

// NewPrometheusMetrics registers the webtools collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	f := promauto.With(reg)
	return &PrometheusMetrics{
		stepDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "webtools",
				Name:      "pipeline_step_duration_seconds",
				Help:      "Duration of image pipeline steps in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"step"},
		),
		stepErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "webtools",
				Name:      "pipeline_step_errors_total",
				Help:      "Total number of failed pipeline steps",
			},
			[]string{"step", "category"},
		),
		bytes: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "webtools",
				Name:      "image_bytes_total",
				Help:      "Image bytes read and written by the optimizer",
			},
			[]string{"direction"},
		),
		results: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "webtools",
				Name:      "optimize_results_total",
				Help:      "Optimize requests by output format and outcome",
			},
			[]string{"format", "status"},
		),
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(stepName string, d time.Duration) {
	m.stepDuration.WithLabelValues(stepName).Observe(d.Seconds())
}

func (m *PrometheusMetrics) RecordThroughput(direction string, bytes int64) {
	if bytes <= 0 {
		return
	}
	m.bytes.WithLabelValues(direction).Add(float64(bytes))
}

func (m *PrometheusMetrics) RecordError(stepName string, category string) {
	m.stepErrors.WithLabelValues(stepName, category).Inc()
}

func (m *PrometheusMetrics) RecordResult(format core.Format, status string) {
	m.results.WithLabelValues(string(format), status).Inc()
}

// ── Metrics hook ──────────────────────────────────────────────────────────────

// MetricsHook feeds pipeline events into a MetricsCollector.
type MetricsHook struct {
	collector core.MetricsCollector
}

// NewMetricsHook creates a MetricsHook.
func NewMetricsHook(c core.MetricsCollector) *MetricsHook { return &MetricsHook{collector: c} }

func (h *MetricsHook) BeforeStep(_ context.Context, _ string, _ *core.ImageData) {}

func (h *MetricsHook) AfterStep(_ context.Context, stepName string, _ *core.ImageData, d time.Duration, err error) {
	h.collector.RecordProcessingTime(stepName, d)
	if err != nil {
		cat := string(apperrors.CategoryOf(err))
		if cat == "" {
			cat = "unknown"
		}
		h.collector.RecordError(stepName, cat)
	}
}

var _ core.MetricsCollector = (*PrometheusMetrics)(nil)
