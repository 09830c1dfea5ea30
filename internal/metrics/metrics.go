// Package metrics exposes Prometheus collectors for the pipeline service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineRunsTotal          *prometheus.CounterVec
	pipelineArticlesTotal      *prometheus.CounterVec
	pipelineStageErrorsTotal   *prometheus.CounterVec
	pipelineStageDuration      *prometheus.HistogramVec
	pipelineClusters           prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pipelineRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_runs_total",
				Help: "Total number of pipeline runs, labeled by result.",
			},
			[]string{"result"},
		)

		pipelineArticlesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_articles_total",
				Help: "Total number of articles processed, labeled by stage.",
			},
			[]string{"stage"},
		)

		pipelineStageErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_stage_errors_total",
				Help: "Total number of per-item and per-stage errors, labeled by stage.",
			},
			[]string{"stage"},
		)

		pipelineStageDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_stage_duration_seconds",
				Help:    "Histogram of stage wall time, labeled by stage.",
				Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 300},
			},
			[]string{"stage"},
		)

		pipelineClusters = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "pipeline_clusters",
				Help: "Number of clusters produced by the most recent run.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// IncRun counts a completed pipeline run with the given result label.
func IncRun(result string) {
	if pipelineRunsTotal == nil {
		return
	}
	pipelineRunsTotal.WithLabelValues(result).Inc()
}

// AddArticles counts articles that passed a stage.
func AddArticles(stage string, n int) {
	if pipelineArticlesTotal == nil {
		return
	}
	pipelineArticlesTotal.WithLabelValues(stage).Add(float64(n))
}

// IncStageError counts an error in a stage.
func IncStageError(stage string) {
	if pipelineStageErrorsTotal == nil {
		return
	}
	pipelineStageErrorsTotal.WithLabelValues(stage).Inc()
}

// ObserveStage records how long a stage took.
func ObserveStage(stage string, d time.Duration) {
	if pipelineStageDuration == nil {
		return
	}
	pipelineStageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// SetClusters records the cluster count of the most recent run.
func SetClusters(n int) {
	if pipelineClusters == nil {
		return
	}
	pipelineClusters.Set(float64(n))
}

// ObserveHTTPRequest records request counters and latency.
func ObserveHTTPRequest(method, route string, code int, d time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, statusLabel(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
