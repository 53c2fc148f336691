// Package telemetry exposes pipeline and preview counters to prometheus.
package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the process-level collectors. Construct with New and
// share one instance between the pipeline and the preview generator.
type Metrics struct {
	StepExecutions *prometheus.CounterVec
	StepDuration   *prometheus.HistogramVec
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	PreviewRenders *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StepExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardpipe",
			Name:      "step_executions_total",
			Help:      "Step executions by step id and outcome.",
		}, []string{"step", "status"}),
		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cardpipe",
			Name:      "step_duration_seconds",
			Help:      "Step execution duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cardpipe",
			Name:      "step_cache_hits_total",
			Help:      "Step-result cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cardpipe",
			Name:      "step_cache_misses_total",
			Help:      "Step-result cache misses.",
		}),
		PreviewRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardpipe",
			Name:      "preview_renders_total",
			Help:      "Preview renders by mode (full, delta, background).",
		}, []string{"mode"}),
	}
	reg.MustRegister(m.StepExecutions, m.StepDuration, m.CacheHits, m.CacheMisses, m.PreviewRenders)
	return m
}

// ObserveStep records one step execution.
func (m *Metrics) ObserveStep(stepID, status string, dur time.Duration) {
	m.StepExecutions.WithLabelValues(stepID, status).Inc()
	m.StepDuration.WithLabelValues(stepID).Observe(dur.Seconds())
}

// Handler serves the given gatherer's metrics in the exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Expose serves the given gatherer on /metrics at the given port.
func Expose(g prometheus.Gatherer, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	go func() {
		_ = http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
	}()
}
