package lockmetrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter serves a Collector's collectors over HTTP, mirroring the
// teacher's MetricsCollector.GetMetrics()/"/metrics" handler shape but
// backed by promhttp instead of a hand-written text template.
type Exporter struct {
	collector *Collector
}

// NewExporter wraps collector for HTTP serving.
func NewExporter(collector *Collector) *Exporter {
	return &Exporter{collector: collector}
}

// Handler returns an http.Handler serving the collector's metrics in the
// Prometheus text exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.collector.Registry(), promhttp.HandlerOpts{})
}

// Register mounts the exporter's /metrics and /health endpoints on mux, the
// same two endpoints the teacher's metrics_exporter.go exposes.
func (e *Exporter) Register(mux *http.ServeMux) {
	mux.Handle("/metrics", e.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
}
