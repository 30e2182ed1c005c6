// Package lockmetrics instruments an arwlock.LockCore with Prometheus
// collectors. It mirrors the shape of the teacher's MetricsCollector —
// a single struct constructed once and handed a live data source — but
// trades the teacher's hand-rolled GetMetrics() text template for real
// promauto collectors registered on their own Registry, and wires in via
// arwlock.WithMetrics instead of a five-second polling goroutine.
package lockmetrics

import (
	"time"

	"arwl/pkg/concurrency/arwlock"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector observes a LockCore's admission and release paths and exposes
// the results as Prometheus collectors on its own Registry. It implements
// arwlock.MetricsRecorder, so it is passed directly to arwlock.WithMetrics.
type Collector struct {
	registry *prometheus.Registry

	waitSeconds     *prometheus.HistogramVec
	queueDepth      *prometheus.GaugeVec
	holders         *prometheus.GaugeVec
	callbackSeconds prometheus.Histogram
	canceled        *prometheus.CounterVec
	completions     prometheus.Counter
}

// NewCollector builds a Collector with a fresh, private Registry so that
// constructing more than one — one per LockCore, as the demo and the test
// suite both do — never collides on Prometheus's global default registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		waitSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "arwlock_wait_seconds",
			Help: "Time an admitted request spent queued before admission, by lock kind.",
			// 12 buckets from 100µs to ~1.7m, since the fast path should land
			// in the first bucket and a starved writer should still show up.
			Buckets: prometheus.ExponentialBucketsRange(0.0001, 100, 12),
		}, []string{"kind"}),
		queueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arwlock_queue_depth",
			Help: "Current number of pending requests, by lock kind.",
		}, []string{"kind"}),
		holders: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arwlock_holders",
			Help: "Current number of direct holders, by lock kind.",
		}, []string{"kind"}),
		callbackSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "arwlock_callback_drain_seconds",
			Help:    "Time spent running OnBeforeWriteLockReleased callbacks on a write release.",
			Buckets: prometheus.ExponentialBucketsRange(0.0001, 10, 10),
		}),
		canceled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arwlock_canceled_total",
			Help: "Pending requests canceled before admission, by lock kind.",
		}, []string{"kind"}),
		completions: factory.NewCounter(prometheus.CounterOpts{
			Name: "arwlock_completions_total",
			Help: "Number of times Completion has fired.",
		}),
	}
}

// Registry returns the private Registry this Collector's collectors are
// registered on, for use with an Exporter or a custom promhttp.Handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) ObserveWait(kind arwlock.LockKind, waited time.Duration) {
	c.waitSeconds.WithLabelValues(kind.String()).Observe(waited.Seconds())
}

func (c *Collector) SetQueueDepth(kind arwlock.LockKind, depth int) {
	c.queueDepth.WithLabelValues(kind.String()).Set(float64(depth))
}

func (c *Collector) SetHolders(kind arwlock.LockKind, n int) {
	c.holders.WithLabelValues(kind.String()).Set(float64(n))
}

func (c *Collector) ObserveCallbackDrain(d time.Duration) {
	c.callbackSeconds.Observe(d.Seconds())
}

func (c *Collector) IncCanceled(kind arwlock.LockKind) {
	c.canceled.WithLabelValues(kind.String()).Inc()
}

func (c *Collector) IncCompleted() {
	c.completions.Inc()
}

var _ arwlock.MetricsRecorder = (*Collector)(nil)
