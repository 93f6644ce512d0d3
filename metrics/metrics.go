// Package metrics exposes Prometheus collectors for the Internal
// Handler, adapted from the teacher's internal/metrics collector
// registration pattern.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector bundles the handler's observability surface. A nil
// *Collector is valid everywhere it's accepted: every method is a no-op
// on a nil receiver, so wiring metrics is opt-in.
type Collector struct {
	RecordsEnqueued prometheus.Counter
	RecordsDropped  prometheus.Counter
	QueueDepth      prometheus.Gauge
	FlushDuration   prometheus.Histogram
	HandlerErrors   prometheus.Counter
}

// NewCollector builds and registers a Collector against reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		RecordsEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corelog",
			Name:      "records_enqueued_total",
			Help:      "Records successfully enqueued onto the data channel.",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corelog",
			Name:      "records_dropped_total",
			Help:      "Records dropped after exhausting retries and the blocking fallback.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "corelog",
			Name:      "queue_depth",
			Help:      "Frames currently pending in the data channel.",
		}),
		FlushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "corelog",
			Name:      "flush_duration_seconds",
			Help:      "Time taken to complete a durable flush.",
			Buckets:   prometheus.DefBuckets,
		}),
		HandlerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corelog",
			Name:      "handler_errors_total",
			Help:      "Errors observed by the Internal Handler's error-chain breaker.",
		}),
	}
	reg.MustRegister(c.RecordsEnqueued, c.RecordsDropped, c.QueueDepth, c.FlushDuration, c.HandlerErrors)
	return c
}

func (c *Collector) incEnqueued() {
	if c != nil {
		c.RecordsEnqueued.Inc()
	}
}

func (c *Collector) incDropped() {
	if c != nil {
		c.RecordsDropped.Inc()
	}
}

func (c *Collector) setQueueDepth(n int) {
	if c != nil {
		c.QueueDepth.Set(float64(n))
	}
}

func (c *Collector) observeFlush(seconds float64) {
	if c != nil {
		c.FlushDuration.Observe(seconds)
	}
}

func (c *Collector) incHandlerError() {
	if c != nil {
		c.HandlerErrors.Inc()
	}
}

// IncEnqueued, IncDropped, SetQueueDepth, ObserveFlush, IncHandlerError
// are exported nil-safe wrappers used from other packages so callers
// never need a nil check of their own.
func IncEnqueued(c *Collector)           { c.incEnqueued() }
func IncDropped(c *Collector)            { c.incDropped() }
func SetQueueDepth(c *Collector, n int)  { c.setQueueDepth(n) }
func ObserveFlush(c *Collector, s float64) { c.observeFlush(s) }
func IncHandlerError(c *Collector)       { c.incHandlerError() }
