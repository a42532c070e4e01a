// Package observability exposes Prometheus metrics for domain events and
// the connection pool.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"gymlog/internal/event"
	"gymlog/internal/platform/sqlite"
)

var (
	eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gymlog",
		Subsystem: "events",
		Name:      "emitted_total",
		Help:      "Number of domain events emitted, by event name.",
	}, []string{"event"})

	storeErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gymlog",
		Subsystem: "store",
		Name:      "errors_total",
		Help:      "Number of statements rejected by the backing store.",
	})
)

func init() {
	prometheus.MustRegister(eventsTotal, storeErrorsTotal)
}

// MetricsSink counts domain events. Implements event.Sink.
type MetricsSink struct{}

// Emit implements event.Sink.
func (MetricsSink) Emit(e event.Event) {
	eventsTotal.WithLabelValues(e.Name).Inc()
	if e.Name == event.StoreError {
		storeErrorsTotal.Inc()
	}
}

// ObservePool registers gauges tracking the pool's idle and open connection
// counts. Call once per process.
func ObservePool(pool *sqlite.Pool) {
	prometheus.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "gymlog",
			Subsystem: "pool",
			Name:      "idle_connections",
			Help:      "Idle connections currently held by the pool.",
		}, func() float64 {
			return float64(pool.Stats().Idle)
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "gymlog",
			Subsystem: "pool",
			Name:      "open_connections",
			Help:      "Total open connections (idle plus checked out).",
		}, func() float64 {
			return float64(pool.Stats().Open)
		}),
	)
}
