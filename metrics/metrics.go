// Package metrics exports function wrapper events as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reoring/skemabridge/fnwrap"
)

// Collector holds the Prometheus metrics fed by wrapped operations.
type Collector struct {
	CallsTotal   *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
}

// New registers the collector on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collector on reg.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		CallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "skemabridge",
				Name:      "calls_total",
				Help:      "Total number of wrapped operation calls",
			},
			[]string{"operation", "stage", "outcome"},
		),
		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "skemabridge",
				Name:      "call_duration_seconds",
				Help:      "Wrapped operation duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),
	}
}

// Observe implements fnwrap.Observer.
func (c *Collector) Observe(ev fnwrap.Event) {
	c.CallsTotal.WithLabelValues(ev.Operation, ev.Stage.String(), ev.Outcome()).Inc()
	c.CallDuration.WithLabelValues(ev.Operation).Observe(ev.Duration.Seconds())
}

// Option returns the fnwrap option that attaches c to a wrapped operation.
func (c *Collector) Option() fnwrap.Option {
	return fnwrap.WithObserver(c)
}
