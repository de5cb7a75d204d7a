// Package metrics provides internal Prometheus metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the Prometheus instruments for datastore operations.
type Collector struct {
	opsTotal   *prometheus.CounterVec
	opDuration *prometheus.HistogramVec
	bytesTotal *prometheus.CounterVec
}

// NewCollector registers the pond metrics on the given registerer. Pass
// prometheus.DefaultRegisterer outside of tests.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		opsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "datastore_ops_total",
				Help:      "Total number of datastore operations",
			},
			[]string{"datastore", "op", "status"},
		),
		opDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "datastore_op_duration_seconds",
				Help:      "Datastore operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"datastore", "op"},
		),
		bytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "datastore_bytes_total",
				Help:      "Total bytes transferred to and from the datastore",
			},
			[]string{"datastore", "direction"},
		),
	}
}

// ObserveOp records one datastore operation.
func (c *Collector) ObserveOp(datastore, op string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.opsTotal.WithLabelValues(datastore, op, status).Inc()
	c.opDuration.WithLabelValues(datastore, op).Observe(elapsed.Seconds())
}

// ObserveBytes records payload bytes moved in the given direction
// ("read" or "write").
func (c *Collector) ObserveBytes(datastore, direction string, n int) {
	if n > 0 {
		c.bytesTotal.WithLabelValues(datastore, direction).Add(float64(n))
	}
}
