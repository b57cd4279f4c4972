package collection

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	findDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docdb",
		Subsystem: "collection",
		Name:      "find_duration_seconds",
		Help:      "Time spent evaluating find queries",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"collection"})

	documentLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docdb",
		Subsystem: "collection",
		Name:      "document_loads_total",
		Help:      "Documents read from storage",
	}, []string{"collection"})

	documentWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docdb",
		Subsystem: "collection",
		Name:      "document_writes_total",
		Help:      "Documents saved or removed",
	}, []string{"collection", "op"})
)

// RegisterMetrics registers the collection collectors with reg.
// Registering twice with the same registry is not an error.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{findDuration, documentLoads, documentWrites} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}
	return nil
}
