package ledger

import (
	"sync"
	"time"

	"lending/core"

	"github.com/prometheus/client_golang/prometheus"
)

type ledgerMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var (
	metricsOnce     sync.Once
	metricsRegistry *ledgerMetrics
)

func defaultMetrics() *ledgerMetrics {
	metricsOnce.Do(func() {
		metricsRegistry = &ledgerMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lending",
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Ledger operations by name and result kind.",
			}, []string{"op", "result"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "lending",
				Subsystem: "ledger",
				Name:      "operation_duration_seconds",
				Help:      "Wall time of ledger operations including the store commit.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"op"}),
		}
		prometheus.MustRegister(
			metricsRegistry.operations,
			metricsRegistry.duration,
		)
	})
	return metricsRegistry
}

func observe(op string, err error, start time.Time) {
	m := defaultMetrics()

	result := "ok"
	if err != nil {
		result = core.KindOf(err).String()
	}

	m.operations.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
