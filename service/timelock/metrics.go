package timelock

import (
	"sync"
	"time"

	"lending/core"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once
	calls       *prometheus.CounterVec
	latency     *prometheus.HistogramVec
)

func registerMetrics() {
	metricsOnce.Do(func() {
		calls = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lending",
			Subsystem: "timelock",
			Name:      "calls_total",
			Help:      "Timelock actions by name and result kind.",
		}, []string{"action", "result"})
		latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lending",
			Subsystem: "timelock",
			Name:      "action_duration_seconds",
			Help:      "Wall time of timelock actions including dispatch.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"})
		prometheus.MustRegister(calls, latency)
	})
}

func observe(action string, err error, start time.Time) {
	registerMetrics()

	result := "ok"
	if err != nil {
		result = core.KindOf(err).String()
	}

	calls.WithLabelValues(action, result).Inc()
	latency.WithLabelValues(action).Observe(time.Since(start).Seconds())
}
