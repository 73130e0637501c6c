package hierarchy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "org",
		Subsystem: "hierarchy",
		Name:      "cycles_detected_total",
		Help:      "Reporting-line cycles hit while walking the hierarchy.",
	}, []string{"walk"})

	visibleUsers = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "org",
		Subsystem: "hierarchy",
		Name:      "visible_users",
		Help:      "Size of the visible user set per resolution.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"path"})

	adminBatches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "org",
		Subsystem: "hierarchy",
		Name:      "admin_batches_total",
		Help:      "Batches read while listing all active users for administrators.",
	})
)
