package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insightboard",
		Subsystem: "fetch",
		Name:      "results_total",
		Help:      "View load results by view and outcome (applied, failed, stale).",
	}, []string{"view", "result"})

	loadSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "insightboard",
		Subsystem: "fetch",
		Name:      "load_seconds",
		Help:      "Duration of view loads that were not superseded.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"view"})
)
