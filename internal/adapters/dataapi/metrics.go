package dataapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insightboard",
		Subsystem: "dataapi",
		Name:      "requests_total",
		Help:      "Requests to the analytics API by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "insightboard",
		Subsystem: "dataapi",
		Name:      "request_seconds",
		Help:      "Latency of requests to the analytics API.",
		Buckets: []float64{
			0.01, 0.025, 0.05, 0.1,
			0.25, 0.5, 1, 2.5,
			5, 10, 30,
		},
	}, []string{"endpoint"})

	rejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insightboard",
		Subsystem: "dataapi",
		Name:      "rejected_total",
		Help:      "Requests refused before transmission by endpoint.",
	}, []string{"endpoint"})
)

// outcome labels a result: "ok" or the failure kind
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return Kind(err)
}

func observe(endpoint string, took time.Duration, err error) {
	requestsTotal.WithLabelValues(endpoint, outcome(err)).Inc()
	requestLatency.WithLabelValues(endpoint).Observe(took.Seconds())
}
