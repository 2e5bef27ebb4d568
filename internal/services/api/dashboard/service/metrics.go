package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "insightboard",
		Subsystem: "dashboard",
		Name:      "sessions",
		Help:      "Dashboard sessions currently held in memory.",
	})

	evictedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insightboard",
		Subsystem: "dashboard",
		Name:      "sessions_evicted_total",
		Help:      "Sessions dropped by reason (capacity, idle, ended).",
	}, []string{"reason"})

	watchersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "insightboard",
		Subsystem: "dashboard",
		Name:      "watchers",
		Help:      "Open event streams across all sessions.",
	})

	droppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "insightboard",
		Subsystem: "dashboard",
		Name:      "events_dropped_total",
		Help:      "Events not delivered because a watcher was too slow.",
	})

	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insightboard",
		Subsystem: "dashboard",
		Name:      "exports_total",
		Help:      "Exports by format and source.",
	}, []string{"format", "source"})
)
