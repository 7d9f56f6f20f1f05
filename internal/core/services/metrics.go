package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// roundsTotal counts provider dispatch rounds.
	roundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mathnb",
		Subsystem: "engine",
		Name:      "rounds_total",
		Help:      "Total propagation rounds dispatched to providers",
	})

	// changesTotal counts applied changes by change type.
	changesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mathnb",
		Subsystem: "engine",
		Name:      "changes_total",
		Help:      "Total changes applied by type",
	}, []string{"type"})

	// ruleCyclesTotal counts calls that ran out of rounds.
	ruleCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mathnb",
		Subsystem: "engine",
		Name:      "rule_cycles_total",
		Help:      "Total calls aborted by the round budget",
	})

	// providerErrorsTotal counts provider failures by provider and kind.
	providerErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mathnb",
		Subsystem: "engine",
		Name:      "provider_errors_total",
		Help:      "Total provider failures by provider and kind (error, timeout, invariant)",
	}, []string{"provider", "kind"})

	// rollbacksTotal counts calls rolled back to their starting state.
	rollbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mathnb",
		Subsystem: "engine",
		Name:      "rollbacks_total",
		Help:      "Total calls rolled back after an invariant violation or timeout",
	})

	// propagationDuration tracks the latency of a whole call.
	propagationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mathnb",
		Subsystem: "engine",
		Name:      "propagation_duration_seconds",
		Help:      "Duration of a change request call including all rounds",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	})

	// openSessions tracks notebooks with running providers.
	openSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mathnb",
		Subsystem: "engine",
		Name:      "open_sessions",
		Help:      "Number of open notebooks",
	})
)
