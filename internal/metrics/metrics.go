package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SequencersRegistered = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ssal",
		Subsystem: "registry",
		Name:      "sequencers",
		Help:      "Number of registered sequencers as of the last registry write",
	})

	RollupsRegistered = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ssal",
		Subsystem: "registry",
		Name:      "rollups",
		Help:      "Number of registered rollups as of the last registry write",
	})

	RegistryOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ssal",
		Subsystem: "registry",
		Name:      "operations_total",
		Help:      "Registry operations by kind, operation and result",
	}, []string{"kind", "operation", "result"})

	ElectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ssal",
		Subsystem: "election",
		Name:      "total",
		Help:      "Leader elections by trigger and result",
	}, []string{"reason", "result"})

	CurrentRound = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ssal",
		Subsystem: "round",
		Name:      "current",
		Help:      "Number of the current round as of the last round write",
	})

	BlocksClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ssal",
		Subsystem: "round",
		Name:      "blocks_closed_total",
		Help:      "Total blocks accepted and closed",
	})

	CloseBlockRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ssal",
		Subsystem: "round",
		Name:      "close_block_rejected_total",
		Help:      "close-block submissions rejected by reason",
	}, []string{"reason"})

	StorageOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ssal",
		Subsystem: "storage",
		Name:      "operations_total",
		Help:      "Total storage operations",
	}, []string{"operation"})

	StorageErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ssal",
		Subsystem: "storage",
		Name:      "errors_total",
		Help:      "Total failed storage operations",
	}, []string{"operation"})

	LockWaitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ssal",
		Subsystem: "storage",
		Name:      "lock_wait_seconds",
		Help:      "Time spent waiting for a key lock",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 20),
	}, []string{"key"})

	LockTimeoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ssal",
		Subsystem: "storage",
		Name:      "lock_timeouts_total",
		Help:      "Lock acquisitions that gave up before the key was free",
	}, []string{"key"})

	WALWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ssal",
		Subsystem: "wal",
		Name:      "writes_total",
		Help:      "Total WAL writes",
	})

	WALWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ssal",
		Subsystem: "wal",
		Name:      "write_duration_seconds",
		Help:      "WAL write duration",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 20),
	})

	WALCompactionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ssal",
		Subsystem: "wal",
		Name:      "compactions_total",
		Help:      "Total WAL compactions into a snapshot record",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ssal",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests",
	}, []string{"route", "method", "code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ssal",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 20),
	}, []string{"route", "method"})
)
