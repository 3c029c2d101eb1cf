package client

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	entriesAcceptedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logflux_client_entries_accepted_total",
		Help: "Entries accepted into the pending buffer.",
	})
	entriesSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logflux_client_entries_sent_total",
		Help: "Entries delivered to the agent in successful batches.",
	})
	batchesSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logflux_client_batches_sent_total",
		Help: "Batches delivered to the agent.",
	})
	flushFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logflux_client_flush_failures_total",
		Help: "Flush attempts that failed and fed retry backoff.",
	})
	entriesDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logflux_client_entries_dropped_total",
		Help: "Entries dropped without delivery, by reason.",
	}, []string{"reason"})
	batchSizeEntries = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "logflux_client_batch_size_entries",
		Help:    "Entries per successfully delivered batch.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8),
	})
	flushDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "logflux_client_flush_duration_seconds",
		Help:    "Wall time of flush attempts, including failures.",
		Buckets: prometheus.DefBuckets,
	})
	pendingEntriesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "logflux_client_pending_entries",
		Help: "Entries currently waiting in the buffer.",
	})
	pendingBytesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "logflux_client_pending_bytes",
		Help: "Estimated bytes currently waiting in the buffer.",
	})
	retryDelaySeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "logflux_client_retry_delay_seconds",
		Help: "Current backoff delay the scheduler will apply.",
	})
	circuitStateGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "logflux_client_circuit_state",
		Help: "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
	})
	circuitOpenedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logflux_client_circuit_opened_total",
		Help: "Times the circuit breaker opened or reopened.",
	})
)

func init() {
	prometheus.MustRegister(entriesAcceptedTotal)
	prometheus.MustRegister(entriesSentTotal)
	prometheus.MustRegister(batchesSentTotal)
	prometheus.MustRegister(flushFailuresTotal)
	prometheus.MustRegister(entriesDroppedTotal)
	prometheus.MustRegister(batchSizeEntries)
	prometheus.MustRegister(flushDurationSeconds)
	prometheus.MustRegister(pendingEntriesGauge)
	prometheus.MustRegister(pendingBytesGauge)
	prometheus.MustRegister(retryDelaySeconds)
	prometheus.MustRegister(circuitStateGauge)
	prometheus.MustRegister(circuitOpenedTotal)
}
