package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ingestEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logflux_forwarder_entries_total",
		Help: "Total number of log entries accepted for forwarding",
	}, []string{"protocol"})

	ingestBytesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logflux_forwarder_entry_bytes_total",
		Help: "Total estimated bytes of accepted log entries",
	}, []string{"protocol"})

	ingestEntriesByLevel = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logflux_forwarder_entries_by_level_total",
		Help: "Total number of accepted log entries by severity",
	}, []string{"level"})

	ingestRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logflux_forwarder_rejected_entries_total",
		Help: "Total number of entries rejected before acceptance",
	}, []string{"protocol", "reason"})

	uniqueSourcesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "logflux_forwarder_unique_sources",
		Help: "Estimated number of distinct log sources seen",
	})

	trackedSourcesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "logflux_forwarder_tracked_sources",
		Help: "Number of sources with individual stats tracking",
	})

	trackerMemoryBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "logflux_forwarder_source_tracker_memory_bytes",
		Help: "Approximate memory used by the unique-source tracker",
	})

	sliDeliveryRatio = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "logflux_forwarder_sli_delivery_ratio",
		Help: "Delivery SLI ratio (entries delivered / eligible) over window",
	}, []string{"window"})

	sliFlushSuccessRatio = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "logflux_forwarder_sli_flush_success_ratio",
		Help: "Flush success SLI ratio (batches delivered / attempts) over window",
	}, []string{"window"})

	sliDeliveryBurnRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "logflux_forwarder_sli_delivery_burn_rate",
		Help: "Delivery SLI burn rate (1.0 = exactly at SLO pace)",
	}, []string{"window"})

	sliFlushBurnRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "logflux_forwarder_sli_flush_burn_rate",
		Help: "Flush SLI burn rate (1.0 = exactly at SLO pace)",
	}, []string{"window"})

	sliDeliveryBudgetRemaining = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "logflux_forwarder_sli_delivery_budget_remaining",
		Help: "Fraction of delivery error budget remaining (0-1)",
	})

	sliFlushBudgetRemaining = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "logflux_forwarder_sli_flush_budget_remaining",
		Help: "Fraction of flush error budget remaining (0-1)",
	})

	sloTarget = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "logflux_forwarder_slo_target",
		Help: "Configured SLO target value",
	}, []string{"sli"})

	sliSnapshotsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logflux_forwarder_sli_snapshots_total",
		Help: "Total SLI snapshots recorded",
	})
)

func init() {
	prometheus.MustRegister(ingestEntriesTotal)
	prometheus.MustRegister(ingestBytesTotal)
	prometheus.MustRegister(ingestEntriesByLevel)
	prometheus.MustRegister(ingestRejectedTotal)
	prometheus.MustRegister(uniqueSourcesGauge)
	prometheus.MustRegister(trackedSourcesGauge)
	prometheus.MustRegister(trackerMemoryBytes)
	prometheus.MustRegister(sliDeliveryRatio)
	prometheus.MustRegister(sliFlushSuccessRatio)
	prometheus.MustRegister(sliDeliveryBurnRate)
	prometheus.MustRegister(sliFlushBurnRate)
	prometheus.MustRegister(sliDeliveryBudgetRemaining)
	prometheus.MustRegister(sliFlushBudgetRemaining)
	prometheus.MustRegister(sloTarget)
	prometheus.MustRegister(sliSnapshotsTotal)

	// Initialize protocol counters with 0 so they appear immediately
	ingestEntriesTotal.WithLabelValues("grpc").Add(0)
	ingestEntriesTotal.WithLabelValues("http").Add(0)
	ingestEntriesTotal.WithLabelValues("stdin").Add(0)
	ingestBytesTotal.WithLabelValues("grpc").Add(0)
	ingestBytesTotal.WithLabelValues("http").Add(0)
	ingestBytesTotal.WithLabelValues("stdin").Add(0)
}
