package receiver

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	receiverErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logflux_forwarder_receiver_errors_total",
		Help: "Total number of receiver errors",
	}, []string{"type"})

	receiverRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logflux_forwarder_receiver_requests_total",
		Help: "Total number of requests received",
	}, []string{"protocol"})

	receiverEntriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logflux_forwarder_receiver_entries_total",
		Help: "Total number of log entries accepted by receivers",
	})

	receiverDecompressedBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logflux_forwarder_receiver_decompressed_bytes_total",
		Help: "Total bytes of request bodies after decompression",
	})
)

func init() {
	prometheus.MustRegister(receiverErrorsTotal)
	prometheus.MustRegister(receiverRequestsTotal)
	prometheus.MustRegister(receiverEntriesTotal)
	prometheus.MustRegister(receiverDecompressedBytesTotal)

	// Initialize counters with 0 so they appear in /metrics immediately
	receiverErrorsTotal.WithLabelValues("decode").Add(0)
	receiverErrorsTotal.WithLabelValues("read").Add(0)
	receiverErrorsTotal.WithLabelValues("decompress").Add(0)
	receiverErrorsTotal.WithLabelValues("sink").Add(0)
	receiverRequestsTotal.WithLabelValues("grpc").Add(0)
	receiverRequestsTotal.WithLabelValues("http").Add(0)
	receiverRequestsTotal.WithLabelValues("stdin").Add(0)
	receiverEntriesTotal.Add(0)
	receiverDecompressedBytesTotal.Add(0)
}

// IncrementReceiverError increments the receiver error counter for a specific type.
func IncrementReceiverError(errorType string) {
	receiverErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncrementReceiverRequests increments the receiver requests counter for a protocol.
func IncrementReceiverRequests(protocol string) {
	receiverRequestsTotal.WithLabelValues(protocol).Inc()
}

// AddReceiverEntries increments the accepted entry counter.
func AddReceiverEntries(count int) {
	receiverEntriesTotal.Add(float64(count))
}

// AddDecompressedBytes increments the decompressed body byte counter.
func AddDecompressedBytes(n int) {
	receiverDecompressedBytesTotal.Add(float64(n))
}
