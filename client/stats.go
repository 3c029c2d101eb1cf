package client

import (
	"sync"
	"time"
)

// DeliveryStats is a point-in-time snapshot of the engine's counters.
// All counters are monotonic; the snapshot is a copy and mutating it has
// no effect on the engine.
type DeliveryStats struct {
	// RecordsAccepted counts entries accepted by Add.
	RecordsAccepted uint64
	// BatchesSent counts successfully delivered batches.
	BatchesSent uint64
	// EntriesSent counts entries inside those batches.
	EntriesSent uint64
	// FailedFlushes counts flush attempts that failed.
	FailedFlushes uint64
	// DroppedEntries counts entries dropped without delivery, either
	// while the circuit was open or because they could never be sent.
	DroppedEntries uint64
	// DroppedBytes is the estimated size of the dropped entries.
	DroppedBytes uint64
	// AverageBatchSize is the arithmetic mean entry count over all
	// successful sends; zero before the first success.
	AverageBatchSize float64
	// LastFlushTime is when the last successful flush completed; zero
	// before the first success.
	LastFlushTime time.Time
	// PendingCount and PendingBytes describe the buffer right now.
	PendingCount int
	PendingBytes int
}

// statsCollector accumulates delivery counters and mirrors them into the
// Prometheus collectors.
type statsCollector struct {
	mu           sync.Mutex
	accepted     uint64
	batchesSent  uint64
	entriesSent  uint64
	failed       uint64
	dropped      uint64
	droppedBytes uint64
	lastFlush    time.Time
}

func (s *statsCollector) recordAccepted() {
	s.mu.Lock()
	s.accepted++
	s.mu.Unlock()
	entriesAcceptedTotal.Inc()
}

func (s *statsCollector) recordBatchSent(entries int, now time.Time) {
	s.mu.Lock()
	s.batchesSent++
	s.entriesSent += uint64(entries)
	s.lastFlush = now
	s.mu.Unlock()
	batchesSentTotal.Inc()
	entriesSentTotal.Add(float64(entries))
	batchSizeEntries.Observe(float64(entries))
}

func (s *statsCollector) recordFailure() {
	s.mu.Lock()
	s.failed++
	s.mu.Unlock()
	flushFailuresTotal.Inc()
}

func (s *statsCollector) recordDropped(entries, bytes int, reason string) {
	s.mu.Lock()
	s.dropped += uint64(entries)
	s.droppedBytes += uint64(bytes)
	s.mu.Unlock()
	entriesDroppedTotal.WithLabelValues(reason).Add(float64(entries))
}

func (s *statsCollector) snapshot() DeliveryStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := DeliveryStats{
		RecordsAccepted: s.accepted,
		BatchesSent:     s.batchesSent,
		EntriesSent:     s.entriesSent,
		FailedFlushes:   s.failed,
		DroppedEntries:  s.dropped,
		DroppedBytes:    s.droppedBytes,
		LastFlushTime:   s.lastFlush,
	}
	if s.batchesSent > 0 {
		st.AverageBatchSize = float64(s.entriesSent) / float64(s.batchesSent)
	}
	return st
}
