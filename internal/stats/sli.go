package stats

import (
	"context"
	"sync"
	"time"

	"github.com/logflux-io/logflux-go-sdk/client"
)

// Default SLI configuration values.
const (
	DefaultSLIEnabled       = true
	DefaultDeliveryTarget   = 0.999
	DefaultFlushTarget      = 0.995
	DefaultSnapshotInterval = 30 * time.Second
	DefaultRingSize         = 720 // 6h at 30s intervals
)

// SLI window durations for ratio/burn-rate computation.
var sliWindows = []struct {
	Label string
	Slots int
}{
	{"5m", 10},  // 10 × 30s = 5 min
	{"30m", 60}, // 60 × 30s = 30 min
	{"1h", 120}, // 120 × 30s = 1 hour
	{"6h", 720}, // 720 × 30s = 6 hours
}

// SLIConfig holds SLI/SLO configuration for delivery tracking.
type SLIConfig struct {
	Enabled        bool
	DeliveryTarget float64
	FlushTarget    float64
}

// DefaultSLIConfig returns the default SLI configuration.
func DefaultSLIConfig() SLIConfig {
	return SLIConfig{
		Enabled:        DefaultSLIEnabled,
		DeliveryTarget: DefaultDeliveryTarget,
		FlushTarget:    DefaultFlushTarget,
	}
}

// sliSnapshot holds delivery counter values at a point in time.
type sliSnapshot struct {
	timestamp     int64 // unix seconds
	accepted      uint64
	sent          uint64
	dropped       uint64 // deliberate drops: circuit open, unsendable entries
	batchesSent   uint64
	failedFlushes uint64
}

// SLITracker computes delivery SLI ratios, burn rates, and error budgets
// from periodic delivery-stats snapshots stored in a fixed-size ring
// buffer, and publishes them as Prometheus gauges.
//
// Thread safety:
//   - RecordSnapshot serializes writers via mu
//   - Readers only touch the published gauges
type SLITracker struct {
	mu     sync.Mutex
	config SLIConfig

	ring  []sliSnapshot // fixed-size ring buffer
	head  int           // next write position
	count int           // number of valid entries (up to len(ring))

	startSnapshot *sliSnapshot // first-ever snapshot for error budget baseline
	startTime     time.Time    // when tracking started

	snapshotsTotal uint64
}

// NewSLITracker creates a new SLI tracker.
func NewSLITracker(cfg SLIConfig) *SLITracker {
	sloTarget.WithLabelValues("delivery").Set(cfg.DeliveryTarget)
	sloTarget.WithLabelValues("flush").Set(cfg.FlushTarget)
	return &SLITracker{
		config:    cfg,
		ring:      make([]sliSnapshot, DefaultRingSize),
		startTime: time.Now(),
	}
}

// Run records a snapshot every interval until ctx is cancelled.
// It is a no-op when SLI tracking is disabled.
func (t *SLITracker) Run(ctx context.Context, interval time.Duration, delivery func() client.DeliveryStats) {
	if !t.config.Enabled {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.RecordSnapshot(delivery())
		}
	}
}

// RecordSnapshot captures a point-in-time snapshot of the delivery
// counters and republishes the SLI gauges.
func (t *SLITracker) RecordSnapshot(st client.DeliveryStats) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := sliSnapshot{
		timestamp:     time.Now().Unix(),
		accepted:      st.RecordsAccepted,
		sent:          st.EntriesSent,
		dropped:       st.DroppedEntries,
		batchesSent:   st.BatchesSent,
		failedFlushes: st.FailedFlushes,
	}

	if t.startSnapshot == nil {
		cp := snap
		t.startSnapshot = &cp
	}

	t.ring[t.head] = snap
	t.head = (t.head + 1) % len(t.ring)
	if t.count < len(t.ring) {
		t.count++
	}
	t.snapshotsTotal++
	sliSnapshotsTotal.Inc()

	t.publish(snap)
}

// getSnapshotAt returns the snapshot at the given number of slots back from head.
func (t *SLITracker) getSnapshotAt(slotsBack int) (sliSnapshot, bool) {
	if slotsBack >= t.count {
		return sliSnapshot{}, false
	}
	idx := (t.head - 1 - slotsBack + len(t.ring)) % len(t.ring)
	return t.ring[idx], true
}

// latest returns the most recent snapshot.
func (t *SLITracker) latest() (sliSnapshot, bool) {
	return t.getSnapshotAt(0)
}

// publish recomputes window ratios and burn rates and sets the gauges.
func (t *SLITracker) publish(latest sliSnapshot) {
	if t.count < 2 {
		return
	}

	for _, win := range sliWindows {
		older, ok := t.getSnapshotAt(win.Slots - 1)
		if !ok {
			continue
		}
		delivery := computeDeliveryRatio(latest, older)
		flush := computeFlushSuccessRatio(latest, older)
		sliDeliveryRatio.WithLabelValues(win.Label).Set(delivery)
		sliFlushSuccessRatio.WithLabelValues(win.Label).Set(flush)
		sliDeliveryBurnRate.WithLabelValues(win.Label).Set(computeBurnRate(delivery, t.config.DeliveryTarget))
		sliFlushBurnRate.WithLabelValues(win.Label).Set(computeBurnRate(flush, t.config.FlushTarget))
	}

	if t.startSnapshot != nil {
		sliDeliveryBudgetRemaining.Set(t.computeErrorBudgetRemaining(
			*t.startSnapshot, latest, computeDeliveryRatio, t.config.DeliveryTarget))
		sliFlushBudgetRemaining.Set(t.computeErrorBudgetRemaining(
			*t.startSnapshot, latest, computeFlushSuccessRatio, t.config.FlushTarget))
	}
}

// computeDeliveryRatio computes the delivery SLI ratio over a window.
// delivery_ratio = good / eligible
// good = delta(sent)
// eligible = delta(accepted) - delta(deliberate drops)
func computeDeliveryRatio(newer, older sliSnapshot) float64 {
	good := float64(newer.sent - older.sent)
	accepted := float64(newer.accepted - older.accepted)
	drops := float64(newer.dropped - older.dropped)
	eligible := accepted - drops

	if eligible <= 0 {
		return 1.0 // no eligible entries = perfect
	}
	ratio := good / eligible
	if ratio > 1.0 {
		return 1.0
	}
	if ratio < 0.0 {
		return 0.0
	}
	return ratio
}

// computeFlushSuccessRatio computes the flush success SLI ratio.
// flush_success = good / total
// good = delta(batchesSent)
// total = good + delta(failedFlushes)
func computeFlushSuccessRatio(newer, older sliSnapshot) float64 {
	good := float64(newer.batchesSent - older.batchesSent)
	errors := float64(newer.failedFlushes - older.failedFlushes)
	total := good + errors

	if total <= 0 {
		return 1.0 // no flushes = perfect
	}
	ratio := good / total
	if ratio > 1.0 {
		return 1.0
	}
	if ratio < 0.0 {
		return 0.0
	}
	return ratio
}

// computeBurnRate computes how fast the error budget is being consumed.
// burn_rate = actual_error_rate / allowed_error_rate
// A burn rate of 1.0 means the SLO pace is exactly sustainable.
func computeBurnRate(ratio, target float64) float64 {
	allowedErrorRate := 1.0 - target
	if allowedErrorRate <= 0 {
		return 0.0 // target=1.0 means no errors allowed, can't compute
	}
	actualErrorRate := 1.0 - ratio
	return actualErrorRate / allowedErrorRate
}

// computeErrorBudgetRemaining computes the fraction of error budget remaining
// from the first snapshot to the latest.
func (t *SLITracker) computeErrorBudgetRemaining(
	start, latest sliSnapshot,
	ratioFn func(newer, older sliSnapshot) float64,
	target float64,
) float64 {
	elapsed := time.Since(t.startTime).Seconds()
	if elapsed < 60 {
		return 1.0 // not enough data
	}

	ratio := ratioFn(latest, start)
	actualErrorRate := 1.0 - ratio
	allowedErrorRate := 1.0 - target
	if allowedErrorRate <= 0 {
		return 1.0
	}

	consumed := actualErrorRate / allowedErrorRate
	remaining := 1.0 - consumed

	if remaining > 1.0 {
		return 1.0
	}
	if remaining < 0.0 {
		return 0.0
	}
	return remaining
}
