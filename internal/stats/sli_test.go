package stats

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/logflux-io/logflux-go-sdk/client"
)

func defaultSLIConfig() SLIConfig {
	return SLIConfig{
		Enabled:        true,
		DeliveryTarget: 0.999,
		FlushTarget:    0.995,
	}
}

func TestNewSLITracker(t *testing.T) {
	tracker := NewSLITracker(defaultSLIConfig())
	if tracker == nil {
		t.Fatal("expected non-nil tracker")
	}
	if len(tracker.ring) != DefaultRingSize {
		t.Errorf("ring size = %d, want %d", len(tracker.ring), DefaultRingSize)
	}
	if tracker.count != 0 {
		t.Errorf("count = %d, want 0", tracker.count)
	}
	if got := testutil.ToFloat64(sloTarget.WithLabelValues("delivery")); got != 0.999 {
		t.Errorf("delivery target gauge = %g, want 0.999", got)
	}
	if got := testutil.ToFloat64(sloTarget.WithLabelValues("flush")); got != 0.995 {
		t.Errorf("flush target gauge = %g, want 0.995", got)
	}
}

func TestRecordSnapshot(t *testing.T) {
	tracker := NewSLITracker(defaultSLIConfig())

	tracker.RecordSnapshot(client.DeliveryStats{
		RecordsAccepted: 1000,
		EntriesSent:     999,
		BatchesSent:     100,
		FailedFlushes:   1,
	})

	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	if tracker.count != 1 {
		t.Errorf("count = %d, want 1", tracker.count)
	}
	if tracker.startSnapshot == nil {
		t.Fatal("startSnapshot should be set after first recording")
	}
	if tracker.snapshotsTotal != 1 {
		t.Errorf("snapshotsTotal = %d, want 1", tracker.snapshotsTotal)
	}

	snap, ok := tracker.getSnapshotAt(0)
	if !ok {
		t.Fatal("should be able to get latest snapshot")
	}
	if snap.accepted != 1000 {
		t.Errorf("accepted = %d, want 1000", snap.accepted)
	}
}

func TestRingBufferWrap(t *testing.T) {
	tracker := NewSLITracker(defaultSLIConfig())

	// Fill the ring and then some
	total := DefaultRingSize + 10
	for i := 0; i < total; i++ {
		tracker.RecordSnapshot(client.DeliveryStats{
			RecordsAccepted: uint64(i * 100),
			EntriesSent:     uint64(i * 99),
		})
	}

	tracker.mu.Lock()
	defer tracker.mu.Unlock()

	if tracker.count != DefaultRingSize {
		t.Errorf("count = %d, want %d (should cap at ring size)", tracker.count, DefaultRingSize)
	}
	if tracker.snapshotsTotal != uint64(total) {
		t.Errorf("snapshotsTotal = %d, want %d", tracker.snapshotsTotal, total)
	}

	// Latest should be the last recorded
	snap, ok := tracker.latest()
	if !ok {
		t.Fatal("should have latest snapshot")
	}
	expected := uint64((total - 1) * 100)
	if snap.accepted != expected {
		t.Errorf("latest accepted = %d, want %d", snap.accepted, expected)
	}
}

func TestComputeDeliveryRatio(t *testing.T) {
	tests := []struct {
		name   string
		older  sliSnapshot
		newer  sliSnapshot
		expect float64
	}{
		{
			name:  "perfect delivery",
			older: sliSnapshot{},
			newer: sliSnapshot{accepted: 1500, sent: 1500},
			// good=1500, eligible=1500, ratio=1.0
			expect: 1.0,
		},
		{
			name:  "some loss",
			older: sliSnapshot{},
			newer: sliSnapshot{accepted: 1500, sent: 1485},
			// good=1485, eligible=1500, ratio=0.99
			expect: 0.99,
		},
		{
			name:  "with deliberate drops",
			older: sliSnapshot{},
			newer: sliSnapshot{accepted: 1000, sent: 900, dropped: 100},
			// good=900, eligible=1000-100=900, ratio=1.0
			expect: 1.0,
		},
		{
			name:  "no eligible entries",
			older: sliSnapshot{},
			newer: sliSnapshot{},
			// eligible=0, should return 1.0
			expect: 1.0,
		},
		{
			name:  "all dropped deliberately",
			older: sliSnapshot{},
			newer: sliSnapshot{accepted: 1000, sent: 0, dropped: 1000},
			// good=0, eligible=0, ratio=1.0 (every miss was a deliberate drop)
			expect: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeDeliveryRatio(tt.newer, tt.older)
			if math.Abs(got-tt.expect) > 0.001 {
				t.Errorf("delivery ratio = %g, want %g", got, tt.expect)
			}
		})
	}
}

func TestComputeFlushSuccessRatio(t *testing.T) {
	tests := []struct {
		name   string
		older  sliSnapshot
		newer  sliSnapshot
		expect float64
	}{
		{
			name:   "perfect flushes",
			older:  sliSnapshot{},
			newer:  sliSnapshot{batchesSent: 150},
			expect: 1.0,
		},
		{
			name:  "some failures",
			older: sliSnapshot{},
			newer: sliSnapshot{batchesSent: 150, failedFlushes: 7},
			// good=150, total=157, ratio=150/157≈0.9554
			expect: 150.0 / 157.0,
		},
		{
			name:   "no flushes",
			older:  sliSnapshot{},
			newer:  sliSnapshot{},
			expect: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeFlushSuccessRatio(tt.newer, tt.older)
			if math.Abs(got-tt.expect) > 0.001 {
				t.Errorf("flush ratio = %g, want %g", got, tt.expect)
			}
		})
	}
}

func TestComputeBurnRate(t *testing.T) {
	tests := []struct {
		name   string
		ratio  float64
		target float64
		expect float64
	}{
		{
			name:   "at SLO pace",
			ratio:  0.999,
			target: 0.999,
			expect: 1.0,
		},
		{
			name:   "14.4x burn",
			ratio:  1.0 - 14.4*0.001,
			target: 0.999,
			// error_rate = 0.0144, allowed = 0.001, burn = 14.4
			expect: 14.4,
		},
		{
			name:   "no errors",
			ratio:  1.0,
			target: 0.999,
			expect: 0.0,
		},
		{
			name:   "100% target",
			ratio:  0.999,
			target: 1.0,
			expect: 0.0, // can't compute with target=1.0
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeBurnRate(tt.ratio, tt.target)
			if math.Abs(got-tt.expect) > 0.01 {
				t.Errorf("burn rate = %g, want %g", got, tt.expect)
			}
		})
	}
}

func TestErrorBudgetRemaining(t *testing.T) {
	tracker := NewSLITracker(defaultSLIConfig())
	tracker.startTime = time.Now().Add(-2 * time.Minute) // enough elapsed time

	// Start: no entries
	start := sliSnapshot{}
	// Latest: perfect delivery
	latest := sliSnapshot{accepted: 10000, sent: 10000}

	budget := tracker.computeErrorBudgetRemaining(start, latest, computeDeliveryRatio, 0.999)
	if math.Abs(budget-1.0) > 0.001 {
		t.Errorf("budget remaining = %g, want 1.0 (perfect delivery)", budget)
	}

	// 50% of budget consumed
	latestLoss := sliSnapshot{
		accepted: 10000,
		sent:     9995, // 5 lost out of 10000
		// allowed: 10000 * 0.001 = 10 errors
		// actual: 5 errors, so consumed = 5/10 = 0.5, remaining = 0.5
	}
	budget = tracker.computeErrorBudgetRemaining(start, latestLoss, computeDeliveryRatio, 0.999)
	if math.Abs(budget-0.5) > 0.001 {
		t.Errorf("budget remaining = %g, want 0.5", budget)
	}
}

func TestErrorBudgetTooEarly(t *testing.T) {
	tracker := NewSLITracker(defaultSLIConfig())
	tracker.startTime = time.Now() // just started, < 60s

	start := sliSnapshot{}
	latest := sliSnapshot{accepted: 100, sent: 50}

	budget := tracker.computeErrorBudgetRemaining(start, latest, computeDeliveryRatio, 0.999)
	if budget != 1.0 {
		t.Errorf("budget = %g, want 1.0 (too early to compute)", budget)
	}
}

func TestPublishGauges(t *testing.T) {
	tracker := NewSLITracker(defaultSLIConfig())
	tracker.startTime = time.Now().Add(-10 * time.Minute) // enough for budget

	// Record enough snapshots to fill the 5m window (10 slots)
	for i := 0; i < 15; i++ {
		tracker.RecordSnapshot(client.DeliveryStats{
			RecordsAccepted: uint64(1000 * (i + 1)),
			EntriesSent:     uint64(990 * (i + 1)),
			BatchesSent:     uint64(100 * (i + 1)),
			FailedFlushes:   uint64(i),
		})
	}

	// 5m window: latest i=14, older i=5 (9 slots back).
	// delivery: good=8910, eligible=9000, ratio=0.99
	got := testutil.ToFloat64(sliDeliveryRatio.WithLabelValues("5m"))
	if math.Abs(got-0.99) > 0.001 {
		t.Errorf("delivery ratio gauge = %g, want 0.99", got)
	}

	// flush: good=900, errors=9, ratio=900/909
	got = testutil.ToFloat64(sliFlushSuccessRatio.WithLabelValues("5m"))
	if math.Abs(got-900.0/909.0) > 0.001 {
		t.Errorf("flush ratio gauge = %g, want %g", got, 900.0/909.0)
	}

	// burn rate: (1-0.99)/(1-0.999) = 10
	got = testutil.ToFloat64(sliDeliveryBurnRate.WithLabelValues("5m"))
	if math.Abs(got-10.0) > 0.01 {
		t.Errorf("delivery burn rate gauge = %g, want 10.0", got)
	}

	// Budget from the first snapshot: 1% loss against a 0.1% budget,
	// fully consumed and clamped to zero.
	got = testutil.ToFloat64(sliDeliveryBudgetRemaining)
	if got != 0.0 {
		t.Errorf("delivery budget gauge = %g, want 0.0", got)
	}
}

func TestPublishNeedsTwoSnapshots(t *testing.T) {
	tracker := NewSLITracker(defaultSLIConfig())

	// One snapshot is not enough for any window ratio.
	tracker.RecordSnapshot(client.DeliveryStats{RecordsAccepted: 100, EntriesSent: 50})

	tracker.mu.Lock()
	count := tracker.count
	tracker.mu.Unlock()
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestRunRecordsPeriodically(t *testing.T) {
	tracker := NewSLITracker(defaultSLIConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		tracker.Run(ctx, 5*time.Millisecond, func() client.DeliveryStats {
			return client.DeliveryStats{RecordsAccepted: 100, EntriesSent: 100}
		})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	tracker.mu.Lock()
	n := tracker.snapshotsTotal
	tracker.mu.Unlock()
	if n == 0 {
		t.Error("expected snapshots to be recorded")
	}
}

func TestRunDisabled(t *testing.T) {
	cfg := defaultSLIConfig()
	cfg.Enabled = false
	tracker := NewSLITracker(cfg)

	// Returns immediately without touching the provider.
	tracker.Run(context.Background(), time.Millisecond, nil)

	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	if tracker.snapshotsTotal != 0 {
		t.Errorf("snapshotsTotal = %d, want 0", tracker.snapshotsTotal)
	}
}

func TestGetSnapshotAtOutOfRange(t *testing.T) {
	tracker := NewSLITracker(defaultSLIConfig())

	tracker.mu.Lock()
	_, ok := tracker.getSnapshotAt(0)
	tracker.mu.Unlock()
	if ok {
		t.Error("should return false for empty ring")
	}

	tracker.RecordSnapshot(client.DeliveryStats{RecordsAccepted: 100})

	tracker.mu.Lock()
	_, ok = tracker.getSnapshotAt(5)
	tracker.mu.Unlock()
	if ok {
		t.Error("should return false for out-of-range slot")
	}
}

func TestDeliveryRatioClamp(t *testing.T) {
	// Counter skew can make sent exceed accepted within a window;
	// the ratio must stay clamped to [0, 1].
	older := sliSnapshot{}
	newer := sliSnapshot{accepted: 100, sent: 200}
	ratio := computeDeliveryRatio(newer, older)
	if ratio > 1.0 {
		t.Errorf("ratio should be clamped to 1.0, got %g", ratio)
	}
}

func TestSLIConcurrentRecord(t *testing.T) {
	tracker := NewSLITracker(defaultSLIConfig())
	var wg sync.WaitGroup

	for j := 0; j < 4; j++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				tracker.RecordSnapshot(client.DeliveryStats{
					RecordsAccepted: uint64(i * 100),
					EntriesSent:     uint64(i * 99),
				})
			}
		}()
	}
	wg.Wait()

	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	if tracker.snapshotsTotal != 400 {
		t.Errorf("snapshotsTotal = %d, want 400", tracker.snapshotsTotal)
	}
}

func BenchmarkRecordSnapshot(b *testing.B) {
	tracker := NewSLITracker(defaultSLIConfig())
	st := client.DeliveryStats{
		RecordsAccepted: 1000000,
		EntriesSent:     999900,
		BatchesSent:     10000,
		FailedFlushes:   5,
		DroppedEntries:  42,
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tracker.RecordSnapshot(st)
	}
}
