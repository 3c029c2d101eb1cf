package sourcetrack

import (
	"sync"
	"sync/atomic"

	"github.com/logflux-io/logflux-go-sdk/logging"
)

// SpillMode represents the current phase of a SpillTracker.
type SpillMode int32

const (
	// SpillModeBloom indicates the tracker is using the Bloom filter.
	SpillModeBloom SpillMode = 0
	// SpillModeHLL indicates the tracker has spilled to HyperLogLog.
	SpillModeHLL SpillMode = 1
)

// String returns the string representation of the spill mode.
func (m SpillMode) String() string {
	switch m {
	case SpillModeBloom:
		return "bloom"
	case SpillModeHLL:
		return "hll"
	default:
		return "unknown"
	}
}

// SpillTracker starts with a Bloom filter and spills to HyperLogLog once
// the number of distinct sources reaches the limit the filter was sized
// for. Below the limit it supports membership testing (new-source
// detection); beyond it the filter's false positive rate degrades, so
// the tracker falls back to a fixed-memory HLL estimate instead.
type SpillTracker struct {
	bloom  *BloomTracker
	hll    *HLLTracker
	mode   atomic.Int32
	limit  int64
	spills atomic.Int64

	// Protects the spill operation
	spillMu sync.Mutex

	// Callback for spill events (optional)
	OnSpill func(uniqueAtSpill int64)
}

// NewSpillTracker creates a tracker that starts in Bloom mode and spills
// to HLL when the unique-source count reaches limit. A limit <= 0
// disables spilling.
func NewSpillTracker(cfg Config, limit int64) *SpillTracker {
	st := &SpillTracker{
		bloom: NewBloomTracker(cfg),
		hll:   NewHLLTracker(),
		limit: limit,
	}
	st.mode.Store(int32(SpillModeBloom))
	return st
}

// Mode returns the current tracker mode.
func (t *SpillTracker) Mode() SpillMode {
	return SpillMode(t.mode.Load())
}

// SpillCount returns how many times this tracker has spilled to HLL.
func (t *SpillTracker) SpillCount() int64 {
	return t.spills.Load()
}

// Observe records a source and reports whether it was new (Bloom mode only).
// In HLL mode it always reports true since HLL cannot determine membership.
func (t *SpillTracker) Observe(source string) bool {
	if SpillMode(t.mode.Load()) == SpillModeHLL {
		t.hll.Observe(source)
		return true
	}

	result := t.bloom.Observe(source)

	// Check if the filter has outgrown its sizing
	if t.limit > 0 && t.bloom.Unique() >= t.limit {
		t.spill()
	}

	return result
}

// Seen reports whether a source was likely already observed (Bloom mode).
// Always reports false in HLL mode (HLL cannot test membership).
func (t *SpillTracker) Seen(source string) bool {
	if SpillMode(t.mode.Load()) == SpillModeHLL {
		return false
	}
	return t.bloom.Seen(source)
}

// Unique returns the number of distinct sources observed.
func (t *SpillTracker) Unique() int64 {
	if SpillMode(t.mode.Load()) == SpillModeHLL {
		return t.hll.Unique()
	}
	return t.bloom.Unique()
}

// Reset clears both trackers and returns to Bloom mode.
func (t *SpillTracker) Reset() {
	t.spillMu.Lock()
	defer t.spillMu.Unlock()

	t.bloom.Reset()
	t.hll.Reset()
	t.mode.Store(int32(SpillModeBloom))
}

// MemoryUsage returns approximate memory usage in bytes.
func (t *SpillTracker) MemoryUsage() uint64 {
	if SpillMode(t.mode.Load()) == SpillModeHLL {
		return t.hll.MemoryUsage()
	}
	return t.bloom.MemoryUsage() + t.hll.MemoryUsage()
}

func (t *SpillTracker) spill() {
	t.spillMu.Lock()
	defer t.spillMu.Unlock()

	// Double-check after acquiring the lock
	if SpillMode(t.mode.Load()) == SpillModeHLL {
		return
	}

	uniqueAtSpill := t.bloom.Unique()

	// The HLL starts fresh rather than replaying the Bloom phase; the
	// estimate is briefly low and converges as new entries arrive.
	t.mode.Store(int32(SpillModeHLL))
	t.spills.Add(1)

	logging.Info("source tracker spilled to HLL", logging.F(
		"unique_at_spill", uniqueAtSpill,
		"limit", t.limit,
	))

	if t.OnSpill != nil {
		t.OnSpill(uniqueAtSpill)
	}
}
