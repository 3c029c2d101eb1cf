package sourcetrack

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Tracker counts distinct log sources, exactly or probabilistically.
// All implementations are safe for concurrent use.
type Tracker interface {
	// Observe records a source and reports whether it was new
	// (not observed before).
	Observe(source string) bool

	// Seen reports whether a source was already observed, without
	// recording it.
	Seen(source string) bool

	// Unique returns the number of distinct sources observed.
	// Note: BloomTracker may slightly undercount due to false positives on Observe().
	Unique() int64

	// Reset clears the tracker for a new reporting window.
	Reset()

	// MemoryUsage returns approximate memory usage in bytes.
	MemoryUsage() uint64
}

// BloomTracker tracks distinct sources with a Bloom filter and a manual
// counter, since Bloom filters cannot estimate cardinality themselves.
type BloomTracker struct {
	filter *bloom.BloomFilter
	count  int64
	mu     sync.RWMutex
}

// NewBloomTracker creates a Bloom filter tracker sized for cfg.
func NewBloomTracker(cfg Config) *BloomTracker {
	return &BloomTracker{
		filter: bloom.NewWithEstimates(cfg.ExpectedSources, cfg.FalsePositiveRate),
		count:  0,
	}
}

// Observe records a source and reports whether it was new.
// Note: Due to false positives, Observe may report false for a truly new
// source ~FPR% of the time.
func (t *BloomTracker) Observe(source string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.filter.TestString(source) {
		// Likely already observed (may be a false positive)
		return false
	}

	// New source - add to the filter and count it
	t.filter.AddString(source)
	t.count++
	return true
}

// Seen reports whether a source was likely already observed.
func (t *BloomTracker) Seen(source string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.filter.TestString(source)
}

// Unique returns the number of distinct sources observed.
// Note: May slightly undercount due to false positives on Observe().
func (t *BloomTracker) Unique() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Reset clears the tracker for a new reporting window.
func (t *BloomTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filter.ClearAll()
	t.count = 0
}

// MemoryUsage returns approximate memory usage in bytes.
func (t *BloomTracker) MemoryUsage() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	// Bloom filter bit array size in bytes
	return uint64(t.filter.Cap()) / 8
}
