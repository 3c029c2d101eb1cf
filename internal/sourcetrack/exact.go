package sourcetrack

import (
	"sync"
)

// ExactTracker keeps every source name in a map for 100% accurate
// counting. Memory grows with the number of distinct sources.
type ExactTracker struct {
	sources map[string]struct{}
	mu      sync.RWMutex
}

// NewExactTracker creates an exact source tracker.
func NewExactTracker() *ExactTracker {
	return &ExactTracker{
		sources: make(map[string]struct{}),
	}
}

// Observe records a source and reports whether it was new.
func (t *ExactTracker) Observe(source string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.sources[source]; exists {
		return false
	}
	t.sources[source] = struct{}{}
	return true
}

// Seen reports whether a source was already observed.
func (t *ExactTracker) Seen(source string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, exists := t.sources[source]
	return exists
}

// Unique returns the number of distinct sources observed.
func (t *ExactTracker) Unique() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return int64(len(t.sources))
}

// Reset clears the tracker for a new reporting window.
func (t *ExactTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sources = make(map[string]struct{})
}

// MemoryUsage returns approximate memory usage in bytes.
// Estimates ~64 bytes per source (name plus map overhead).
func (t *ExactTracker) MemoryUsage() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return uint64(len(t.sources)) * 64
}
