package client

import (
	"sync"

	"github.com/logflux-io/logflux-go-sdk/wire"
)

// pendingBuffer owns the ordered sequence of entries waiting for
// delivery plus a running estimate of their memory footprint. Every
// mutation is one critical section, so a drain can never observe a torn
// append and two threshold-crossing adds can never both see the same
// pending snapshot.
type pendingBuffer struct {
	mu       sync.Mutex
	entries  []wire.LogEntry
	bytes    int
	maxCount int
	maxBytes int
}

func newPendingBuffer(maxCount, maxBytes int) *pendingBuffer {
	return &pendingBuffer{
		entries:  make([]wire.LogEntry, 0, maxCount),
		maxCount: maxCount,
		maxBytes: maxBytes,
	}
}

// add appends an entry and reports whether a flush threshold (count or
// estimated memory) has been crossed. The size estimate is maintained
// incrementally, never recomputed by scanning.
func (b *pendingBuffer) add(e wire.LogEntry) (crossed bool) {
	size := e.EstimatedSize()
	b.mu.Lock()
	b.entries = append(b.entries, e)
	b.bytes += size
	crossed = len(b.entries) >= b.maxCount || b.bytes >= b.maxBytes
	b.mu.Unlock()
	return crossed
}

// drainAll atomically removes and returns everything pending. Entries
// added while the drained batch is in flight land in the fresh slice.
func (b *pendingBuffer) drainAll() ([]wire.LogEntry, int) {
	b.mu.Lock()
	entries, bytes := b.entries, b.bytes
	b.entries = make([]wire.LogEntry, 0, b.maxCount)
	b.bytes = 0
	b.mu.Unlock()
	return entries, bytes
}

// restore re-inserts a drained sequence ahead of anything added since,
// so a failed flush never reorders or drops entries.
func (b *pendingBuffer) restore(entries []wire.LogEntry, bytes int) {
	if len(entries) == 0 {
		return
	}
	b.mu.Lock()
	merged := make([]wire.LogEntry, 0, len(entries)+len(b.entries))
	merged = append(merged, entries...)
	merged = append(merged, b.entries...)
	b.entries = merged
	b.bytes += bytes
	b.mu.Unlock()
}

func (b *pendingBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

func (b *pendingBuffer) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bytes
}
