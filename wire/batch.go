package wire

import (
	"fmt"

	logflux "github.com/logflux-io/logflux-go-sdk"
)

// MaxBatchEntries is the hard protocol bound on entries per batch. The
// transport refuses larger batches before touching the network.
const MaxBatchEntries = 100

// LogBatch is an ordered group of entries delivered in one round-trip.
type LogBatch struct {
	Version string     `json:"version,omitempty"`
	Entries []LogEntry `json:"entries"`
}

// NewBatch wraps entries in a batch envelope. The slice is used as-is,
// not copied.
func NewBatch(entries []LogEntry) *LogBatch {
	return &LogBatch{
		Version: ProtocolVersion,
		Entries: entries,
	}
}

// Validate checks the 1..100 size contract and every contained entry.
func (b *LogBatch) Validate() error {
	if len(b.Entries) == 0 {
		return &logflux.ValidationError{Field: "entries", Reason: "batch must contain at least one entry"}
	}
	if len(b.Entries) > MaxBatchEntries {
		return &logflux.ValidationError{
			Field:  "entries",
			Reason: fmt.Sprintf("batch of %d exceeds the maximum of %d", len(b.Entries), MaxBatchEntries),
		}
	}
	for i := range b.Entries {
		if err := b.Entries[i].Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

// EstimatedSize sums the memory estimates of all contained entries.
func (b *LogBatch) EstimatedSize() int {
	var size int
	for i := range b.Entries {
		size += b.Entries[i].EstimatedSize()
	}
	return size
}

func (b *LogBatch) message() {}
