package sourcetrack

// Mode determines the source tracking implementation.
type Mode int

const (
	// ModeBloom uses a Bloom filter with HLL spill for memory-bounded
	// tracking. May slightly undercount due to false positives
	// (configurable via FalsePositiveRate).
	ModeBloom Mode = iota

	// ModeExact uses map[string]struct{} for 100% accurate tracking.
	// Higher memory usage but no false positives.
	ModeExact
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeBloom:
		return "bloom"
	case ModeExact:
		return "exact"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode string.
func ParseMode(s string) Mode {
	switch s {
	case "exact":
		return ModeExact
	default:
		return ModeBloom
	}
}

// Config holds configuration for source tracking.
type Config struct {
	// Mode determines the tracking implementation (bloom or exact).
	Mode Mode

	// ExpectedSources is the expected number of distinct sources.
	// Used for Bloom filter sizing and as the HLL spill limit. Higher
	// values use more memory but reduce false positives.
	ExpectedSources uint

	// FalsePositiveRate is the target false positive rate for Bloom
	// filter mode. 0.01 = 1% false positive rate (default).
	// Lower values use more memory but are more accurate.
	FalsePositiveRate float64
}

// DefaultConfig returns sensible defaults for source tracking.
func DefaultConfig() Config {
	return Config{
		Mode:              ModeBloom,
		ExpectedSources:   100000,
		FalsePositiveRate: 0.01,
	}
}

// New creates a tracker based on the provided config. Bloom mode gets a
// spill tracker so memory stays bounded past the filter's sizing.
func New(cfg Config) Tracker {
	if cfg.Mode == ModeExact {
		return NewExactTracker()
	}
	return NewSpillTracker(cfg, int64(cfg.ExpectedSources))
}
