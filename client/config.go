package client

import (
	"fmt"
	"time"

	logflux "github.com/logflux-io/logflux-go-sdk"
	"github.com/logflux-io/logflux-go-sdk/wire"
)

// BatchConfig defaults.
const (
	DefaultMaxBatchSize           = wire.MaxBatchEntries
	DefaultFlushInterval          = 5 * time.Second
	DefaultMaxMemoryBytes         = 1 << 20 // 1 MiB of pending entries
	DefaultInitialRetryDelay      = time.Second
	DefaultMaxRetryDelay          = 30 * time.Second
	DefaultRetryBackoffMultiplier = 2.0
	DefaultCircuitFailures        = 5
	DefaultCircuitOpenTimeout     = 30 * time.Second
)

// BatchConfig tunes the delivery engine. Validated once at construction;
// a Client is never built from an invalid config.
type BatchConfig struct {
	// MaxBatchSize is the pending-entry count that triggers a flush,
	// 1..100. It is also the chunk size for oversized drains.
	MaxBatchSize int
	// FlushInterval is the idle flush cadence for buffers that never
	// reach a threshold.
	FlushInterval time.Duration
	// MaxMemoryBytes is the estimated pending-bytes threshold that
	// triggers a flush regardless of count.
	MaxMemoryBytes int
	// FlushOnExit registers termination-signal hooks that flush pending
	// entries before the process dies.
	FlushOnExit bool
	// InitialRetryDelay seeds the backoff after the first failure.
	InitialRetryDelay time.Duration
	// MaxRetryDelay caps the backoff growth.
	MaxRetryDelay time.Duration
	// RetryBackoffMultiplier grows the delay after each consecutive
	// failure; must be greater than 1.
	RetryBackoffMultiplier float64
	// CircuitBreakerFailureThreshold is the consecutive-failure count
	// that opens the circuit.
	CircuitBreakerFailureThreshold int
	// CircuitBreakerOpenTimeout is the cooldown before a half-open
	// probe is allowed.
	CircuitBreakerOpenTimeout time.Duration
}

// DefaultBatchConfig returns the stock tuning: batches of 100 or 1 MiB,
// 5s idle flushes, 1s..30s doubling backoff, circuit open after 5
// consecutive failures with a 30s cooldown, flush-on-exit enabled.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxBatchSize:                   DefaultMaxBatchSize,
		FlushInterval:                  DefaultFlushInterval,
		MaxMemoryBytes:                 DefaultMaxMemoryBytes,
		FlushOnExit:                    true,
		InitialRetryDelay:              DefaultInitialRetryDelay,
		MaxRetryDelay:                  DefaultMaxRetryDelay,
		RetryBackoffMultiplier:         DefaultRetryBackoffMultiplier,
		CircuitBreakerFailureThreshold: DefaultCircuitFailures,
		CircuitBreakerOpenTimeout:      DefaultCircuitOpenTimeout,
	}
}

// Validate checks every bound the engine relies on.
func (c BatchConfig) Validate() error {
	if c.MaxBatchSize < 1 || c.MaxBatchSize > wire.MaxBatchEntries {
		return &logflux.ConfigurationError{
			Field:  "maxBatchSize",
			Reason: fmt.Sprintf("%d outside 1..%d", c.MaxBatchSize, wire.MaxBatchEntries),
		}
	}
	if c.FlushInterval <= 0 {
		return &logflux.ConfigurationError{Field: "flushInterval", Reason: "must be positive"}
	}
	if c.MaxMemoryBytes <= 0 {
		return &logflux.ConfigurationError{Field: "maxMemoryBytes", Reason: "must be positive"}
	}
	if c.InitialRetryDelay <= 0 {
		return &logflux.ConfigurationError{Field: "initialRetryDelay", Reason: "must be positive"}
	}
	if c.MaxRetryDelay <= 0 {
		return &logflux.ConfigurationError{Field: "maxRetryDelay", Reason: "must be positive"}
	}
	if c.InitialRetryDelay > c.MaxRetryDelay {
		return &logflux.ConfigurationError{
			Field:  "initialRetryDelay",
			Reason: fmt.Sprintf("%s exceeds maxRetryDelay %s", c.InitialRetryDelay, c.MaxRetryDelay),
		}
	}
	if c.RetryBackoffMultiplier <= 1 {
		return &logflux.ConfigurationError{Field: "retryBackoffMultiplier", Reason: "must be greater than 1"}
	}
	if c.CircuitBreakerFailureThreshold <= 0 {
		return &logflux.ConfigurationError{Field: "circuitBreakerFailureThreshold", Reason: "must be positive"}
	}
	if c.CircuitBreakerOpenTimeout <= 0 {
		return &logflux.ConfigurationError{Field: "circuitBreakerOpenTimeout", Reason: "must be positive"}
	}
	return nil
}
