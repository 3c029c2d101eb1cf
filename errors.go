package logflux

import (
	"errors"
	"fmt"
	"time"
)

// ErrClientStopped is returned by client operations attempted after Stop.
// It is an immediate rejection and is never retried.
var ErrClientStopped = errors.New("logflux: client is stopped")

// ConfigurationError reports invalid static configuration, such as a batch
// size outside 1..100 or a missing shared secret for a TCP transport. It is
// raised at construction or on first use and is never retried.
type ConfigurationError struct {
	// Field is the configuration field at fault, when known.
	Field string
	// Reason describes the violation.
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("logflux: invalid configuration: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("logflux: invalid configuration: %s", e.Reason)
}

// ValidationError reports an entry or batch that violates the wire
// contract, such as an empty source or a batch outside 1..100 entries.
// Validation failures are the caller's responsibility and never feed the
// retry or circuit-breaker state.
type ValidationError struct {
	// Field names the offending field ("source", "entries", ...).
	Field string
	// Reason describes the violation.
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("logflux: invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("logflux: validation failed: %s", e.Reason)
}

// ConnectionError reports a socket that could not be opened or died
// mid-operation. Connection failures feed retry backoff and the circuit
// breaker.
type ConnectionError struct {
	// Op is the operation that failed ("connect", "send", "read").
	Op string
	// Addr is the agent address the operation targeted.
	Addr string
	// Err is the underlying error, if any.
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("logflux: %s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("logflux: %s %s: connection failed", e.Op, e.Addr)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError reports a connect, send, or read that exceeded its
// deadline. For retry purposes it is treated exactly like ConnectionError.
type TimeoutError struct {
	// Op is the operation that timed out ("connect", "send", "read").
	Op string
	// Addr is the agent address the operation targeted.
	Addr string
	// Timeout is the deadline that was exceeded.
	Timeout time.Duration
	// Err is the underlying error, if any.
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("logflux: %s %s: timed out after %s", e.Op, e.Addr, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Timeout reports true so callers using the net.Error convention treat
// this as a deadline failure.
func (e *TimeoutError) Timeout() bool { return true }

// ProtocolError reports a response that could not be parsed as a single
// JSON document. The buffered data is unaffected; the operation simply
// counts as failed.
type ProtocolError struct {
	// Reason describes what was malformed.
	Reason string
	// Err is the underlying decode error, if any.
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("logflux: protocol error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("logflux: protocol error: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// Retryable reports whether err describes a transient delivery failure
// that should feed retry backoff and the circuit breaker. Validation and
// configuration errors and stopped-client rejections are permanent;
// everything else that reaches the delivery path is assumed transient.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var (
		cfgErr *ConfigurationError
		valErr *ValidationError
	)
	if errors.As(err, &cfgErr) || errors.As(err, &valErr) || errors.Is(err, ErrClientStopped) {
		return false
	}
	return true
}
