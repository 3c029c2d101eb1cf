package client

import (
	"sync/atomic"
	"time"

	"github.com/logflux-io/logflux-go-sdk/logging"
)

// CircuitState is a read-only snapshot of the breaker.
type CircuitState struct {
	// Open reports whether flushes are currently being dropped.
	Open bool
	// OpenedAt is when the circuit last opened; zero while closed.
	OpenedAt time.Time
}

// Internal breaker states.
const (
	circuitClosed int32 = iota
	circuitOpen
	circuitHalfOpen
)

// circuitBreaker stops network attempts once the agent is clearly down.
// After the cooldown elapses, exactly one flush wins the half-open probe
// via CAS; every concurrent loser is treated as if the circuit were
// still open, so racing flushes at the cooldown boundary cannot stampede
// a recovering agent.
type circuitBreaker struct {
	state         atomic.Int32
	consecutive   atomic.Int64
	openedAt      atomic.Int64 // unix nanos, 0 while closed
	halfOpenProbe atomic.Int32 // 1 while a probe is in flight

	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

func newCircuitBreaker(threshold int, cooldown time.Duration, now func() time.Time) *circuitBreaker {
	cb := &circuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       now,
	}
	cb.state.Store(circuitClosed)
	circuitStateGauge.Set(0)
	return cb
}

// allow reports whether the caller may attempt the network. A false
// result means the caller must drop its batch.
func (cb *circuitBreaker) allow() bool {
	switch cb.state.Load() {
	case circuitClosed:
		return true
	case circuitOpen:
		opened := cb.openedAt.Load()
		if cb.now().UnixNano()-opened < int64(cb.cooldown) {
			return false
		}
		// Cooldown elapsed. One goroutine wins the open → half-open
		// transition and becomes the probe; the rest keep dropping.
		if cb.state.CompareAndSwap(circuitOpen, circuitHalfOpen) {
			cb.halfOpenProbe.Store(1)
			circuitStateGauge.Set(2)
			logging.Info("circuit breaker half-open, probing agent", logging.F(
				"cooldown", cb.cooldown.String(),
			))
			return true
		}
		return false
	case circuitHalfOpen:
		// A second flush can land here while the probe is in flight.
		return cb.halfOpenProbe.CompareAndSwap(0, 1)
	default:
		return true
	}
}

func (cb *circuitBreaker) recordSuccess() {
	cb.consecutive.Store(0)
	if cb.state.Load() == circuitHalfOpen {
		cb.halfOpenProbe.Store(0)
		cb.state.Store(circuitClosed)
		cb.openedAt.Store(0)
		circuitStateGauge.Set(0)
		logging.Info("circuit breaker closed, agent recovered")
	}
}

func (cb *circuitBreaker) recordFailure() {
	fails := cb.consecutive.Add(1)

	switch cb.state.Load() {
	case circuitHalfOpen:
		cb.halfOpenProbe.Store(0)
		cb.state.Store(circuitOpen)
		cb.openedAt.Store(cb.now().UnixNano())
		circuitStateGauge.Set(1)
		circuitOpenedTotal.Inc()
		logging.Warn("circuit breaker reopened after failed probe", logging.F(
			"consecutive_failures", fails,
		))
	case circuitClosed:
		if int(fails) >= cb.threshold {
			cb.state.Store(circuitOpen)
			cb.openedAt.Store(cb.now().UnixNano())
			circuitStateGauge.Set(1)
			circuitOpenedTotal.Inc()
			logging.Warn("circuit breaker opened, dropping batches until cooldown", logging.F(
				"consecutive_failures", fails,
				"threshold", cb.threshold,
				"cooldown", cb.cooldown.String(),
			))
		}
	}
}

func (cb *circuitBreaker) snapshot() CircuitState {
	opened := cb.openedAt.Load()
	open := cb.state.Load() != circuitClosed
	st := CircuitState{Open: open}
	if open && opened != 0 {
		st.OpenedAt = time.Unix(0, opened)
	}
	return st
}
