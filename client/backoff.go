package client

import (
	"sync/atomic"
	"time"
)

// RetryState is a read-only snapshot of the backoff controller.
type RetryState struct {
	// ConsecutiveFailures is the current unbroken failure run.
	ConsecutiveFailures int
	// NextRetryDelay is the delay the scheduler will use for the next
	// attempt while the run continues.
	NextRetryDelay time.Duration
}

// retryController converts consecutive flush failures into an
// exponentially increasing delay, capped at max and reset on any
// success. Atomics keep snapshots cheap for stats readers.
type retryController struct {
	failures  atomic.Int64
	nextDelay atomic.Int64 // nanoseconds

	initial    time.Duration
	max        time.Duration
	multiplier float64
}

func newRetryController(initial, max time.Duration, multiplier float64) *retryController {
	r := &retryController{
		initial:    initial,
		max:        max,
		multiplier: multiplier,
	}
	r.nextDelay.Store(int64(initial))
	return r
}

func (r *retryController) recordSuccess() {
	r.failures.Store(0)
	r.nextDelay.Store(int64(r.initial))
}

func (r *retryController) recordFailure() {
	r.failures.Add(1)
	next := time.Duration(float64(r.nextDelay.Load()) * r.multiplier)
	if next > r.max {
		next = r.max
	}
	r.nextDelay.Store(int64(next))
}

// currentDelay is the delay to use for the next attempt. Before any
// failure it equals the initial delay.
func (r *retryController) currentDelay() time.Duration {
	return time.Duration(r.nextDelay.Load())
}

func (r *retryController) consecutiveFailures() int {
	return int(r.failures.Load())
}

func (r *retryController) snapshot() RetryState {
	return RetryState{
		ConsecutiveFailures: r.consecutiveFailures(),
		NextRetryDelay:      r.currentDelay(),
	}
}
