// Package client implements the batching delivery engine: entries
// accumulate in a bounded in-memory buffer and are flushed to the agent
// on count/size thresholds, on a timer, on demand, and once more at
// shutdown. Transient delivery failures feed an exponential backoff and
// a circuit breaker; entries are never reordered and never retried
// individually.
package client

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	logflux "github.com/logflux-io/logflux-go-sdk"
	"github.com/logflux-io/logflux-go-sdk/logging"
	"github.com/logflux-io/logflux-go-sdk/wire"
)

// Transport delivers batches to an agent. *transport.Client satisfies
// this; tests substitute fakes.
type Transport interface {
	Connect(ctx context.Context) error
	SendBatch(ctx context.Context, batch *wire.LogBatch) error
	Close() error
}

// Client is the delivery engine. All methods are safe for concurrent
// use. A Client must be created with New and released with Stop.
type Client struct {
	cfg       BatchConfig
	transport Transport

	buf     *pendingBuffer
	retry   *retryController
	breaker *circuitBreaker
	stats   *statsCollector

	now     func() time.Time
	signals SignalSource

	// flushMu serializes flush attempts so batches leave in order and
	// Stop can wait out an in-flight flush by taking the lock.
	flushMu sync.Mutex

	flushCh  chan struct{}
	stopCh   chan struct{}
	stopDone chan struct{}
	stopped  atomic.Bool
	wg       sync.WaitGroup

	sigCh chan os.Signal
	sigWg sync.WaitGroup
}

// New builds a Client around a transport and starts its scheduler. The
// config is validated up front; the transport connects lazily on the
// first flush.
func New(t Transport, cfg BatchConfig, opts ...Option) (*Client, error) {
	if t == nil {
		return nil, &logflux.ConfigurationError{Field: "transport", Reason: "must not be nil"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		cfg:       cfg,
		transport: t,
		now:       time.Now,
		signals:   osSignalSource{},
		flushCh:   make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		stopDone:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.buf = newPendingBuffer(cfg.MaxBatchSize, cfg.MaxMemoryBytes)
	c.retry = newRetryController(cfg.InitialRetryDelay, cfg.MaxRetryDelay, cfg.RetryBackoffMultiplier)
	c.breaker = newCircuitBreaker(cfg.CircuitBreakerFailureThreshold, cfg.CircuitBreakerOpenTimeout, c.now)
	c.stats = &statsCollector{}

	c.wg.Add(1)
	go c.runLoop()

	if cfg.FlushOnExit {
		c.sigCh = make(chan os.Signal, 1)
		c.signals.Notify(c.sigCh, os.Interrupt, syscall.SIGTERM)
		c.sigWg.Add(1)
		go c.watchSignals()
	}
	return c, nil
}

// Add validates an entry and appends it to the pending buffer. It never
// blocks on delivery: crossing the count or byte threshold only signals
// the scheduler. After Stop it returns ErrClientStopped.
func (c *Client) Add(e *wire.LogEntry) error {
	if c.stopped.Load() {
		return logflux.ErrClientStopped
	}
	if e == nil {
		return &logflux.ValidationError{Field: "entry", Reason: "must not be nil"}
	}
	if err := e.Validate(); err != nil {
		return err
	}
	crossed := c.buf.add(*e)
	c.stats.recordAccepted()
	c.updatePendingGauges()
	if crossed {
		select {
		case c.flushCh <- struct{}{}:
		default:
		}
	}
	return nil
}

// Flush drains and delivers the pending buffer now. Unlike scheduled
// flushes, delivery errors propagate to the caller; entries that could
// not be sent are already back at the front of the buffer when Flush
// returns.
func (c *Client) Flush(ctx context.Context) error {
	if c.stopped.Load() {
		return logflux.ErrClientStopped
	}
	return c.flushOnce(ctx)
}

// Stop shuts the engine down: no further Adds, scheduler stopped, one
// final flush attempt for whatever is pending, transport closed.
// Calling Stop again returns nil after the first call finishes.
func (c *Client) Stop(ctx context.Context) error {
	return c.stop(ctx, false)
}

func (c *Client) stop(ctx context.Context, fromSignal bool) error {
	if !c.stopped.CompareAndSwap(false, true) {
		// The signal watcher must not wait here: a concurrent Stop
		// waits for it via sigWg and would deadlock.
		if fromSignal {
			return nil
		}
		<-c.stopDone
		return nil
	}
	defer close(c.stopDone)
	if ctx == nil {
		ctx = context.Background()
	}

	close(c.stopCh)
	c.wg.Wait()

	if c.buf.len() > 0 {
		if err := c.flushOnce(ctx); err != nil {
			logging.Error("final flush failed, pending entries lost",
				logging.F("pending", c.buf.len(), "error", err.Error()))
		}
	}

	if c.sigCh != nil {
		c.signals.Stop(c.sigCh)
		if !fromSignal {
			c.sigWg.Wait()
		}
	}
	return c.transport.Close()
}

// PendingCount reports how many entries are buffered.
func (c *Client) PendingCount() int { return c.buf.len() }

// PendingBytes reports the estimated size of the buffered entries.
func (c *Client) PendingBytes() int { return c.buf.size() }

// Stats returns a snapshot of the delivery counters.
func (c *Client) Stats() DeliveryStats {
	st := c.stats.snapshot()
	st.PendingCount = c.buf.len()
	st.PendingBytes = c.buf.size()
	return st
}

// RetryState returns the current backoff position.
func (c *Client) RetryState() RetryState { return c.retry.snapshot() }

// CircuitState reports whether the breaker is open and since when.
func (c *Client) CircuitState() CircuitState { return c.breaker.snapshot() }

// runLoop is the scheduler: it flushes on threshold signals and on a
// timer whose period stretches to the retry delay while delivery is
// failing.
func (c *Client) runLoop() {
	defer c.wg.Done()
	timer := time.NewTimer(c.nextInterval())
	defer timer.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-c.flushCh:
			c.scheduledFlush("threshold")
		case <-timer.C:
			if c.buf.len() > 0 {
				c.scheduledFlush("interval")
			}
		}
		resetTimer(timer, c.nextInterval())
	}
}

// nextInterval couples the flush cadence to the backoff: while delivery
// is failing the scheduler waits out the retry delay instead of
// hammering the agent every FlushInterval.
func (c *Client) nextInterval() time.Duration {
	if c.retry.consecutiveFailures() > 0 {
		return c.retry.currentDelay()
	}
	return c.cfg.FlushInterval
}

// scheduledFlush swallows delivery errors; they are already counted and
// the entries restored, so the only trace here is a debug line.
func (c *Client) scheduledFlush(cause string) {
	if err := c.flushOnce(context.Background()); err != nil {
		logging.Debug("scheduled flush failed",
			logging.F("cause", cause, "error", err.Error()))
	}
}

// flushOnce drains the buffer and delivers it, at most one attempt at a
// time. With the circuit open the drained entries are dropped, not
// restored.
func (c *Client) flushOnce(ctx context.Context) error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	start := time.Now()
	entries, bytes := c.buf.drainAll()
	c.updatePendingGauges()
	if len(entries) == 0 {
		return nil
	}

	if !c.breaker.allow() {
		c.stats.recordDropped(len(entries), bytes, "circuit_open")
		logging.Warn("circuit open, dropping batch",
			logging.F("entries", len(entries), "bytes", bytes))
		return nil
	}

	err := c.deliver(ctx, entries)
	flushDurationSeconds.Observe(time.Since(start).Seconds())
	return err
}

// deliver connects and sends the drained entries in chunks of at most
// MaxBatchSize. On failure the unsent tail goes back to the front of
// the buffer so order is preserved across retries.
func (c *Client) deliver(ctx context.Context, entries []wire.LogEntry) error {
	if err := c.transport.Connect(ctx); err != nil {
		c.handleDeliveryFailure(entries, err)
		return err
	}
	for off := 0; off < len(entries); off += c.cfg.MaxBatchSize {
		end := min(off+c.cfg.MaxBatchSize, len(entries))
		chunk := entries[off:end]
		if err := c.transport.SendBatch(ctx, wire.NewBatch(chunk)); err != nil {
			c.handleDeliveryFailure(entries[off:], err)
			return err
		}
		c.stats.recordBatchSent(len(chunk), c.now())
	}
	c.retry.recordSuccess()
	c.breaker.recordSuccess()
	retryDelaySeconds.Set(c.retry.currentDelay().Seconds())
	return nil
}

// handleDeliveryFailure restores the unsent entries and advances the
// backoff and breaker, except for non-retryable errors where restoring
// would wedge the buffer on the same failure forever.
func (c *Client) handleDeliveryFailure(unsent []wire.LogEntry, err error) {
	bytes := 0
	for i := range unsent {
		bytes += unsent[i].EstimatedSize()
	}
	if !logflux.Retryable(err) {
		c.stats.recordDropped(len(unsent), bytes, "unsendable")
		c.updatePendingGauges()
		logging.Error("dropping unsendable entries",
			logging.F("entries", len(unsent), "error", err.Error()))
		return
	}
	c.buf.restore(unsent, bytes)
	c.retry.recordFailure()
	c.breaker.recordFailure()
	c.stats.recordFailure()
	retryDelaySeconds.Set(c.retry.currentDelay().Seconds())
	c.updatePendingGauges()
}

func (c *Client) updatePendingGauges() {
	pendingEntriesGauge.Set(float64(c.buf.len()))
	pendingBytesGauge.Set(float64(c.buf.size()))
}

// watchSignals performs a best-effort flush when the process is asked
// to terminate. It runs the normal stop path, so the breaker still
// gates the final flush.
func (c *Client) watchSignals() {
	defer c.sigWg.Done()
	select {
	case sig := <-c.sigCh:
		logging.Warn("termination signal received, flushing pending entries",
			logging.F("signal", sig.String(), "pending", c.buf.len()))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.stop(ctx, true)
	case <-c.stopCh:
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
