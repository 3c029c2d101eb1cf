package client

import "time"

// Option customizes a Client at construction time.
type Option func(*Client)

// WithClock overrides the time source used for circuit-breaker cooldowns
// and flush timestamps. Tests use this to step time deterministically.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSignalSource overrides where exit-hook signals come from.
func WithSignalSource(src SignalSource) Option {
	return func(c *Client) {
		if src != nil {
			c.signals = src
		}
	}
}
