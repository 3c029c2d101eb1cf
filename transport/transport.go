// Package transport implements the socket client the delivery engine
// drives: one connection to a LogFlux agent over a unix-domain or TCP
// socket, one JSON document per newline-terminated frame, and a deadline
// on every operation.
package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	logflux "github.com/logflux-io/logflux-go-sdk"
	"github.com/logflux-io/logflux-go-sdk/wire"
)

// Operation timeout defaults, applied when the corresponding Config
// field is zero.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultSendTimeout    = 5 * time.Second
	DefaultReadTimeout    = 5 * time.Second
)

// Connection states. The transport only ever moves disconnected →
// connecting → connected and back to disconnected; there is no
// authenticated state, callers gate sends on Authenticate themselves.
const (
	stateDisconnected int32 = iota
	stateConnecting
	stateConnected
)

// Config describes how to reach the agent.
type Config struct {
	// Network selects the socket family, "unix" or "tcp".
	Network string
	// Address is the socket path for unix or host:port for tcp.
	Address string
	// SharedSecret authenticates tcp connections; unix sockets are
	// trusted through filesystem permissions and ignore it.
	SharedSecret string
	// ConnectTimeout bounds dialing. Zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration
	// SendTimeout bounds a single write. Zero means DefaultSendTimeout.
	SendTimeout time.Duration
	// ReadTimeout bounds waiting for a response line. Zero means
	// DefaultReadTimeout.
	ReadTimeout time.Duration
}

// Validate checks the static parts of the config. Address form problems
// (a missing socket file, a tcp address without a port) surface later as
// connect failures, not configuration errors.
func (c Config) Validate() error {
	switch c.Network {
	case "unix", "tcp":
	default:
		return &logflux.ConfigurationError{Field: "network", Reason: "must be \"unix\" or \"tcp\""}
	}
	if c.Address == "" {
		return &logflux.ConfigurationError{Field: "address", Reason: "must not be empty"}
	}
	if c.ConnectTimeout < 0 || c.SendTimeout < 0 || c.ReadTimeout < 0 {
		return &logflux.ConfigurationError{Field: "timeouts", Reason: "must not be negative"}
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.SendTimeout == 0 {
		c.SendTimeout = DefaultSendTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	return c
}

// Client is a synchronous request/response transport over one socket.
// All methods are safe for concurrent use; the connection is touched by
// one operation at a time.
type Client struct {
	cfg Config

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	state  atomic.Int32
}

// New builds a transport client for the given agent address. The
// connection is not opened until Connect.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{cfg: cfg.withDefaults()}, nil
}

// Connect opens the socket. Calling it while already connected is a
// no-op. A unix socket path that does not exist fails before any dial;
// dial timeouts map to TimeoutError and every other dial failure to
// ConnectionError.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}
	c.state.Store(stateConnecting)

	if c.cfg.Network == "unix" {
		if _, err := os.Stat(c.cfg.Address); err != nil {
			c.state.Store(stateDisconnected)
			return &logflux.ConnectionError{Op: "connect", Addr: c.cfg.Address, Err: err}
		}
	}
	if c.cfg.Network == "tcp" {
		if _, _, err := net.SplitHostPort(c.cfg.Address); err != nil {
			c.state.Store(stateDisconnected)
			return &logflux.ConnectionError{Op: "connect", Addr: c.cfg.Address, Err: err}
		}
	}

	dialer := net.Dialer{Timeout: c.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, c.cfg.Network, c.cfg.Address)
	if err != nil {
		c.state.Store(stateDisconnected)
		return c.failure("connect", c.cfg.ConnectTimeout, err)
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	c.state.Store(stateConnected)
	return nil
}

// Connected reports whether the socket is currently open.
func (c *Client) Connected() bool {
	return c.state.Load() == stateConnected
}

// Send serializes m as a single JSON line and writes it within the send
// deadline. A write failure closes the socket so the next Connect starts
// clean.
func (c *Client) Send(ctx context.Context, m wire.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendLocked(ctx, m)
}

// SendBatch validates the 1..100 batch contract before touching the
// network, then behaves as Send.
func (c *Client) SendBatch(ctx context.Context, b *wire.LogBatch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return c.Send(ctx, b)
}

// ReadResponse reads exactly one response line within the read deadline.
// Deadline expiry is TimeoutError; a line that does not parse as JSON is
// ProtocolError and leaves the connection open.
func (c *Client) ReadResponse(ctx context.Context) (*wire.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readLocked(ctx)
}

// Ping sends a ping request and reports whether the agent answered
// "pong". It never returns an error; any failure is false.
func (c *Client) Ping(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.sendLocked(ctx, wire.NewPingRequest()); err != nil {
		return false
	}
	resp, err := c.readLocked(ctx)
	if err != nil {
		return false
	}
	return resp.Status == wire.StatusPong
}

// Authenticate presents the shared secret on tcp transports and reports
// whether the agent accepted it. Unix sockets authenticate trivially.
// The only error it returns is the missing-secret ConfigurationError;
// transport and protocol failures are a false result, since a failed
// authentication is recoverable.
func (c *Client) Authenticate(ctx context.Context) (bool, error) {
	if c.cfg.Network == "unix" {
		return true, nil
	}
	if c.cfg.SharedSecret == "" {
		return false, &logflux.ConfigurationError{Field: "sharedSecret", Reason: "shared secret required for tcp transport"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.sendLocked(ctx, wire.NewAuthRequest(c.cfg.SharedSecret)); err != nil {
		return false, nil
	}
	resp, err := c.readLocked(ctx)
	if err != nil {
		return false, nil
	}
	return resp.Status == wire.StatusSuccess, nil
}

// Close tears the socket down. It is idempotent and never fails.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}

func (c *Client) sendLocked(ctx context.Context, m wire.Message) error {
	if c.conn == nil {
		return &logflux.ConnectionError{Op: "send", Addr: c.cfg.Address, Err: errors.New("no open connection")}
	}
	if err := ctx.Err(); err != nil {
		return c.failure("send", c.cfg.SendTimeout, err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		return &logflux.ProtocolError{Reason: "encode message", Err: err}
	}
	data = append(data, '\n')

	if err := c.conn.SetWriteDeadline(c.deadline(ctx, c.cfg.SendTimeout)); err != nil {
		c.closeLocked()
		return &logflux.ConnectionError{Op: "send", Addr: c.cfg.Address, Err: err}
	}
	if _, err := c.conn.Write(data); err != nil {
		c.closeLocked()
		return c.failure("send", c.cfg.SendTimeout, err)
	}
	return nil
}

func (c *Client) readLocked(ctx context.Context) (*wire.Response, error) {
	if c.conn == nil {
		return nil, &logflux.ConnectionError{Op: "read", Addr: c.cfg.Address, Err: errors.New("no open connection")}
	}
	if err := ctx.Err(); err != nil {
		return nil, c.failure("read", c.cfg.ReadTimeout, err)
	}

	if err := c.conn.SetReadDeadline(c.deadline(ctx, c.cfg.ReadTimeout)); err != nil {
		c.closeLocked()
		return nil, &logflux.ConnectionError{Op: "read", Addr: c.cfg.Address, Err: err}
	}
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		c.closeLocked()
		return nil, c.failure("read", c.cfg.ReadTimeout, err)
	}

	var resp wire.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, &logflux.ProtocolError{Reason: "malformed response", Err: err}
	}
	return &resp, nil
}

func (c *Client) closeLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
	c.state.Store(stateDisconnected)
}

// deadline resolves the effective deadline for one operation: the
// per-operation timeout, tightened by the context deadline when that is
// sooner.
func (c *Client) deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

// failure classifies one failed socket operation: deadline expiry maps
// to TimeoutError, everything else to ConnectionError.
func (c *Client) failure(op string, timeout time.Duration, err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &logflux.TimeoutError{Op: op, Addr: c.cfg.Address, Timeout: timeout, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &logflux.TimeoutError{Op: op, Addr: c.cfg.Address, Timeout: timeout, Err: err}
	}
	return &logflux.ConnectionError{Op: op, Addr: c.cfg.Address, Err: err}
}
