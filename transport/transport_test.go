package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	logflux "github.com/logflux-io/logflux-go-sdk"
	"github.com/logflux-io/logflux-go-sdk/wire"
)

// fakeAgent is a minimal in-process agent: it accepts connections,
// records every received line, and answers each JSON document through
// the handle func. An empty response string means stay silent.
type fakeAgent struct {
	ln     net.Listener
	handle func(doc map[string]any) string

	mu    sync.Mutex
	lines []string
	conns []net.Conn
	wg    sync.WaitGroup
}

func newFakeAgent(t *testing.T, network, addr string, handle func(map[string]any) string) *fakeAgent {
	t.Helper()
	ln, err := net.Listen(network, addr)
	if err != nil {
		t.Fatalf("listen %s %s: %v", network, addr, err)
	}
	a := &fakeAgent{ln: ln, handle: handle}
	a.wg.Add(1)
	go a.serve()
	t.Cleanup(a.close)
	return a
}

func (a *fakeAgent) serve() {
	defer a.wg.Done()
	for {
		conn, err := a.ln.Accept()
		if err != nil {
			return
		}
		a.mu.Lock()
		a.conns = append(a.conns, conn)
		a.mu.Unlock()
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.handleConn(conn)
		}()
	}
}

func (a *fakeAgent) handleConn(conn net.Conn) {
	defer conn.Close()
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		a.mu.Lock()
		a.lines = append(a.lines, line)
		a.mu.Unlock()

		var doc map[string]any
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			continue
		}
		if a.handle == nil {
			continue
		}
		if resp := a.handle(doc); resp != "" {
			conn.Write([]byte(resp + "\n"))
		}
	}
}

func (a *fakeAgent) received() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.lines))
	copy(out, a.lines)
	return out
}

func (a *fakeAgent) close() {
	a.ln.Close()
	a.mu.Lock()
	for _, c := range a.conns {
		c.Close()
	}
	a.mu.Unlock()
	a.wg.Wait()
}

// answerAll is the standard agent behavior: pong pings, accept batches,
// check the shared secret on authenticate.
func answerAll(secret string) func(map[string]any) string {
	return func(doc map[string]any) string {
		switch doc["action"] {
		case wire.ActionPing:
			return `{"status":"pong"}`
		case wire.ActionAuthenticate:
			if doc["shared_secret"] == secret {
				return `{"status":"success"}`
			}
			return `{"status":"error","message":"bad secret"}`
		}
		return `{"status":"ok"}`
	}
}

func testEntries(n int) []wire.LogEntry {
	entries := make([]wire.LogEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, *wire.NewEntry("transport-test", fmt.Sprintf("line %d", i)))
	}
	return entries
}

func unixClient(t *testing.T, agent *fakeAgent, mutate func(*Config)) *Client {
	t.Helper()
	cfg := Config{Network: "unix", Address: agent.ln.Addr().String()}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown network", Config{Network: "udp", Address: "x"}},
		{"empty address", Config{Network: "unix"}},
		{"negative timeout", Config{Network: "tcp", Address: "localhost:1", ReadTimeout: -time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			var cfgErr *logflux.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected *logflux.ConfigurationError, got %v", err)
			}
		})
	}
}

func TestConnectMissingUnixSocket(t *testing.T) {
	c, err := New(Config{Network: "unix", Address: filepath.Join(t.TempDir(), "absent.sock")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = c.Connect(context.Background())
	var connErr *logflux.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *logflux.ConnectionError, got %v", err)
	}
	if connErr.Op != "connect" {
		t.Errorf("expected op connect, got %s", connErr.Op)
	}
	if c.Connected() {
		t.Error("client should not report connected")
	}
}

func TestConnectTCPBadAddressForm(t *testing.T) {
	c, err := New(Config{Network: "tcp", Address: "localhost"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = c.Connect(context.Background())
	var connErr *logflux.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *logflux.ConnectionError for host without port, got %v", err)
	}
}

func TestConnectAndPing(t *testing.T) {
	agent := newFakeAgent(t, "unix", filepath.Join(t.TempDir(), "agent.sock"), answerAll(""))
	c := unixClient(t, agent, nil)

	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !c.Connected() {
		t.Fatal("expected connected state")
	}
	// Second connect is a no-op.
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("repeat Connect: %v", err)
	}
	if !c.Ping(ctx) {
		t.Error("expected pong from the agent")
	}
}

func TestSendWithoutConnect(t *testing.T) {
	agent := newFakeAgent(t, "unix", filepath.Join(t.TempDir(), "agent.sock"), answerAll(""))
	c := unixClient(t, agent, nil)

	err := c.Send(context.Background(), wire.NewEntry("app", "orphan"))
	var connErr *logflux.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *logflux.ConnectionError, got %v", err)
	}
}

func TestSendBatchValidatesBeforeNetwork(t *testing.T) {
	agent := newFakeAgent(t, "unix", filepath.Join(t.TempDir(), "agent.sock"), answerAll(""))
	c := unixClient(t, agent, nil)
	// Deliberately not connected: validation must fire first.

	var valErr *logflux.ValidationError
	if err := c.SendBatch(context.Background(), wire.NewBatch(nil)); !errors.As(err, &valErr) {
		t.Errorf("empty batch: expected *logflux.ValidationError, got %v", err)
	}
	if err := c.SendBatch(context.Background(), wire.NewBatch(testEntries(wire.MaxBatchEntries+1))); !errors.As(err, &valErr) {
		t.Errorf("oversized batch: expected *logflux.ValidationError, got %v", err)
	}
	if got := agent.received(); len(got) != 0 {
		t.Errorf("agent should have seen nothing, got %d lines", len(got))
	}
}

func TestSendBatchRoundTrip(t *testing.T) {
	agent := newFakeAgent(t, "unix", filepath.Join(t.TempDir(), "agent.sock"), answerAll(""))
	c := unixClient(t, agent, nil)

	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.SendBatch(ctx, wire.NewBatch(testEntries(3))); err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	resp, err := c.ReadResponse(ctx)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if resp.Status != wire.StatusOK {
		t.Errorf("expected ok, got %q", resp.Status)
	}

	lines := agent.received()
	if len(lines) != 1 {
		t.Fatalf("expected one frame, got %d", len(lines))
	}
	var batch wire.LogBatch
	if err := json.Unmarshal([]byte(lines[0]), &batch); err != nil {
		t.Fatalf("agent received malformed batch: %v", err)
	}
	if len(batch.Entries) != 3 {
		t.Errorf("expected 3 entries on the wire, got %d", len(batch.Entries))
	}
}

func TestReadResponseMalformed(t *testing.T) {
	var calls int
	agent := newFakeAgent(t, "unix", filepath.Join(t.TempDir(), "agent.sock"), func(doc map[string]any) string {
		calls++
		if calls == 1 {
			return `this is not json`
		}
		return `{"status":"pong"}`
	})
	c := unixClient(t, agent, nil)

	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Send(ctx, wire.NewPingRequest()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	_, err := c.ReadResponse(ctx)
	var protoErr *logflux.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected *logflux.ProtocolError, got %v", err)
	}
	// The connection survives a malformed response.
	if !c.Connected() {
		t.Fatal("connection should remain open after a protocol error")
	}
	if !c.Ping(ctx) {
		t.Error("expected a working ping after the protocol error")
	}
}

func TestReadResponseTimeout(t *testing.T) {
	silent := func(doc map[string]any) string { return "" }
	agent := newFakeAgent(t, "unix", filepath.Join(t.TempDir(), "agent.sock"), silent)
	c := unixClient(t, agent, func(cfg *Config) { cfg.ReadTimeout = 50 * time.Millisecond })

	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Send(ctx, wire.NewPingRequest()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	_, err := c.ReadResponse(ctx)
	var toErr *logflux.TimeoutError
	if !errors.As(err, &toErr) {
		t.Fatalf("expected *logflux.TimeoutError, got %v", err)
	}
	if !toErr.Timeout() {
		t.Error("expected Timeout() true")
	}
}

func TestAuthenticateUnixIsTrivial(t *testing.T) {
	c, err := New(Config{Network: "unix", Address: "/nowhere/agent.sock"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ok, err := c.Authenticate(context.Background())
	if err != nil || !ok {
		t.Errorf("unix authenticate should be (true, nil), got (%v, %v)", ok, err)
	}
}

func TestAuthenticateTCPMissingSecret(t *testing.T) {
	// Nothing listens on this address; the configuration check must fire
	// before any network activity.
	c, err := New(Config{Network: "tcp", Address: "127.0.0.1:9"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ok, err := c.Authenticate(context.Background())
	if ok {
		t.Error("expected authentication to fail")
	}
	var cfgErr *logflux.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *logflux.ConfigurationError, got %v", err)
	}
}

func TestAuthenticateTCP(t *testing.T) {
	agent := newFakeAgent(t, "tcp", "127.0.0.1:0", answerAll("s3cret"))

	ctx := context.Background()

	good, err := New(Config{Network: "tcp", Address: agent.ln.Addr().String(), SharedSecret: "s3cret"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer good.Close()
	if err := good.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	ok, err := good.Authenticate(ctx)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !ok {
		t.Error("expected the correct secret to authenticate")
	}

	bad, err := New(Config{Network: "tcp", Address: agent.ln.Addr().String(), SharedSecret: "wrong"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer bad.Close()
	if err := bad.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	ok, err = bad.Authenticate(ctx)
	if err != nil {
		t.Errorf("rejected authentication must not error, got %v", err)
	}
	if ok {
		t.Error("expected the wrong secret to be rejected")
	}
}

func TestPingNeverErrors(t *testing.T) {
	agent := newFakeAgent(t, "unix", filepath.Join(t.TempDir(), "agent.sock"), answerAll(""))
	c := unixClient(t, agent, nil)

	ctx := context.Background()
	// Not connected: false, no panic.
	if c.Ping(ctx) {
		t.Error("ping without a connection should be false")
	}
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !c.Ping(ctx) {
		t.Error("expected pong")
	}
	c.Close()
	if c.Ping(ctx) {
		t.Error("ping after close should be false")
	}
}

func TestCloseIdempotent(t *testing.T) {
	agent := newFakeAgent(t, "unix", filepath.Join(t.TempDir(), "agent.sock"), answerAll(""))
	c := unixClient(t, agent, nil)

	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if c.Connected() {
		t.Error("expected disconnected state")
	}

	// Reconnect works after close.
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if !c.Ping(ctx) {
		t.Error("expected pong after reconnect")
	}
}
