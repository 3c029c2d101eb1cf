// Package logflux is the Go client SDK for the LogFlux agent.
//
// Applications hand individual log entries to a client; the client
// batches them in memory and delivers them to a local or remote agent
// over a unix-domain or TCP socket using newline-delimited JSON. The
// delivery pipeline retries failed flushes with exponential backoff and
// trips a circuit breaker when the agent stays unreachable, so a broken
// collector never blocks or crashes the host application.
//
// The root package holds the shared error taxonomy. The SDK surface
// lives in the subpackages:
//
//   - wire: protocol message types (entries, batches, ping, auth)
//   - transport: the socket client
//   - client: the batching and delivery engine
//   - config: address parsing and forwarder configuration
//   - adapters/slogflux: a log/slog handler backed by a client
//
// Minimal use:
//
//	tr, err := transport.New(transport.Config{Network: "unix", Address: "/tmp/logflux-agent.sock"})
//	if err != nil { ... }
//	c, err := client.New(tr, client.DefaultBatchConfig())
//	if err != nil { ... }
//	defer c.Stop(context.Background())
//	c.Add(wire.NewEntry("myapp", "something happened"))
package logflux
