package receiver

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/logflux-io/logflux-go-sdk/internal/auth"
	"github.com/logflux-io/logflux-go-sdk/internal/compression"
	"github.com/logflux-io/logflux-go-sdk/logging"
	"github.com/logflux-io/logflux-go-sdk/internal/stats"
	"github.com/logflux-io/logflux-go-sdk/internal/tlsutil"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	"golang.org/x/net/netutil"
	"google.golang.org/protobuf/proto"
)

// HTTPServerConfig holds HTTP receiver server settings.
type HTTPServerConfig struct {
	// MaxRequestBodySize limits the maximum size of request body.
	// Zero means no limit.
	MaxRequestBodySize int64
	// ReadTimeout is the maximum duration for reading the entire
	// request, including the body. Zero means no timeout.
	ReadTimeout time.Duration
	// ReadHeaderTimeout is the maximum duration for reading request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Zero means no timeout.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. Zero means no timeout.
	IdleTimeout time.Duration
	// KeepAlivesEnabled controls whether HTTP keep-alives are enabled.
	KeepAlivesEnabled bool
}

// HTTPConfig holds the HTTP receiver configuration.
type HTTPConfig struct {
	// Addr is the listen address.
	Addr string
	// Path is the URL path for receiving OTLP logs (default: /v1/logs).
	Path string
	// DefaultSource is used for resources without a service.name.
	DefaultSource string
	// TLS configuration for secure connections.
	TLS tlsutil.ServerConfig
	// Auth configuration for authentication.
	Auth auth.ServerConfig
	// Server configuration for HTTP server settings.
	Server HTTPServerConfig
	// MaxConnections caps concurrent connections. Zero means unlimited.
	MaxConnections int
}

// HTTPReceiver receives log records via OTLP HTTP.
type HTTPReceiver struct {
	server             *http.Server
	sink               Sink
	stats              *stats.Collector
	addr               string
	tlsConfig          *tls.Config
	maxRequestBodySize int64
	maxConns           int
	defaultSource      string
}

// NewHTTP creates an HTTP receiver with default configuration.
func NewHTTP(addr string, sink Sink, collector *stats.Collector) *HTTPReceiver {
	return NewHTTPWithConfig(HTTPConfig{Addr: addr}, sink, collector)
}

// NewHTTPWithConfig creates an HTTP receiver with the given configuration.
func NewHTTPWithConfig(cfg HTTPConfig, sink Sink, collector *stats.Collector) *HTTPReceiver {
	r := &HTTPReceiver{
		sink:               sink,
		stats:              collector,
		addr:               cfg.Addr,
		maxRequestBodySize: cfg.Server.MaxRequestBodySize,
		maxConns:           cfg.MaxConnections,
		defaultSource:      cfg.DefaultSource,
	}

	// Configure TLS
	if cfg.TLS.Enabled {
		tlsConfig, err := tlsutil.NewServerConfig(cfg.TLS)
		if err != nil {
			logging.Error("failed to create TLS config for HTTP receiver", logging.F("error", err.Error()))
		} else {
			r.tlsConfig = tlsConfig
		}
	}

	path := cfg.Path
	if path == "" {
		path = "/v1/logs"
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, r.handleLogs)

	// Wrap with auth middleware if enabled
	var handler http.Handler = mux
	if cfg.Auth.Enabled {
		handler = auth.HTTPMiddleware(cfg.Auth, mux)
	}

	// Apply default server timeouts if not set
	readHeaderTimeout := cfg.Server.ReadHeaderTimeout
	if readHeaderTimeout == 0 {
		readHeaderTimeout = 1 * time.Minute
	}
	writeTimeout := cfg.Server.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 30 * time.Second
	}
	idleTimeout := cfg.Server.IdleTimeout
	if idleTimeout == 0 {
		idleTimeout = 1 * time.Minute
	}

	r.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		TLSConfig:         r.tlsConfig,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	if !cfg.Server.KeepAlivesEnabled {
		r.server.SetKeepAlivesEnabled(false)
	}

	return r
}

func (r *HTTPReceiver) handleLogs(w http.ResponseWriter, req *http.Request) {
	IncrementReceiverRequests("http")

	if req.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Validate Content-Type
	contentType := req.Header.Get("Content-Type")
	if contentType != "" && contentType != "application/x-protobuf" {
		IncrementReceiverError("decode")
		http.Error(w, "Unsupported content type, expected application/x-protobuf", http.StatusUnsupportedMediaType)
		return
	}

	// Limit request body size if configured. One extra byte past the
	// limit distinguishes oversized bodies from exact-size ones.
	var bodyReader io.Reader = req.Body
	if r.maxRequestBodySize > 0 {
		bodyReader = io.LimitReader(req.Body, r.maxRequestBodySize+1)
	}

	// Read body into pooled buffer to avoid per-request allocation.
	readBuf := compression.GetBuffer()
	if _, err := readBuf.ReadFrom(bodyReader); err != nil {
		compression.ReleaseBuffer(readBuf)
		IncrementReceiverError("read")
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	req.Body.Close()

	if r.maxRequestBodySize > 0 && int64(readBuf.Len()) > r.maxRequestBodySize {
		compression.ReleaseBuffer(readBuf)
		IncrementReceiverError("read")
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	body := readBuf.Bytes()
	var decompBuf *bytes.Buffer

	// Decompress body based on Content-Encoding
	contentEncoding := req.Header.Get("Content-Encoding")
	if contentEncoding != "" && contentEncoding != "identity" {
		compressionType := compression.ParseContentEncoding(contentEncoding)
		if compressionType == compression.TypeNone {
			compression.ReleaseBuffer(readBuf)
			IncrementReceiverError("decompress")
			http.Error(w, "Unsupported content encoding, expected gzip or zstd", http.StatusUnsupportedMediaType)
			return
		}
		decompBuf = compression.GetBuffer()
		if err := compression.DecompressToBuf(decompBuf, body, compressionType); err != nil {
			compression.ReleaseBuffer(decompBuf)
			compression.ReleaseBuffer(readBuf)
			IncrementReceiverError("decompress")
			logging.Error("failed to decompress request body", logging.F(
				"encoding", contentEncoding,
				"error", err.Error(),
			))
			http.Error(w, "Failed to decompress body", http.StatusBadRequest)
			return
		}
		compression.ReleaseBuffer(readBuf)
		readBuf = nil
		body = decompBuf.Bytes()
		AddDecompressedBytes(len(body))
	}

	defer func() {
		if readBuf != nil {
			compression.ReleaseBuffer(readBuf)
		}
		if decompBuf != nil {
			compression.ReleaseBuffer(decompBuf)
		}
	}()

	// Unmarshal the export request
	var exportReq collogspb.ExportLogsServiceRequest
	if err := proto.Unmarshal(body, &exportReq); err != nil {
		IncrementReceiverError("decode")
		logging.Error("failed to unmarshal OTLP logs request", logging.F("error", err.Error()))
		http.Error(w, "Failed to unmarshal protobuf", http.StatusBadRequest)
		return
	}

	entries, dropped := entriesFromRequest(&exportReq, r.defaultSource)
	if dropped > 0 {
		r.stats.RecordRejected("http", "empty_body", dropped)
	}

	accepted := entries[:0]
	rejected := 0
	for i := range entries {
		if err := r.sink.Add(&entries[i]); err != nil {
			rejected++
			continue
		}
		accepted = append(accepted, entries[i])
	}
	if rejected > 0 {
		IncrementReceiverError("sink")
		r.stats.RecordRejected("http", "sink", rejected)
	}
	if len(accepted) > 0 {
		r.stats.Process("http", accepted)
		AddReceiverEntries(len(accepted))
	}

	resp := &collogspb.ExportLogsServiceResponse{}
	if failed := dropped + rejected; failed > 0 {
		resp.PartialSuccess = &collogspb.ExportLogsPartialSuccess{
			RejectedLogRecords: int64(failed),
			ErrorMessage:       "some log records were not accepted",
		}
	}
	respBytes, err := proto.Marshal(resp)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(http.StatusOK)
	w.Write(respBytes)
}

// Start starts the HTTP server.
func (r *HTTPReceiver) Start() error {
	lis, err := net.Listen("tcp", r.addr)
	if err != nil {
		return err
	}
	if r.maxConns > 0 {
		lis = netutil.LimitListener(lis, r.maxConns)
	}

	logging.Info("HTTP receiver started", logging.F(
		"addr", r.addr,
		"tls", r.tlsConfig != nil,
	))
	if r.tlsConfig != nil {
		// TLS certificate is already configured in the server's TLSConfig
		return r.server.ServeTLS(lis, "", "")
	}
	return r.server.Serve(lis)
}

// Stop gracefully stops the HTTP server.
func (r *HTTPReceiver) Stop(ctx context.Context) error {
	return r.server.Shutdown(ctx)
}

// HealthCheck returns nil if the receiver port is accepting connections.
func (r *HTTPReceiver) HealthCheck() error {
	conn, err := net.DialTimeout("tcp", r.addr, 1*time.Second)
	if err != nil {
		return fmt.Errorf("HTTP receiver not reachable on %s: %w", r.addr, err)
	}
	conn.Close()
	return nil
}
