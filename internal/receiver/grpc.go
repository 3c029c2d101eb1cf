package receiver

import (
	"context"
	"io"
	"net"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/logflux-io/logflux-go-sdk/internal/auth"
	"github.com/logflux-io/logflux-go-sdk/logging"
	"github.com/logflux-io/logflux-go-sdk/internal/stats"
	"github.com/logflux-io/logflux-go-sdk/internal/tlsutil"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/encoding"
	_ "google.golang.org/grpc/encoding/gzip" // Register gzip compressor
)

func init() {
	// Register zstd compressor for gRPC
	encoding.RegisterCompressor(&zstdCompressor{})
}

// zstdCompressor implements grpc encoding.Compressor for zstd.
type zstdCompressor struct{}

func (c *zstdCompressor) Name() string {
	return "zstd"
}

func (c *zstdCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	enc := zstdWriterPool.Get().(*zstd.Encoder)
	enc.Reset(w)
	return &pooledZstdWriter{Encoder: enc}, nil
}

func (c *zstdCompressor) Decompress(r io.Reader) (io.Reader, error) {
	dec := zstdReaderPool.Get().(*zstd.Decoder)
	if err := dec.Reset(r); err != nil {
		return nil, err
	}
	return &pooledZstdReader{Decoder: dec}, nil
}

// zstd encoder/decoder pools for performance
var zstdWriterPool = &sync.Pool{
	New: func() interface{} {
		w, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		return w
	},
}

var zstdReaderPool = &sync.Pool{
	New: func() interface{} {
		r, _ := zstd.NewReader(nil)
		return r
	},
}

type pooledZstdWriter struct {
	*zstd.Encoder
}

func (p *pooledZstdWriter) Close() error {
	err := p.Encoder.Close()
	p.Encoder.Reset(nil)
	zstdWriterPool.Put(p.Encoder)
	return err
}

type pooledZstdReader struct {
	*zstd.Decoder
}

func (p *pooledZstdReader) Read(b []byte) (int, error) {
	n, err := p.Decoder.Read(b)
	if err == io.EOF {
		_ = p.Decoder.Reset(nil)
		zstdReaderPool.Put(p.Decoder)
	}
	return n, err
}

// GRPCConfig holds the gRPC receiver configuration.
type GRPCConfig struct {
	// Addr is the listen address.
	Addr string
	// DefaultSource is used for resources without a service.name.
	DefaultSource string
	// TLS configuration for secure connections.
	TLS tlsutil.ServerConfig
	// Auth configuration for authentication.
	Auth auth.ServerConfig
	// MaxConnections caps concurrent connections. Zero means unlimited.
	MaxConnections int
}

// GRPCReceiver receives log records via OTLP gRPC.
type GRPCReceiver struct {
	collogspb.UnimplementedLogsServiceServer
	server        *grpc.Server
	sink          Sink
	stats         *stats.Collector
	defaultSource string
	addr          string
	maxConns      int
}

// NewGRPC creates a gRPC receiver with default configuration.
func NewGRPC(addr string, sink Sink, collector *stats.Collector) *GRPCReceiver {
	return NewGRPCWithConfig(GRPCConfig{Addr: addr}, sink, collector)
}

// NewGRPCWithConfig creates a gRPC receiver with the given configuration.
func NewGRPCWithConfig(cfg GRPCConfig, sink Sink, collector *stats.Collector) *GRPCReceiver {
	var opts []grpc.ServerOption

	// Configure max message size (64MB to handle large batches)
	maxMsgSize := 64 * 1024 * 1024 // 64MB
	opts = append(opts,
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.MaxSendMsgSize(maxMsgSize),
	)

	// Configure TLS
	if cfg.TLS.Enabled {
		tlsConfig, err := tlsutil.NewServerConfig(cfg.TLS)
		if err != nil {
			logging.Error("failed to create TLS config", logging.F("error", err.Error()))
		} else {
			opts = append(opts, grpc.Creds(credentials.NewTLS(tlsConfig)))
		}
	}

	// Configure authentication
	if cfg.Auth.Enabled {
		opts = append(opts, grpc.UnaryInterceptor(auth.GRPCServerInterceptor(cfg.Auth)))
	}

	return &GRPCReceiver{
		server:        grpc.NewServer(opts...),
		sink:          sink,
		stats:         collector,
		defaultSource: cfg.DefaultSource,
		addr:          cfg.Addr,
		maxConns:      cfg.MaxConnections,
	}
}

// Export implements the OTLP LogsService Export method. Records that
// cannot be forwarded are reported through the OTLP partial success
// block rather than a transport error, so producers do not resend them.
func (r *GRPCReceiver) Export(ctx context.Context, req *collogspb.ExportLogsServiceRequest) (*collogspb.ExportLogsServiceResponse, error) {
	IncrementReceiverRequests("grpc")

	entries, dropped := entriesFromRequest(req, r.defaultSource)
	if dropped > 0 {
		r.stats.RecordRejected("grpc", "empty_body", dropped)
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
		r.stats.RecordRejected("grpc", "sink", rejected)
	}
	if len(accepted) > 0 {
		r.stats.Process("grpc", accepted)
		AddReceiverEntries(len(accepted))
	}

	resp := &collogspb.ExportLogsServiceResponse{}
	if failed := dropped + rejected; failed > 0 {
		resp.PartialSuccess = &collogspb.ExportLogsPartialSuccess{
			RejectedLogRecords: int64(failed),
			ErrorMessage:       "some log records were not accepted",
		}
	}
	return resp, nil
}

// Start starts the gRPC server.
func (r *GRPCReceiver) Start() error {
	lis, err := net.Listen("tcp", r.addr)
	if err != nil {
		return err
	}
	if r.maxConns > 0 {
		lis = netutil.LimitListener(lis, r.maxConns)
	}

	collogspb.RegisterLogsServiceServer(r.server, r)

	logging.Info("gRPC receiver started", logging.F("addr", r.addr))
	return r.server.Serve(lis)
}

// Stop gracefully stops the gRPC server.
func (r *GRPCReceiver) Stop() {
	r.server.GracefulStop()
}
