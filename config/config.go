package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/logflux-io/logflux-go-sdk/client"
	"github.com/logflux-io/logflux-go-sdk/internal/auth"
	"github.com/logflux-io/logflux-go-sdk/internal/sourcetrack"
	"github.com/logflux-io/logflux-go-sdk/internal/tlsutil"
	"github.com/logflux-io/logflux-go-sdk/transport"
)

// version is set at build time via ldflags
var version = "dev"

// Version returns the build version string.
func Version() string { return version }

// Config holds the forwarder configuration.
type Config struct {
	// Agent connection settings
	AgentAddress        string // unix:///path, tcp://host:port, or bare socket path
	AgentSharedSecret   string
	AgentConnectTimeout time.Duration
	AgentSendTimeout    time.Duration
	AgentReadTimeout    time.Duration

	// Batching settings
	MaxBatchSize   int
	FlushInterval  time.Duration
	MaxMemoryBytes int64
	FlushOnExit    bool

	// Retry settings
	InitialRetryDelay      time.Duration
	MaxRetryDelay          time.Duration
	RetryBackoffMultiplier float64

	// Circuit breaker settings
	CircuitBreakerThreshold   int
	CircuitBreakerOpenTimeout time.Duration

	// Receiver settings
	GRPCListenAddr   string
	HTTPListenAddr   string
	HTTPReceiverPath string // Custom path for OTLP HTTP receiver (default: /v1/logs)
	DefaultSource    string // Source used when a resource carries no service.name

	// Receiver HTTP server settings
	ReceiverMaxRequestBodySize int64
	ReceiverReadTimeout        time.Duration
	ReceiverReadHeaderTimeout  time.Duration
	ReceiverWriteTimeout       time.Duration
	ReceiverIdleTimeout        time.Duration
	ReceiverKeepAlivesEnabled  bool
	ReceiverMaxConnections     int // 0 = unlimited

	// Receiver TLS settings
	ReceiverTLSEnabled    bool
	ReceiverTLSCertFile   string
	ReceiverTLSKeyFile    string
	ReceiverTLSCAFile     string
	ReceiverTLSClientAuth bool

	// Receiver Auth settings
	ReceiverAuthEnabled     bool
	ReceiverAuthBearerToken string

	// Stdin reader settings
	StdinEnabled bool
	StdinSource  string

	// Stats settings
	StatsAddr string

	// Cardinality tracking settings
	CardinalityMode          string // bloom (memory-efficient) or exact (100% accurate)
	CardinalityExpectedItems uint
	CardinalityFPRate        float64

	// Memory limit settings
	MemoryLimitRatio float64 // Ratio of container memory to use for GOMEMLIMIT (default: 0.9)

	// Telemetry settings (OTLP self-monitoring)
	TelemetryEndpoint        string
	TelemetryProtocol        string
	TelemetryInsecure        bool
	TelemetryPushInterval    time.Duration
	TelemetryShutdownTimeout time.Duration
	TelemetryHeaders         map[string]string

	// Runtime flags
	ConfigFile  string
	ShowHelp    bool
	ShowVersion bool
}

// DefaultConfig returns a Config with all defaults applied.
func DefaultConfig() *Config {
	return &Config{
		AgentAddress:        "", // resolved to the default unix socket by ParseAddress
		AgentConnectTimeout: transport.DefaultConnectTimeout,
		AgentSendTimeout:    transport.DefaultSendTimeout,
		AgentReadTimeout:    transport.DefaultReadTimeout,

		MaxBatchSize:   client.DefaultMaxBatchSize,
		FlushInterval:  client.DefaultFlushInterval,
		MaxMemoryBytes: client.DefaultMaxMemoryBytes,
		FlushOnExit:    true,

		InitialRetryDelay:      client.DefaultInitialRetryDelay,
		MaxRetryDelay:          client.DefaultMaxRetryDelay,
		RetryBackoffMultiplier: client.DefaultRetryBackoffMultiplier,

		CircuitBreakerThreshold:   client.DefaultCircuitFailures,
		CircuitBreakerOpenTimeout: client.DefaultCircuitOpenTimeout,

		GRPCListenAddr:   ":4317",
		HTTPListenAddr:   ":4318",
		HTTPReceiverPath: "/v1/logs",
		DefaultSource:    "logflux-forwarder",

		ReceiverReadHeaderTimeout: time.Minute,
		ReceiverWriteTimeout:      30 * time.Second,
		ReceiverIdleTimeout:       time.Minute,
		ReceiverKeepAlivesEnabled: true,

		StdinSource: "stdin",

		StatsAddr: ":9090",

		CardinalityMode:          "bloom",
		CardinalityExpectedItems: 100000,
		CardinalityFPRate:        0.01,

		MemoryLimitRatio: 0.9,

		TelemetryProtocol:        "grpc",
		TelemetryInsecure:        true,
		TelemetryPushInterval:    30 * time.Second,
		TelemetryShutdownTimeout: 5 * time.Second,
	}
}

// ParseFlags parses command-line flags, optionally overlaying a YAML
// config file. Flags explicitly set on the command line win over the
// file.
func ParseFlags() *Config {
	cfg := DefaultConfig()
	var configFile string

	flag.StringVar(&configFile, "config", "", "Path to YAML configuration file")

	// Agent flags
	flag.StringVar(&cfg.AgentAddress, "agent-address", cfg.AgentAddress, "Agent address: unix:///path, tcp://host:port, or bare socket path (default: local unix socket)")
	flag.StringVar(&cfg.AgentSharedSecret, "agent-shared-secret", "", "Shared secret for TCP agent authentication")
	flag.DurationVar(&cfg.AgentConnectTimeout, "agent-connect-timeout", cfg.AgentConnectTimeout, "Agent connection timeout")
	flag.DurationVar(&cfg.AgentSendTimeout, "agent-send-timeout", cfg.AgentSendTimeout, "Agent send timeout")
	flag.DurationVar(&cfg.AgentReadTimeout, "agent-read-timeout", cfg.AgentReadTimeout, "Agent response read timeout")

	// Batching flags
	flag.IntVar(&cfg.MaxBatchSize, "batch-size", cfg.MaxBatchSize, "Maximum entries per batch (1-100)")
	flag.DurationVar(&cfg.FlushInterval, "flush-interval", cfg.FlushInterval, "Buffer flush interval")
	flag.Int64Var(&cfg.MaxMemoryBytes, "max-memory", cfg.MaxMemoryBytes, "Pending buffer memory threshold in bytes")
	flag.BoolVar(&cfg.FlushOnExit, "flush-on-exit", cfg.FlushOnExit, "Flush pending entries on SIGINT/SIGTERM")

	// Retry flags
	flag.DurationVar(&cfg.InitialRetryDelay, "retry-initial-delay", cfg.InitialRetryDelay, "Initial retry delay after a delivery failure")
	flag.DurationVar(&cfg.MaxRetryDelay, "retry-max-delay", cfg.MaxRetryDelay, "Maximum retry backoff delay")
	flag.Float64Var(&cfg.RetryBackoffMultiplier, "retry-backoff-multiplier", cfg.RetryBackoffMultiplier, "Backoff multiplier applied per consecutive failure")

	// Circuit breaker flags
	flag.IntVar(&cfg.CircuitBreakerThreshold, "circuit-breaker-threshold", cfg.CircuitBreakerThreshold, "Consecutive failures before the circuit opens")
	flag.DurationVar(&cfg.CircuitBreakerOpenTimeout, "circuit-breaker-open-timeout", cfg.CircuitBreakerOpenTimeout, "Cooldown before the open circuit allows a probe")

	// Receiver flags
	flag.StringVar(&cfg.GRPCListenAddr, "grpc-listen", cfg.GRPCListenAddr, "gRPC receiver listen address")
	flag.StringVar(&cfg.HTTPListenAddr, "http-listen", cfg.HTTPListenAddr, "HTTP receiver listen address")
	flag.StringVar(&cfg.HTTPReceiverPath, "http-receiver-path", cfg.HTTPReceiverPath, "HTTP receiver path for OTLP logs")
	flag.StringVar(&cfg.DefaultSource, "default-source", cfg.DefaultSource, "Source for entries whose resource has no service.name")

	// Receiver HTTP server flags
	flag.Int64Var(&cfg.ReceiverMaxRequestBodySize, "receiver-max-request-body-size", 0, "Maximum request body size in bytes (0 = no limit)")
	flag.DurationVar(&cfg.ReceiverReadTimeout, "receiver-read-timeout", 0, "HTTP server read timeout (0 = no timeout)")
	flag.DurationVar(&cfg.ReceiverReadHeaderTimeout, "receiver-read-header-timeout", cfg.ReceiverReadHeaderTimeout, "HTTP server read header timeout")
	flag.DurationVar(&cfg.ReceiverWriteTimeout, "receiver-write-timeout", cfg.ReceiverWriteTimeout, "HTTP server write timeout")
	flag.DurationVar(&cfg.ReceiverIdleTimeout, "receiver-idle-timeout", cfg.ReceiverIdleTimeout, "HTTP server idle timeout")
	flag.BoolVar(&cfg.ReceiverKeepAlivesEnabled, "receiver-keep-alives-enabled", cfg.ReceiverKeepAlivesEnabled, "Enable HTTP keep-alives for receiver")
	flag.IntVar(&cfg.ReceiverMaxConnections, "receiver-max-connections", 0, "Maximum concurrent connections per receiver listener (0 = unlimited)")

	// Receiver TLS flags
	flag.BoolVar(&cfg.ReceiverTLSEnabled, "receiver-tls-enabled", false, "Enable TLS for receivers")
	flag.StringVar(&cfg.ReceiverTLSCertFile, "receiver-tls-cert", "", "Path to receiver TLS certificate file")
	flag.StringVar(&cfg.ReceiverTLSKeyFile, "receiver-tls-key", "", "Path to receiver TLS private key file")
	flag.StringVar(&cfg.ReceiverTLSCAFile, "receiver-tls-ca", "", "Path to CA certificate for client verification (mTLS)")
	flag.BoolVar(&cfg.ReceiverTLSClientAuth, "receiver-tls-client-auth", false, "Require client certificates (mTLS)")

	// Receiver auth flags
	flag.BoolVar(&cfg.ReceiverAuthEnabled, "receiver-auth-enabled", false, "Enable authentication for receivers")
	flag.StringVar(&cfg.ReceiverAuthBearerToken, "receiver-auth-bearer-token", "", "Bearer token for receiver authentication")

	// Stdin flags
	flag.BoolVar(&cfg.StdinEnabled, "stdin", false, "Read newline-delimited log lines from stdin")
	flag.StringVar(&cfg.StdinSource, "stdin-source", cfg.StdinSource, "Source name for stdin entries")

	// Stats flags
	flag.StringVar(&cfg.StatsAddr, "stats-addr", cfg.StatsAddr, "Stats/metrics HTTP endpoint address")

	// Cardinality flags
	flag.StringVar(&cfg.CardinalityMode, "cardinality-mode", cfg.CardinalityMode, "Cardinality tracking mode: bloom (memory-efficient) or exact (100% accurate)")
	flag.UintVar(&cfg.CardinalityExpectedItems, "cardinality-expected-items", cfg.CardinalityExpectedItems, "Expected unique items per tracker for Bloom filter sizing")
	flag.Float64Var(&cfg.CardinalityFPRate, "cardinality-fp-rate", cfg.CardinalityFPRate, "Bloom filter false positive rate (0.01 = 1%)")

	// Memory flags
	flag.Float64Var(&cfg.MemoryLimitRatio, "memory-limit-ratio", cfg.MemoryLimitRatio, "Ratio of container memory for GOMEMLIMIT (0.0-1.0)")

	// Telemetry flags
	flag.StringVar(&cfg.TelemetryEndpoint, "telemetry-endpoint", "", "OTLP endpoint for self-monitoring telemetry (empty = disabled)")
	flag.StringVar(&cfg.TelemetryProtocol, "telemetry-protocol", cfg.TelemetryProtocol, "Telemetry protocol: grpc or http")
	flag.BoolVar(&cfg.TelemetryInsecure, "telemetry-insecure", cfg.TelemetryInsecure, "Use insecure connection for telemetry export")
	flag.DurationVar(&cfg.TelemetryPushInterval, "telemetry-push-interval", cfg.TelemetryPushInterval, "Telemetry metric push interval")

	// Help and version
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help message")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version (shorthand)")

	flag.Usage = PrintUsage

	flag.Parse()

	// Load YAML config if specified
	if configFile != "" {
		yamlCfg, err := LoadYAML(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config file %s: %v\n", configFile, err)
			os.Exit(1)
		}
		cfg = yamlCfg.ToConfig()
		cfg.ConfigFile = configFile
	}

	// Apply CLI overrides for explicitly set flags
	applyFlagOverrides(cfg)

	return cfg
}

// applyFlagOverrides applies CLI flag values that were explicitly set,
// so command-line arguments win over the YAML file.
func applyFlagOverrides(cfg *Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "agent-address":
			cfg.AgentAddress = f.Value.String()
		case "agent-shared-secret":
			cfg.AgentSharedSecret = f.Value.String()
		case "agent-connect-timeout":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.AgentConnectTimeout = d
			}
		case "agent-send-timeout":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.AgentSendTimeout = d
			}
		case "agent-read-timeout":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.AgentReadTimeout = d
			}
		case "batch-size":
			if v, ok := f.Value.(flag.Getter); ok {
				if i, ok := v.Get().(int); ok {
					cfg.MaxBatchSize = i
				}
			}
		case "flush-interval":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.FlushInterval = d
			}
		case "max-memory":
			if v, ok := f.Value.(flag.Getter); ok {
				if i, ok := v.Get().(int64); ok {
					cfg.MaxMemoryBytes = i
				}
			}
		case "flush-on-exit":
			cfg.FlushOnExit = f.Value.String() == "true"
		case "retry-initial-delay":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.InitialRetryDelay = d
			}
		case "retry-max-delay":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.MaxRetryDelay = d
			}
		case "retry-backoff-multiplier":
			if v, ok := f.Value.(flag.Getter); ok {
				if x, ok := v.Get().(float64); ok {
					cfg.RetryBackoffMultiplier = x
				}
			}
		case "circuit-breaker-threshold":
			if v, ok := f.Value.(flag.Getter); ok {
				if i, ok := v.Get().(int); ok {
					cfg.CircuitBreakerThreshold = i
				}
			}
		case "circuit-breaker-open-timeout":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.CircuitBreakerOpenTimeout = d
			}
		case "grpc-listen":
			cfg.GRPCListenAddr = f.Value.String()
		case "http-listen":
			cfg.HTTPListenAddr = f.Value.String()
		case "http-receiver-path":
			cfg.HTTPReceiverPath = f.Value.String()
		case "default-source":
			cfg.DefaultSource = f.Value.String()
		case "receiver-max-request-body-size":
			if v, ok := f.Value.(flag.Getter); ok {
				if i, ok := v.Get().(int64); ok {
					cfg.ReceiverMaxRequestBodySize = i
				}
			}
		case "receiver-read-timeout":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.ReceiverReadTimeout = d
			}
		case "receiver-read-header-timeout":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.ReceiverReadHeaderTimeout = d
			}
		case "receiver-write-timeout":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.ReceiverWriteTimeout = d
			}
		case "receiver-idle-timeout":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.ReceiverIdleTimeout = d
			}
		case "receiver-keep-alives-enabled":
			cfg.ReceiverKeepAlivesEnabled = f.Value.String() == "true"
		case "receiver-tls-enabled":
			cfg.ReceiverTLSEnabled = f.Value.String() == "true"
		case "receiver-tls-cert":
			cfg.ReceiverTLSCertFile = f.Value.String()
		case "receiver-tls-key":
			cfg.ReceiverTLSKeyFile = f.Value.String()
		case "receiver-tls-ca":
			cfg.ReceiverTLSCAFile = f.Value.String()
		case "receiver-tls-client-auth":
			cfg.ReceiverTLSClientAuth = f.Value.String() == "true"
		case "receiver-auth-enabled":
			cfg.ReceiverAuthEnabled = f.Value.String() == "true"
		case "receiver-auth-bearer-token":
			cfg.ReceiverAuthBearerToken = f.Value.String()
		case "stdin":
			cfg.StdinEnabled = f.Value.String() == "true"
		case "stdin-source":
			cfg.StdinSource = f.Value.String()
		case "stats-addr":
			cfg.StatsAddr = f.Value.String()
		case "cardinality-mode":
			cfg.CardinalityMode = f.Value.String()
		case "cardinality-expected-items":
			if v, ok := f.Value.(flag.Getter); ok {
				if u, ok := v.Get().(uint); ok {
					cfg.CardinalityExpectedItems = u
				}
			}
		case "cardinality-fp-rate":
			if v, ok := f.Value.(flag.Getter); ok {
				if x, ok := v.Get().(float64); ok {
					cfg.CardinalityFPRate = x
				}
			}
		case "memory-limit-ratio":
			if v, ok := f.Value.(flag.Getter); ok {
				if x, ok := v.Get().(float64); ok {
					cfg.MemoryLimitRatio = x
				}
			}
		case "telemetry-endpoint":
			cfg.TelemetryEndpoint = f.Value.String()
		case "telemetry-protocol":
			cfg.TelemetryProtocol = f.Value.String()
		case "telemetry-insecure":
			cfg.TelemetryInsecure = f.Value.String() == "true"
		case "telemetry-push-interval":
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.TelemetryPushInterval = d
			}
		}
	})
}

// Validate checks the configuration for errors. All problems are
// reported at once.
func (c *Config) Validate() error {
	var errs []string

	if _, _, err := ParseAddress(c.AgentAddress); err != nil {
		errs = append(errs, fmt.Sprintf("agent-address is invalid: %v", err))
	}
	if network, _, err := ParseAddress(c.AgentAddress); err == nil && network == "tcp" && c.AgentSharedSecret == "" {
		errs = append(errs, "agent-shared-secret must be set for tcp agent addresses")
	}
	if c.AgentConnectTimeout < 0 {
		errs = append(errs, fmt.Sprintf("agent-connect-timeout must not be negative, got %v", c.AgentConnectTimeout))
	}
	if c.AgentSendTimeout < 0 {
		errs = append(errs, fmt.Sprintf("agent-send-timeout must not be negative, got %v", c.AgentSendTimeout))
	}
	if c.AgentReadTimeout < 0 {
		errs = append(errs, fmt.Sprintf("agent-read-timeout must not be negative, got %v", c.AgentReadTimeout))
	}

	if c.MaxBatchSize < 1 || c.MaxBatchSize > 100 {
		errs = append(errs, fmt.Sprintf("batch-size must be between 1 and 100, got %d", c.MaxBatchSize))
	}
	if c.FlushInterval <= 0 {
		errs = append(errs, fmt.Sprintf("flush-interval must be positive, got %v", c.FlushInterval))
	}
	if c.MaxMemoryBytes <= 0 {
		errs = append(errs, fmt.Sprintf("max-memory must be positive, got %d", c.MaxMemoryBytes))
	}
	if c.InitialRetryDelay <= 0 {
		errs = append(errs, fmt.Sprintf("retry-initial-delay must be positive, got %v", c.InitialRetryDelay))
	}
	if c.MaxRetryDelay < c.InitialRetryDelay {
		errs = append(errs, fmt.Sprintf("retry-max-delay must be at least retry-initial-delay, got %v < %v", c.MaxRetryDelay, c.InitialRetryDelay))
	}
	if c.RetryBackoffMultiplier <= 1 {
		errs = append(errs, fmt.Sprintf("retry-backoff-multiplier must be greater than 1, got %g", c.RetryBackoffMultiplier))
	}
	if c.CircuitBreakerThreshold < 1 {
		errs = append(errs, fmt.Sprintf("circuit-breaker-threshold must be at least 1, got %d", c.CircuitBreakerThreshold))
	}
	if c.CircuitBreakerOpenTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("circuit-breaker-open-timeout must be positive, got %v", c.CircuitBreakerOpenTimeout))
	}

	if c.GRPCListenAddr == "" && c.HTTPListenAddr == "" && !c.StdinEnabled {
		errs = append(errs, "receivers are all disabled: set grpc-listen, http-listen, or stdin")
	}
	if !strings.HasPrefix(c.HTTPReceiverPath, "/") {
		errs = append(errs, fmt.Sprintf("http-receiver-path must start with /, got %q", c.HTTPReceiverPath))
	}

	if c.ReceiverTLSEnabled {
		if c.ReceiverTLSCertFile == "" {
			errs = append(errs, "receiver-tls-cert is required when receiver-tls-enabled is set")
		}
		if c.ReceiverTLSKeyFile == "" {
			errs = append(errs, "receiver-tls-key is required when receiver-tls-enabled is set")
		}
		if c.ReceiverTLSClientAuth && c.ReceiverTLSCAFile == "" {
			errs = append(errs, "receiver-tls-ca is required when receiver-tls-client-auth is set")
		}
	}
	if c.ReceiverAuthEnabled && c.ReceiverAuthBearerToken == "" {
		errs = append(errs, "receiver-auth-bearer-token is required when receiver-auth-enabled is set")
	}

	switch c.CardinalityMode {
	case "bloom", "exact":
	default:
		errs = append(errs, fmt.Sprintf("cardinality-mode must be bloom or exact, got %q", c.CardinalityMode))
	}
	if c.CardinalityFPRate <= 0 || c.CardinalityFPRate >= 1 {
		errs = append(errs, fmt.Sprintf("cardinality-fp-rate must be between 0 and 1 exclusive, got %g", c.CardinalityFPRate))
	}

	if c.MemoryLimitRatio <= 0 || c.MemoryLimitRatio > 1 {
		errs = append(errs, fmt.Sprintf("memory-limit-ratio must be between 0.0 and 1.0, got %g", c.MemoryLimitRatio))
	}

	switch c.TelemetryProtocol {
	case "grpc", "http":
	default:
		errs = append(errs, fmt.Sprintf("telemetry-protocol must be grpc or http, got %q", c.TelemetryProtocol))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ClientBatchConfig projects the forwarder configuration onto the SDK's
// delivery engine settings.
func (c *Config) ClientBatchConfig() client.BatchConfig {
	return client.BatchConfig{
		MaxBatchSize:                   c.MaxBatchSize,
		FlushInterval:                  c.FlushInterval,
		MaxMemoryBytes:                 int(c.MaxMemoryBytes),
		FlushOnExit:                    false, // the forwarder owns its own shutdown
		InitialRetryDelay:              c.InitialRetryDelay,
		MaxRetryDelay:                  c.MaxRetryDelay,
		RetryBackoffMultiplier:         c.RetryBackoffMultiplier,
		CircuitBreakerFailureThreshold: c.CircuitBreakerThreshold,
		CircuitBreakerOpenTimeout:      c.CircuitBreakerOpenTimeout,
	}
}

// AgentTransportConfig resolves the agent address into transport
// settings.
func (c *Config) AgentTransportConfig() (transport.Config, error) {
	network, address, err := ParseAddress(c.AgentAddress)
	if err != nil {
		return transport.Config{}, err
	}
	return transport.Config{
		Network:        network,
		Address:        address,
		SharedSecret:   c.AgentSharedSecret,
		ConnectTimeout: c.AgentConnectTimeout,
		SendTimeout:    c.AgentSendTimeout,
		ReadTimeout:    c.AgentReadTimeout,
	}, nil
}

// ReceiverAuthConfig returns the receiver authentication configuration.
func (c *Config) ReceiverAuthConfig() auth.ServerConfig {
	return auth.ServerConfig{
		Enabled:     c.ReceiverAuthEnabled,
		BearerToken: c.ReceiverAuthBearerToken,
	}
}

// ReceiverTLSConfig returns the receiver TLS configuration.
func (c *Config) ReceiverTLSConfig() tlsutil.ServerConfig {
	return tlsutil.ServerConfig{
		Enabled:    c.ReceiverTLSEnabled,
		CertFile:   c.ReceiverTLSCertFile,
		KeyFile:    c.ReceiverTLSKeyFile,
		CAFile:     c.ReceiverTLSCAFile,
		ClientAuth: c.ReceiverTLSClientAuth,
	}
}

// SourceTrackerConfig returns the unique-source tracker configuration.
func (c *Config) SourceTrackerConfig() sourcetrack.Config {
	return sourcetrack.Config{
		Mode:              sourcetrack.ParseMode(c.CardinalityMode),
		ExpectedSources:   c.CardinalityExpectedItems,
		FalsePositiveRate: c.CardinalityFPRate,
	}
}

// PrintVersion prints the build version.
func PrintVersion() {
	fmt.Printf("logflux-forwarder version %s\n", version)
}

// PrintUsage prints a grouped usage message.
func PrintUsage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "logflux-forwarder %s - OTLP log forwarder for the LogFlux agent\n\n", version)
	fmt.Fprintf(out, "Usage: logflux-forwarder [flags]\n\n")
	fmt.Fprintf(out, "Flags:\n")
	flag.PrintDefaults()
	fmt.Fprintf(out, "\nExamples:\n")
	fmt.Fprintf(out, "  # Forward OTLP logs to the local agent socket\n")
	fmt.Fprintf(out, "  logflux-forwarder\n\n")
	fmt.Fprintf(out, "  # Forward to a remote agent over TCP\n")
	fmt.Fprintf(out, "  logflux-forwarder -agent-address tcp://agent:4446 -agent-shared-secret $SECRET\n\n")
	fmt.Fprintf(out, "  # Pipe a log stream from stdin\n")
	fmt.Fprintf(out, "  tail -F /var/log/app.log | logflux-forwarder -stdin -stdin-source app\n\n")
	fmt.Fprintf(out, "  # Load settings from a YAML file\n")
	fmt.Fprintf(out, "  logflux-forwarder -config forwarder.yaml\n")
}
