package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLConfig is the YAML configuration file structure.
type YAMLConfig struct {
	Agent     AgentYAMLConfig     `yaml:"agent"`
	Batch     BatchYAMLConfig     `yaml:"batch"`
	Receiver  ReceiverYAMLConfig  `yaml:"receiver"`
	Stdin     StdinYAMLConfig     `yaml:"stdin"`
	Stats     StatsYAMLConfig     `yaml:"stats"`
	Memory    MemoryYAMLConfig    `yaml:"memory"`
	Telemetry TelemetryYAMLConfig `yaml:"telemetry"`
}

// AgentYAMLConfig holds the upstream agent connection settings.
type AgentYAMLConfig struct {
	// Address accepts unix:///path, tcp://host:port, or a bare socket path.
	Address        string   `yaml:"address"`
	SharedSecret   string   `yaml:"shared_secret"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
	SendTimeout    Duration `yaml:"send_timeout"`
	ReadTimeout    Duration `yaml:"read_timeout"`
}

// BatchYAMLConfig holds batching and delivery settings.
type BatchYAMLConfig struct {
	MaxSize        int                      `yaml:"max_size"`
	FlushInterval  Duration                 `yaml:"flush_interval"`
	MaxMemory      ByteSize                 `yaml:"max_memory"`
	FlushOnExit    *bool                    `yaml:"flush_on_exit"`
	Retry          RetryYAMLConfig          `yaml:"retry"`
	CircuitBreaker CircuitBreakerYAMLConfig `yaml:"circuit_breaker"`
}

// RetryYAMLConfig holds exponential backoff settings.
type RetryYAMLConfig struct {
	InitialDelay Duration `yaml:"initial_delay"`
	MaxDelay     Duration `yaml:"max_delay"`
	Multiplier   float64  `yaml:"multiplier"`
}

// CircuitBreakerYAMLConfig holds circuit breaker settings.
type CircuitBreakerYAMLConfig struct {
	FailureThreshold int      `yaml:"failure_threshold"`
	OpenTimeout      Duration `yaml:"open_timeout"`
}

// ReceiverYAMLConfig holds the OTLP log receiver settings.
type ReceiverYAMLConfig struct {
	GRPC           GRPCReceiverYAMLConfig `yaml:"grpc"`
	HTTP           HTTPReceiverYAMLConfig `yaml:"http"`
	TLS            TLSServerYAMLConfig    `yaml:"tls"`
	Auth           AuthServerYAMLConfig   `yaml:"auth"`
	DefaultSource  string                 `yaml:"default_source"`
	MaxConnections int                    `yaml:"max_connections"`
}

// GRPCReceiverYAMLConfig holds gRPC receiver settings.
type GRPCReceiverYAMLConfig struct {
	Address string `yaml:"address"`
}

// HTTPReceiverYAMLConfig holds HTTP receiver settings.
type HTTPReceiverYAMLConfig struct {
	Address string               `yaml:"address"`
	Path    string               `yaml:"path"`
	Server  HTTPServerYAMLConfig `yaml:"server"`
}

// HTTPServerYAMLConfig holds HTTP server timeout settings.
type HTTPServerYAMLConfig struct {
	MaxRequestBodySize ByteSize `yaml:"max_request_body_size"`
	ReadTimeout        Duration `yaml:"read_timeout"`
	ReadHeaderTimeout  Duration `yaml:"read_header_timeout"`
	WriteTimeout       Duration `yaml:"write_timeout"`
	IdleTimeout        Duration `yaml:"idle_timeout"`
	KeepAlivesEnabled  *bool    `yaml:"keep_alives_enabled"`
}

// TLSServerYAMLConfig holds TLS server configuration.
type TLSServerYAMLConfig struct {
	Enabled    bool   `yaml:"enabled"`
	CertFile   string `yaml:"cert_file"`
	KeyFile    string `yaml:"key_file"`
	CAFile     string `yaml:"ca_file"`
	ClientAuth bool   `yaml:"client_auth"`
}

// AuthServerYAMLConfig holds receiver authentication configuration.
type AuthServerYAMLConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BearerToken string `yaml:"bearer_token"`
}

// StdinYAMLConfig holds the stdin line reader settings.
type StdinYAMLConfig struct {
	Enabled bool   `yaml:"enabled"`
	Source  string `yaml:"source"`
}

// StatsYAMLConfig holds the stats endpoint settings.
type StatsYAMLConfig struct {
	Address     string                `yaml:"address"`
	Cardinality CardinalityYAMLConfig `yaml:"cardinality"`
}

// CardinalityYAMLConfig holds per-source cardinality tracking settings.
type CardinalityYAMLConfig struct {
	Mode          string  `yaml:"mode"` // bloom or exact
	ExpectedItems uint    `yaml:"expected_items"`
	FPRate        float64 `yaml:"fp_rate"`
}

// MemoryYAMLConfig holds memory limit configuration.
type MemoryYAMLConfig struct {
	// LimitRatio is the ratio of container memory to use for GOMEMLIMIT (0.0-1.0)
	LimitRatio float64 `yaml:"limit_ratio"`
}

// TelemetryYAMLConfig holds OTLP self-monitoring telemetry configuration.
type TelemetryYAMLConfig struct {
	Endpoint        string            `yaml:"endpoint"` // OTLP endpoint (empty = disabled)
	Protocol        string            `yaml:"protocol"` // "grpc" or "http" (default: "grpc")
	Insecure        *bool             `yaml:"insecure"`
	PushInterval    Duration          `yaml:"push_interval"`
	ShutdownTimeout Duration          `yaml:"shutdown_timeout"`
	Headers         map[string]string `yaml:"headers"`
}

// Duration is a wrapper for time.Duration that supports YAML unmarshaling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	duration, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// ByteSize is a wrapper for int64 that supports human-readable YAML values.
// Accepted formats: raw integer (bytes), or suffixed: Ki, Mi, Gi, Ti.
type ByteSize int64

// UnmarshalYAML implements yaml.Unmarshaler for ByteSize.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	// Try integer first
	var n int64
	if err := value.Decode(&n); err == nil {
		*b = ByteSize(n)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*b = 0
		return nil
	}
	parsed, err := ParseByteSize(s)
	if err != nil {
		return err
	}
	*b = ByteSize(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for ByteSize.
func (b ByteSize) MarshalYAML() (interface{}, error) {
	return FormatByteSize(int64(b)), nil
}

// ParseByteSize parses a human-readable byte size string.
// Accepted suffixes: Ki (1024), Mi (1048576), Gi (1073741824), Ti (1099511627776).
// Plain integers are treated as bytes.
func ParseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	type suffix struct {
		name string
		mult int64
	}
	suffixes := []suffix{
		{"Ti", 1099511627776},
		{"Gi", 1073741824},
		{"Mi", 1048576},
		{"Ki", 1024},
	}
	for _, sf := range suffixes {
		if strings.HasSuffix(s, sf.name) {
			numStr := strings.TrimSpace(strings.TrimSuffix(s, sf.name))
			// Support float values like "1.5Gi"
			var f float64
			if _, err := fmt.Sscanf(numStr, "%f", &f); err != nil {
				return 0, fmt.Errorf("invalid byte size: %q", s)
			}
			return int64(f * float64(sf.mult)), nil
		}
	}
	// Plain integer, rejecting non-numeric trailing characters (e.g. "256MB")
	var n int64
	var trail string
	if _, err := fmt.Sscanf(s, "%d%s", &n, &trail); err == nil && trail != "" {
		return 0, fmt.Errorf("invalid byte size: %q (use Ki, Mi, Gi, or Ti suffixes)", s)
	}
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}
	return n, nil
}

// FormatByteSize formats bytes as a human-readable string with binary suffix.
func FormatByteSize(b int64) string {
	if b >= 1099511627776 && b%1099511627776 == 0 {
		return fmt.Sprintf("%dTi", b/1099511627776)
	}
	if b >= 1073741824 && b%1073741824 == 0 {
		return fmt.Sprintf("%dGi", b/1073741824)
	}
	if b >= 1048576 && b%1048576 == 0 {
		return fmt.Sprintf("%dMi", b/1048576)
	}
	if b >= 1024 && b%1024 == 0 {
		return fmt.Sprintf("%dKi", b/1024)
	}
	return fmt.Sprintf("%d", b)
}

// LoadYAML loads configuration from a YAML file.
func LoadYAML(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data)
}

// ParseYAML parses YAML configuration from bytes.
func ParseYAML(data []byte) (*YAMLConfig, error) {
	cfg := &YAMLConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToConfig converts the YAML structure into a Config, starting from
// defaults so fields absent in the file keep their default values.
func (y *YAMLConfig) ToConfig() *Config {
	cfg := DefaultConfig()

	if y.Agent.Address != "" {
		cfg.AgentAddress = y.Agent.Address
	}
	if y.Agent.SharedSecret != "" {
		cfg.AgentSharedSecret = y.Agent.SharedSecret
	}
	if y.Agent.ConnectTimeout != 0 {
		cfg.AgentConnectTimeout = time.Duration(y.Agent.ConnectTimeout)
	}
	if y.Agent.SendTimeout != 0 {
		cfg.AgentSendTimeout = time.Duration(y.Agent.SendTimeout)
	}
	if y.Agent.ReadTimeout != 0 {
		cfg.AgentReadTimeout = time.Duration(y.Agent.ReadTimeout)
	}

	if y.Batch.MaxSize != 0 {
		cfg.MaxBatchSize = y.Batch.MaxSize
	}
	if y.Batch.FlushInterval != 0 {
		cfg.FlushInterval = time.Duration(y.Batch.FlushInterval)
	}
	if y.Batch.MaxMemory != 0 {
		cfg.MaxMemoryBytes = int64(y.Batch.MaxMemory)
	}
	if y.Batch.FlushOnExit != nil {
		cfg.FlushOnExit = *y.Batch.FlushOnExit
	}
	if y.Batch.Retry.InitialDelay != 0 {
		cfg.InitialRetryDelay = time.Duration(y.Batch.Retry.InitialDelay)
	}
	if y.Batch.Retry.MaxDelay != 0 {
		cfg.MaxRetryDelay = time.Duration(y.Batch.Retry.MaxDelay)
	}
	if y.Batch.Retry.Multiplier != 0 {
		cfg.RetryBackoffMultiplier = y.Batch.Retry.Multiplier
	}
	if y.Batch.CircuitBreaker.FailureThreshold != 0 {
		cfg.CircuitBreakerThreshold = y.Batch.CircuitBreaker.FailureThreshold
	}
	if y.Batch.CircuitBreaker.OpenTimeout != 0 {
		cfg.CircuitBreakerOpenTimeout = time.Duration(y.Batch.CircuitBreaker.OpenTimeout)
	}

	if y.Receiver.GRPC.Address != "" {
		cfg.GRPCListenAddr = y.Receiver.GRPC.Address
	}
	if y.Receiver.HTTP.Address != "" {
		cfg.HTTPListenAddr = y.Receiver.HTTP.Address
	}
	if y.Receiver.HTTP.Path != "" {
		cfg.HTTPReceiverPath = y.Receiver.HTTP.Path
	}
	if y.Receiver.HTTP.Server.MaxRequestBodySize != 0 {
		cfg.ReceiverMaxRequestBodySize = int64(y.Receiver.HTTP.Server.MaxRequestBodySize)
	}
	if y.Receiver.HTTP.Server.ReadTimeout != 0 {
		cfg.ReceiverReadTimeout = time.Duration(y.Receiver.HTTP.Server.ReadTimeout)
	}
	if y.Receiver.HTTP.Server.ReadHeaderTimeout != 0 {
		cfg.ReceiverReadHeaderTimeout = time.Duration(y.Receiver.HTTP.Server.ReadHeaderTimeout)
	}
	if y.Receiver.HTTP.Server.WriteTimeout != 0 {
		cfg.ReceiverWriteTimeout = time.Duration(y.Receiver.HTTP.Server.WriteTimeout)
	}
	if y.Receiver.HTTP.Server.IdleTimeout != 0 {
		cfg.ReceiverIdleTimeout = time.Duration(y.Receiver.HTTP.Server.IdleTimeout)
	}
	if y.Receiver.HTTP.Server.KeepAlivesEnabled != nil {
		cfg.ReceiverKeepAlivesEnabled = *y.Receiver.HTTP.Server.KeepAlivesEnabled
	}
	cfg.ReceiverTLSEnabled = y.Receiver.TLS.Enabled
	if y.Receiver.TLS.CertFile != "" {
		cfg.ReceiverTLSCertFile = y.Receiver.TLS.CertFile
	}
	if y.Receiver.TLS.KeyFile != "" {
		cfg.ReceiverTLSKeyFile = y.Receiver.TLS.KeyFile
	}
	if y.Receiver.TLS.CAFile != "" {
		cfg.ReceiverTLSCAFile = y.Receiver.TLS.CAFile
	}
	cfg.ReceiverTLSClientAuth = y.Receiver.TLS.ClientAuth
	cfg.ReceiverAuthEnabled = y.Receiver.Auth.Enabled
	if y.Receiver.Auth.BearerToken != "" {
		cfg.ReceiverAuthBearerToken = y.Receiver.Auth.BearerToken
	}
	if y.Receiver.DefaultSource != "" {
		cfg.DefaultSource = y.Receiver.DefaultSource
	}
	if y.Receiver.MaxConnections != 0 {
		cfg.ReceiverMaxConnections = y.Receiver.MaxConnections
	}

	cfg.StdinEnabled = y.Stdin.Enabled
	if y.Stdin.Source != "" {
		cfg.StdinSource = y.Stdin.Source
	}

	if y.Stats.Address != "" {
		cfg.StatsAddr = y.Stats.Address
	}
	if y.Stats.Cardinality.Mode != "" {
		cfg.CardinalityMode = y.Stats.Cardinality.Mode
	}
	if y.Stats.Cardinality.ExpectedItems != 0 {
		cfg.CardinalityExpectedItems = y.Stats.Cardinality.ExpectedItems
	}
	if y.Stats.Cardinality.FPRate != 0 {
		cfg.CardinalityFPRate = y.Stats.Cardinality.FPRate
	}

	if y.Memory.LimitRatio != 0 {
		cfg.MemoryLimitRatio = y.Memory.LimitRatio
	}

	if y.Telemetry.Endpoint != "" {
		cfg.TelemetryEndpoint = y.Telemetry.Endpoint
	}
	if y.Telemetry.Protocol != "" {
		cfg.TelemetryProtocol = y.Telemetry.Protocol
	}
	if y.Telemetry.Insecure != nil {
		cfg.TelemetryInsecure = *y.Telemetry.Insecure
	}
	if y.Telemetry.PushInterval != 0 {
		cfg.TelemetryPushInterval = time.Duration(y.Telemetry.PushInterval)
	}
	if y.Telemetry.ShutdownTimeout != 0 {
		cfg.TelemetryShutdownTimeout = time.Duration(y.Telemetry.ShutdownTimeout)
	}
	if len(y.Telemetry.Headers) > 0 {
		cfg.TelemetryHeaders = y.Telemetry.Headers
	}

	return cfg
}
