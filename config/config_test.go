package config

import (
	"strings"
	"testing"
	"time"

	"github.com/logflux-io/logflux-go-sdk/internal/sourcetrack"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestValidateCatchesErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"batch size too large", func(c *Config) { c.MaxBatchSize = 500 }, "batch-size"},
		{"batch size zero", func(c *Config) { c.MaxBatchSize = 0 }, "batch-size"},
		{"flush interval zero", func(c *Config) { c.FlushInterval = 0 }, "flush-interval"},
		{"max memory zero", func(c *Config) { c.MaxMemoryBytes = 0 }, "max-memory"},
		{"initial delay zero", func(c *Config) { c.InitialRetryDelay = 0 }, "retry-initial-delay"},
		{"delay inversion", func(c *Config) {
			c.InitialRetryDelay = 10 * time.Second
			c.MaxRetryDelay = time.Second
		}, "retry-max-delay"},
		{"multiplier not greater than 1", func(c *Config) { c.RetryBackoffMultiplier = 1.0 }, "retry-backoff-multiplier"},
		{"breaker threshold zero", func(c *Config) { c.CircuitBreakerThreshold = 0 }, "circuit-breaker-threshold"},
		{"breaker timeout zero", func(c *Config) { c.CircuitBreakerOpenTimeout = 0 }, "circuit-breaker-open-timeout"},
		{"tcp without secret", func(c *Config) { c.AgentAddress = "tcp://agent:4446" }, "agent-shared-secret"},
		{"bad agent scheme", func(c *Config) { c.AgentAddress = "http://agent" }, "agent-address"},
		{"receiver path without slash", func(c *Config) { c.HTTPReceiverPath = "v1/logs" }, "http-receiver-path"},
		{"all receivers disabled", func(c *Config) {
			c.GRPCListenAddr = ""
			c.HTTPListenAddr = ""
			c.StdinEnabled = false
		}, "receivers"},
		{"tls without cert", func(c *Config) { c.ReceiverTLSEnabled = true }, "receiver-tls-cert"},
		{"client auth without ca", func(c *Config) {
			c.ReceiverTLSEnabled = true
			c.ReceiverTLSCertFile = "cert.pem"
			c.ReceiverTLSKeyFile = "key.pem"
			c.ReceiverTLSClientAuth = true
		}, "receiver-tls-ca"},
		{"auth without token", func(c *Config) { c.ReceiverAuthEnabled = true }, "receiver-auth-bearer-token"},
		{"bad cardinality mode", func(c *Config) { c.CardinalityMode = "hyperexact" }, "cardinality-mode"},
		{"fp rate out of range", func(c *Config) { c.CardinalityFPRate = 1.5 }, "cardinality-fp-rate"},
		{"memory ratio out of range", func(c *Config) { c.MemoryLimitRatio = 2.0 }, "memory-limit-ratio"},
		{"bad telemetry protocol", func(c *Config) { c.TelemetryProtocol = "udp" }, "telemetry-protocol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("Validate() error %q does not mention %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestValidateReportsAllProblemsAtOnce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBatchSize = 0
	cfg.FlushInterval = 0
	cfg.RetryBackoffMultiplier = 0.5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, sub := range []string{"batch-size", "flush-interval", "retry-backoff-multiplier"} {
		if !strings.Contains(err.Error(), sub) {
			t.Errorf("multi-error does not mention %q: %v", sub, err)
		}
	}
}

func TestClientBatchConfigProjection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBatchSize = 50
	cfg.FlushInterval = 2 * time.Second
	cfg.MaxMemoryBytes = 1 << 19
	cfg.InitialRetryDelay = 250 * time.Millisecond
	cfg.MaxRetryDelay = 10 * time.Second
	cfg.RetryBackoffMultiplier = 1.5
	cfg.CircuitBreakerThreshold = 3
	cfg.CircuitBreakerOpenTimeout = 15 * time.Second

	bc := cfg.ClientBatchConfig()
	if err := bc.Validate(); err != nil {
		t.Fatalf("projected BatchConfig invalid: %v", err)
	}
	if bc.MaxBatchSize != 50 || bc.FlushInterval != 2*time.Second || bc.MaxMemoryBytes != 1<<19 {
		t.Errorf("batch projection = %+v", bc)
	}
	if bc.InitialRetryDelay != 250*time.Millisecond || bc.MaxRetryDelay != 10*time.Second || bc.RetryBackoffMultiplier != 1.5 {
		t.Errorf("retry projection = %+v", bc)
	}
	if bc.CircuitBreakerFailureThreshold != 3 || bc.CircuitBreakerOpenTimeout != 15*time.Second {
		t.Errorf("breaker projection = %+v", bc)
	}
	if bc.FlushOnExit {
		t.Error("projected FlushOnExit = true, the forwarder owns shutdown itself")
	}
}

func TestAgentTransportConfigProjection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AgentAddress = "tcp://agent:4446"
	cfg.AgentSharedSecret = "s3cret"
	cfg.AgentConnectTimeout = 2 * time.Second

	tc, err := cfg.AgentTransportConfig()
	if err != nil {
		t.Fatalf("AgentTransportConfig: %v", err)
	}
	if tc.Network != "tcp" || tc.Address != "agent:4446" {
		t.Errorf("transport = %s %s, want tcp agent:4446", tc.Network, tc.Address)
	}
	if tc.SharedSecret != "s3cret" || tc.ConnectTimeout != 2*time.Second {
		t.Errorf("transport = %+v", tc)
	}

	cfg.AgentAddress = "ftp://nope"
	if _, err := cfg.AgentTransportConfig(); err == nil {
		t.Error("AgentTransportConfig accepted a bad scheme")
	}
}

func TestReceiverAuthConfigProjection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReceiverAuthEnabled = true
	cfg.ReceiverAuthBearerToken = "secret-token"

	ac := cfg.ReceiverAuthConfig()
	if !ac.Enabled {
		t.Error("expected Enabled true")
	}
	if ac.BearerToken != "secret-token" {
		t.Errorf("BearerToken = %q, want secret-token", ac.BearerToken)
	}
}

func TestReceiverTLSConfigProjection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReceiverTLSEnabled = true
	cfg.ReceiverTLSCertFile = "/etc/certs/server.crt"
	cfg.ReceiverTLSKeyFile = "/etc/certs/server.key"
	cfg.ReceiverTLSCAFile = "/etc/certs/ca.crt"
	cfg.ReceiverTLSClientAuth = true

	tc := cfg.ReceiverTLSConfig()
	if !tc.Enabled || !tc.ClientAuth {
		t.Errorf("tls projection = %+v", tc)
	}
	if tc.CertFile != "/etc/certs/server.crt" || tc.KeyFile != "/etc/certs/server.key" || tc.CAFile != "/etc/certs/ca.crt" {
		t.Errorf("tls paths = %+v", tc)
	}
}

func TestSourceTrackerConfigProjection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CardinalityMode = "exact"
	cfg.CardinalityExpectedItems = 5000
	cfg.CardinalityFPRate = 0.02

	tc := cfg.SourceTrackerConfig()
	if tc.Mode != sourcetrack.ModeExact {
		t.Errorf("Mode = %v, want exact", tc.Mode)
	}
	if tc.ExpectedSources != 5000 || tc.FalsePositiveRate != 0.02 {
		t.Errorf("tracker projection = %+v", tc)
	}

	cfg.CardinalityMode = "bloom"
	if cfg.SourceTrackerConfig().Mode != sourcetrack.ModeBloom {
		t.Error("expected bloom mode")
	}
}
