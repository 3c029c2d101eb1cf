package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ValidationSeverity indicates the severity of a validation issue.
type ValidationSeverity string

const (
	// SeverityError indicates a configuration error that prevents startup.
	SeverityError ValidationSeverity = "error"
	// SeverityWarning indicates a potential issue that won't prevent startup.
	SeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue represents a single validation finding.
type ValidationIssue struct {
	Severity ValidationSeverity `json:"severity"`
	Field    string             `json:"field"`
	Message  string             `json:"message"`
}

// ValidationResult holds the complete validation output.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	File   string            `json:"file"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// JSON returns the validation result as formatted JSON.
func (r *ValidationResult) JSON() string {
	data, _ := json.MarshalIndent(r, "", "  ")
	return string(data)
}

// ValidateFile loads a YAML config file and validates it, returning structured results.
func ValidateFile(path string) *ValidationResult {
	result := &ValidationResult{
		Valid: true,
		File:  path,
	}

	info, err := os.Stat(path)
	if err != nil {
		result.Valid = false
		result.Issues = append(result.Issues, ValidationIssue{
			Severity: SeverityError,
			Field:    "file",
			Message:  fmt.Sprintf("cannot access file: %v", err),
		})
		return result
	}
	if info.IsDir() {
		result.Valid = false
		result.Issues = append(result.Issues, ValidationIssue{
			Severity: SeverityError,
			Field:    "file",
			Message:  "path is a directory, expected a file",
		})
		return result
	}

	yamlCfg, err := LoadYAML(path)
	if err != nil {
		result.Valid = false
		result.Issues = append(result.Issues, ValidationIssue{
			Severity: SeverityError,
			Field:    "yaml",
			Message:  fmt.Sprintf("YAML parse error: %v", err),
		})
		return result
	}

	// ToConfig overlays the file onto defaults, so absent fields hold
	// valid default values.
	cfg := yamlCfg.ToConfig()
	cfg.ConfigFile = path

	if err := cfg.Validate(); err != nil {
		result.Valid = false
		msg := err.Error()
		prefix := "configuration validation failed:\n  - "
		if strings.HasPrefix(msg, prefix) {
			items := strings.Split(strings.TrimPrefix(msg, prefix), "\n  - ")
			for _, item := range items {
				field, message := parseValidationError(item)
				result.Issues = append(result.Issues, ValidationIssue{
					Severity: SeverityError,
					Field:    field,
					Message:  message,
				})
			}
		} else {
			result.Issues = append(result.Issues, ValidationIssue{
				Severity: SeverityError,
				Field:    "config",
				Message:  msg,
			})
		}
	}

	addWarnings(cfg, result)

	return result
}

// parseValidationError extracts field and message from a validation error string.
// e.g. "batch-size must be between 1 and 100, got 500" → field="batch-size", message=...
func parseValidationError(s string) (string, string) {
	s = strings.TrimSpace(s)
	for _, sep := range []string{" must ", " is ", " should ", " are "} {
		if idx := strings.Index(s, sep); idx > 0 {
			field := s[:idx]
			if !strings.Contains(field, " ") {
				return field, s
			}
		}
	}
	return "config", s
}

// addWarnings checks for non-fatal issues that are worth flagging.
func addWarnings(cfg *Config, result *ValidationResult) {
	if network, address, err := ParseAddress(cfg.AgentAddress); err == nil {
		// Warn about plaintext TCP delivery to a non-local agent.
		if network == "tcp" && !isLocalhost(address) {
			result.Issues = append(result.Issues, ValidationIssue{
				Severity: SeverityWarning,
				Field:    "agent.address",
				Message:  fmt.Sprintf("entries travel in cleartext to remote agent %q", address),
			})
		}
		// Warn about a shared secret the unix transport never sends.
		if network == "unix" && cfg.AgentSharedSecret != "" {
			result.Issues = append(result.Issues, ValidationIssue{
				Severity: SeverityWarning,
				Field:    "agent.shared_secret",
				Message:  "set but unused, unix socket connections do not authenticate",
			})
		}
	}

	// Warn about very large pending buffers.
	if cfg.MaxMemoryBytes > 256*1024*1024 {
		result.Issues = append(result.Issues, ValidationIssue{
			Severity: SeverityWarning,
			Field:    "batch.max_memory",
			Message:  fmt.Sprintf("very large pending buffer (%s) may consume significant memory", FormatByteSize(cfg.MaxMemoryBytes)),
		})
	}

	// Warn when the final flush at shutdown is disabled.
	if !cfg.FlushOnExit {
		result.Issues = append(result.Issues, ValidationIssue{
			Severity: SeverityWarning,
			Field:    "batch.flush_on_exit",
			Message:  "disabled, entries still buffered at shutdown are dropped",
		})
	}

	// Warn about TLS cert files that don't exist.
	if cfg.ReceiverTLSEnabled {
		checkFileWarning(cfg.ReceiverTLSCertFile, "receiver.tls.cert_file", result)
		checkFileWarning(cfg.ReceiverTLSKeyFile, "receiver.tls.key_file", result)
		if cfg.ReceiverTLSCAFile != "" {
			checkFileWarning(cfg.ReceiverTLSCAFile, "receiver.tls.ca_file", result)
		}
	}

	// Warn about bearer tokens crossing the wire in cleartext.
	if cfg.ReceiverAuthEnabled && !cfg.ReceiverTLSEnabled {
		result.Issues = append(result.Issues, ValidationIssue{
			Severity: SeverityWarning,
			Field:    "receiver.auth.enabled",
			Message:  "auth enabled without TLS, bearer tokens cross the wire in cleartext",
		})
	}

	// Warn about insecure telemetry export to a remote collector.
	if cfg.TelemetryEndpoint != "" && cfg.TelemetryInsecure && !isLocalhost(cfg.TelemetryEndpoint) {
		result.Issues = append(result.Issues, ValidationIssue{
			Severity: SeverityWarning,
			Field:    "telemetry.insecure",
			Message:  fmt.Sprintf("insecure connection to non-localhost endpoint %q", cfg.TelemetryEndpoint),
		})
	}
}

func checkFileWarning(path, field string, result *ValidationResult) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		result.Issues = append(result.Issues, ValidationIssue{
			Severity: SeverityWarning,
			Field:    field,
			Message:  fmt.Sprintf("file not found: %s", path),
		})
	}
}

func isLocalhost(endpoint string) bool {
	return strings.HasPrefix(endpoint, "localhost") ||
		strings.HasPrefix(endpoint, "127.0.0.1") ||
		strings.HasPrefix(endpoint, "[::1]")
}
