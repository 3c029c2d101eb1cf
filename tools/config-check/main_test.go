package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/logflux-io/logflux-go-sdk/config"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forwarder.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestFormatResultValid(t *testing.T) {
	path := writeConfigFile(t, `
batch:
  max_size: 25
`)
	lines := formatResult(config.ValidateFile(path))
	if len(lines) != 1 || lines[0] != "OK "+path {
		t.Fatalf("lines = %v, want single OK line", lines)
	}
}

func TestFormatResultErrors(t *testing.T) {
	path := writeConfigFile(t, `
batch:
  max_size: 500
  retry:
    multiplier: 0.5
`)
	lines := formatResult(config.ValidateFile(path))
	if len(lines) != 2 {
		t.Fatalf("lines = %v, want two error lines", lines)
	}
	joined := strings.Join(lines, "\n")
	for _, want := range []string{"ERROR", "batch-size", "retry-backoff-multiplier"} {
		if !strings.Contains(joined, want) {
			t.Errorf("output missing %q:\n%s", want, joined)
		}
	}
	if strings.Contains(joined, "OK ") {
		t.Errorf("OK line present despite errors:\n%s", joined)
	}
}

func TestFormatResultWarningsStillOK(t *testing.T) {
	path := writeConfigFile(t, `
receiver:
  http:
    address: :4318
  auth:
    enabled: true
    bearer_token: tok
`)
	lines := formatResult(config.ValidateFile(path))
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "WARN") || !strings.Contains(joined, "receiver.auth.enabled") {
		t.Errorf("no auth-without-TLS warning:\n%s", joined)
	}
	if !strings.Contains(joined, "OK "+path) {
		t.Errorf("warnings must still end in OK:\n%s", joined)
	}
}

func TestFormatResultMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	lines := formatResult(config.ValidateFile(path))
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "ERROR") {
		t.Fatalf("lines = %v, want single ERROR line", lines)
	}
}

func TestFormatResultSynthetic(t *testing.T) {
	result := &config.ValidationResult{
		Valid: false,
		File:  "f.yaml",
		Issues: []config.ValidationIssue{
			{Severity: config.SeverityError, Field: "batch-size", Message: "out of range"},
			{Severity: config.SeverityWarning, Field: "batch.max_memory", Message: "very large"},
		},
	}
	lines := formatResult(result)
	if len(lines) != 2 {
		t.Fatalf("lines = %v, want 2", lines)
	}
	if lines[0] != "ERROR f.yaml: batch-size: out of range" {
		t.Errorf("error line = %q", lines[0])
	}
	if lines[1] != "WARN f.yaml: batch.max_memory: very large" {
		t.Errorf("warn line = %q", lines[1])
	}
}
