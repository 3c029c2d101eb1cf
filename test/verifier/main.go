package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
)

// statsSnapshot mirrors the fields of the forwarder /stats document
// the verifier cares about.
type statsSnapshot struct {
	TotalEntries  uint64 `json:"total_entries"`
	UniqueSources int64  `json:"unique_sources"`
	TopSources    []struct {
		Source  string `json:"source"`
		Entries uint64 `json:"entries"`
	} `json:"top_sources"`
}

type clientStats struct {
	EntriesSent    int64
	PendingEntries int64
	FlushFailures  int64
	DroppedEntries int64
}

type VerificationResult struct {
	Timestamp         time.Time
	Source            string
	ExpectedEntries   int64
	AttributedEntries int64
	RejectedEntries   int64
	TotalEntries      uint64
	UniqueSources     int64
	Client            clientStats
	Match             bool
	MissingPercentage float64
}

func main() {
	grpcEndpoint := getEnv("FORWARDER_GRPC_ENDPOINT", "localhost:4317")
	statsEndpoint := getEnv("STATS_ENDPOINT", "http://localhost:9090")
	entryCount := getEnvInt("ENTRY_COUNT", 1000)
	perRequest := getEnvInt("RECORDS_PER_REQUEST", 100)
	verifyTimeout := getEnvDuration("VERIFY_TIMEOUT", 60*time.Second)
	pollInterval := getEnvDuration("POLL_INTERVAL", 2*time.Second)
	source := getEnv("VERIFICATION_SOURCE", fmt.Sprintf("verifier-%d", time.Now().Unix()))

	log.Printf("========================================")
	log.Printf("  LOG DELIVERY VERIFICATION TOOL")
	log.Printf("========================================")
	log.Printf("Forwarder gRPC: %s", grpcEndpoint)
	log.Printf("Stats Endpoint: %s", statsEndpoint)
	log.Printf("Entry Count: %d", entryCount)
	log.Printf("Verification Source: %s", source)
	log.Printf("========================================")

	rejected, err := sendEntries(grpcEndpoint, source, entryCount, perRequest)
	if err != nil {
		log.Fatalf("Send phase failed: %v", err)
	}
	log.Printf("Send phase complete: %d entries, %d rejected", entryCount, rejected)

	deadline := time.Now().Add(verifyTimeout)
	var result VerificationResult
	for {
		result = verify(statsEndpoint, source, int64(entryCount))
		result.RejectedEntries = rejected
		result.Match = result.Match && rejected == 0
		if result.Match || time.Now().After(deadline) {
			break
		}
		time.Sleep(pollInterval)
	}

	printResult(result)
	if !result.Match {
		os.Exit(1)
	}
}

// sendEntries pushes entryCount log records over OTLP/gRPC, split into
// requests of at most perRequest records, and returns how many the
// forwarder rejected.
func sendEntries(endpoint, source string, entryCount, perRequest int) (int64, error) {
	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return 0, fmt.Errorf("connect to %s: %w", endpoint, err)
	}
	defer conn.Close()

	client := collogspb.NewLogsServiceClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var rejected int64
	sent := 0
	for _, size := range requestSizes(entryCount, perRequest) {
		resp, err := client.Export(ctx, buildExportRequest(source, size, sent))
		if err != nil {
			return rejected, fmt.Errorf("export after %d entries: %w", sent, err)
		}
		if ps := resp.GetPartialSuccess(); ps != nil && ps.GetRejectedLogRecords() > 0 {
			rejected += ps.GetRejectedLogRecords()
			log.Printf("Partial success: %d records rejected: %s", ps.GetRejectedLogRecords(), ps.GetErrorMessage())
		}
		sent += size
	}
	return rejected, nil
}

// requestSizes splits total into chunks of at most perRequest.
func requestSizes(total, perRequest int) []int {
	var sizes []int
	for total > 0 {
		n := perRequest
		if total < perRequest {
			n = total
		}
		sizes = append(sizes, n)
		total -= n
	}
	return sizes
}

func buildExportRequest(source string, count int, offset int) *collogspb.ExportLogsServiceRequest {
	records := make([]*logspb.LogRecord, count)
	for i := 0; i < count; i++ {
		records[i] = &logspb.LogRecord{
			TimeUnixNano:   uint64(time.Now().UnixNano()),
			SeverityNumber: logspb.SeverityNumber_SEVERITY_NUMBER_INFO,
			Body: &commonpb.AnyValue{
				Value: &commonpb.AnyValue_StringValue{StringValue: fmt.Sprintf("verification entry %d", offset+i)},
			},
		}
	}
	return &collogspb.ExportLogsServiceRequest{
		ResourceLogs: []*logspb.ResourceLogs{
			{
				Resource: &resourcepb.Resource{
					Attributes: []*commonpb.KeyValue{
						{Key: "service.name", Value: &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: source}}},
					},
				},
				ScopeLogs: []*logspb.ScopeLogs{
					{LogRecords: records},
				},
			},
		},
	}
}

func verify(statsEndpoint, source string, expected int64) VerificationResult {
	result := VerificationResult{
		Timestamp:       time.Now(),
		Source:          source,
		ExpectedEntries: expected,
	}

	snapshot, err := queryStats(statsEndpoint)
	if err != nil {
		log.Printf("Error querying stats: %v", err)
		return result
	}
	result.TotalEntries = snapshot.TotalEntries
	result.UniqueSources = snapshot.UniqueSources
	result.AttributedEntries = sourceEntries(snapshot, source)

	cs, err := queryClientStats(statsEndpoint)
	if err != nil {
		log.Printf("Error querying client metrics: %v", err)
	} else {
		result.Client = cs
	}

	if expected > 0 {
		result.MissingPercentage = float64(expected-result.AttributedEntries) / float64(expected) * 100
		result.Match = result.AttributedEntries == expected && result.Client.DroppedEntries == 0
	}

	return result
}

func queryStats(endpoint string) (statsSnapshot, error) {
	var snapshot statsSnapshot

	resp, err := http.Get(endpoint + "/stats")
	if err != nil {
		return snapshot, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return snapshot, err
	}
	if resp.StatusCode != http.StatusOK {
		return snapshot, fmt.Errorf("stats returned %d", resp.StatusCode)
	}

	err = json.Unmarshal(body, &snapshot)
	return snapshot, err
}

func sourceEntries(snapshot statsSnapshot, source string) int64 {
	for _, s := range snapshot.TopSources {
		if s.Source == source {
			return int64(s.Entries)
		}
	}
	return 0
}

func queryClientStats(endpoint string) (clientStats, error) {
	stats := clientStats{}

	resp, err := http.Get(endpoint + "/metrics")
	if err != nil {
		return stats, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return stats, err
	}

	lines := string(body)
	stats.EntriesSent = extractMetricValue(lines, "logflux_client_entries_sent_total")
	stats.PendingEntries = extractMetricValue(lines, "logflux_client_pending_entries")
	stats.FlushFailures = extractMetricValue(lines, "logflux_client_flush_failures_total")
	stats.DroppedEntries = extractMetricValue(lines, "logflux_client_entries_dropped_total")

	return stats, nil
}

// extractMetricValue sums every series of metricName in Prometheus
// text format. Labeled series of the same metric are added together.
func extractMetricValue(metricsText, metricName string) int64 {
	var total float64
	lines := strings.Split(metricsText, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, metricName) {
			continue
		}
		// Reject longer metric names sharing the prefix.
		rest := line[len(metricName):]
		if rest != "" && rest[0] != '{' && rest[0] != ' ' && rest[0] != '\t' {
			continue
		}

		// Handle metrics with labels: metric_name{labels} value
		// or simple metrics: metric_name value
		parts := strings.Fields(line)
		if len(parts) >= 2 {
			valueStr := parts[len(parts)-1]
			val, err := strconv.ParseFloat(valueStr, 64)
			if err == nil {
				total += val
			}
		}
	}
	return int64(total)
}

func printResult(result VerificationResult) {
	status := "✅ PASS"
	if !result.Match {
		status = "❌ FAIL"
	}

	log.Printf("========================================")
	log.Printf("  VERIFICATION RESULT - %s", status)
	log.Printf("========================================")
	log.Printf("Timestamp: %s", result.Timestamp.Format(time.RFC3339))
	log.Printf("")
	log.Printf("FORWARDER STATS:")
	log.Printf("  Total entries:          %d", result.TotalEntries)
	log.Printf("  Unique sources:         %d", result.UniqueSources)
	log.Printf("  Attributed to source:   %d", result.AttributedEntries)
	log.Printf("")
	log.Printf("DELIVERY CLIENT:")
	log.Printf("  Entries sent to agent:  %d", result.Client.EntriesSent)
	log.Printf("  Pending entries:        %d", result.Client.PendingEntries)
	log.Printf("  Flush failures:         %d", result.Client.FlushFailures)
	log.Printf("  Dropped entries:        %d", result.Client.DroppedEntries)
	log.Printf("")
	log.Printf("VERIFICATION:")
	log.Printf("  Expected:               %d", result.ExpectedEntries)
	log.Printf("  Rejected at ingest:     %d", result.RejectedEntries)
	log.Printf("  Match:                  %v", result.Match)
	log.Printf("  Missing:                %.2f%%", result.MissingPercentage)
	log.Printf("========================================")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return n
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return d
	}
	return defaultValue
}
