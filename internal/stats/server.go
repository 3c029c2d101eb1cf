package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/logflux-io/logflux-go-sdk/internal/health"
	"github.com/logflux-io/logflux-go-sdk/logging"
)

// snapshotTopSources caps the per-source breakdown served on /stats.
const snapshotTopSources = 50

// Server exposes the forwarder's operational endpoints: Prometheus
// metrics on /metrics, a JSON ingest snapshot on /stats, and
// liveness/readiness probes under /health.
type Server struct {
	server    *http.Server
	collector *Collector
	addr      string
}

// NewServer creates a stats server serving the given collector and
// health checker.
func NewServer(addr string, collector *Collector, checker *health.Checker) *Server {
	s := &Server{
		collector: collector,
		addr:      addr,
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/stats", s.handleStats)
	mux.Handle("/health/live", checker.LiveHandler())
	mux.Handle("/health/ready", checker.ReadyHandler())

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// handleStats serves the JSON ingest snapshot.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.collector.Snapshot(snapshotTopSources)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		logging.Error("failed to encode stats snapshot", logging.F("error", err.Error()))
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.Info("stats endpoint started", logging.F(
		"addr", s.addr,
		"endpoints", "/metrics /stats /health/live /health/ready",
	))
	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
