// Command logflux-forwarder bridges local log sources into a logflux
// agent. It ingests OTLP logs over gRPC and HTTP, optionally reads
// newline-delimited lines from stdin, batches everything through the
// SDK client, and serves stats, metrics, and health endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"golang.org/x/sync/errgroup"

	"github.com/logflux-io/logflux-go-sdk/client"
	"github.com/logflux-io/logflux-go-sdk/config"
	"github.com/logflux-io/logflux-go-sdk/internal/health"
	"github.com/logflux-io/logflux-go-sdk/internal/receiver"
	"github.com/logflux-io/logflux-go-sdk/internal/stats"
	"github.com/logflux-io/logflux-go-sdk/internal/telemetry"
	"github.com/logflux-io/logflux-go-sdk/logging"
	"github.com/logflux-io/logflux-go-sdk/transport"
)

const (
	serviceName = "logflux-forwarder"

	// shutdownTimeout bounds the entire graceful shutdown, including
	// the final flush toward the agent.
	shutdownTimeout = 30 * time.Second

	statsLogInterval = 30 * time.Second
)

func main() {
	cfg := config.ParseFlags()

	if cfg.ShowHelp {
		config.PrintUsage()
		os.Exit(0)
	}
	if cfg.ShowVersion {
		config.PrintVersion()
		os.Exit(0)
	}

	if err := cfg.Validate(); err != nil {
		logging.Fatal("invalid configuration", logging.F("error", err.Error()))
	}

	logging.SetResource(map[string]string{
		"service.name":    serviceName,
		"service.version": config.Version(),
	})

	applyMemoryLimit(cfg.MemoryLimitRatio)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tel, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:        cfg.TelemetryEndpoint,
		Protocol:        cfg.TelemetryProtocol,
		Insecure:        cfg.TelemetryInsecure,
		PushInterval:    cfg.TelemetryPushInterval,
		Headers:         cfg.TelemetryHeaders,
		ShutdownTimeout: cfg.TelemetryShutdownTimeout,
	}, serviceName, config.Version())
	if err != nil {
		logging.Fatal("failed to initialize telemetry", logging.F("error", err.Error()))
	}
	if tel.Enabled() {
		logging.SetHook(tel.NewLogHook())
		logging.Info("telemetry export enabled", logging.F(
			"endpoint", cfg.TelemetryEndpoint,
			"protocol", cfg.TelemetryProtocol,
		))
	}

	transportCfg, err := cfg.AgentTransportConfig()
	if err != nil {
		logging.Fatal("invalid agent address", logging.F("error", err.Error()))
	}
	agent, err := transport.New(transportCfg)
	if err != nil {
		logging.Fatal("failed to create agent transport", logging.F("error", err.Error()))
	}
	cl, err := client.New(agent, cfg.ClientBatchConfig())
	if err != nil {
		logging.Fatal("failed to create client", logging.F("error", err.Error()))
	}

	collector := stats.NewCollector(cfg.SourceTrackerConfig(), 0)
	checker := health.New(config.Version())

	sli := stats.NewSLITracker(stats.DefaultSLIConfig())
	go sli.Run(ctx, stats.DefaultSnapshotInterval, cl.Stats)
	go collector.StartPeriodicLogging(ctx, statsLogInterval)

	var grpcRecv *receiver.GRPCReceiver
	if cfg.GRPCListenAddr != "" {
		grpcRecv = receiver.NewGRPCWithConfig(receiver.GRPCConfig{
			Addr:           cfg.GRPCListenAddr,
			DefaultSource:  cfg.DefaultSource,
			TLS:            cfg.ReceiverTLSConfig(),
			Auth:           cfg.ReceiverAuthConfig(),
			MaxConnections: cfg.ReceiverMaxConnections,
		}, cl, collector)
	}

	var httpRecv *receiver.HTTPReceiver
	if cfg.HTTPListenAddr != "" {
		httpRecv = receiver.NewHTTPWithConfig(receiver.HTTPConfig{
			Addr:           cfg.HTTPListenAddr,
			Path:           cfg.HTTPReceiverPath,
			DefaultSource:  cfg.DefaultSource,
			TLS:            cfg.ReceiverTLSConfig(),
			Auth:           cfg.ReceiverAuthConfig(),
			MaxConnections: cfg.ReceiverMaxConnections,
			Server: receiver.HTTPServerConfig{
				MaxRequestBodySize: cfg.ReceiverMaxRequestBodySize,
				ReadTimeout:        cfg.ReceiverReadTimeout,
				ReadHeaderTimeout:  cfg.ReceiverReadHeaderTimeout,
				WriteTimeout:       cfg.ReceiverWriteTimeout,
				IdleTimeout:        cfg.ReceiverIdleTimeout,
				KeepAlivesEnabled:  cfg.ReceiverKeepAlivesEnabled,
			},
		}, cl, collector)
		checker.RegisterReadiness("http_receiver", httpRecv.HealthCheck)
	}

	statsServer := stats.NewServer(cfg.StatsAddr, collector, checker)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := statsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("stats server: %w", err)
		}
		return nil
	})
	if grpcRecv != nil {
		g.Go(func() error {
			if err := grpcRecv.Start(); err != nil {
				return fmt.Errorf("grpc receiver: %w", err)
			}
			return nil
		})
	}
	if httpRecv != nil {
		g.Go(func() error {
			if err := httpRecv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http receiver: %w", err)
			}
			return nil
		})
	}
	if cfg.StdinEnabled {
		stdin := receiver.NewStdinReader(os.Stdin, cfg.StdinSource, cl, collector)
		g.Go(func() error {
			if err := stdin.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("stdin reader: %w", err)
			}
			return nil
		})
	}

	logging.Info("logflux-forwarder started", logging.F(
		"version", config.Version(),
		"agent", cfg.AgentAddress,
		"grpc_listen", cfg.GRPCListenAddr,
		"http_listen", cfg.HTTPListenAddr,
		"stats_addr", cfg.StatsAddr,
		"stdin", cfg.StdinEnabled,
	))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() { serverErr <- g.Wait() }()

	select {
	case sig := <-sigCh:
		logging.Info("received signal, shutting down", logging.F("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			logging.Error("server failed, shutting down", logging.F("error", err.Error()))
		}
	}

	checker.SetShuttingDown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Ingest stops first so the final flush sees a quiet buffer.
	if grpcRecv != nil {
		grpcRecv.Stop()
	}
	if httpRecv != nil {
		if err := httpRecv.Stop(shutdownCtx); err != nil {
			logging.Error("http receiver shutdown failed", logging.F("error", err.Error()))
		}
	}
	cancel()

	stopCtx := shutdownCtx
	if !cfg.FlushOnExit {
		// An expired context fails the final flush immediately,
		// dropping whatever is still buffered.
		expired, expire := context.WithCancel(shutdownCtx)
		expire()
		stopCtx = expired
	}
	if err := cl.Stop(stopCtx); err != nil {
		logging.Error("client shutdown failed", logging.F("error", err.Error()))
	}

	if err := statsServer.Stop(shutdownCtx); err != nil {
		logging.Error("stats server shutdown failed", logging.F("error", err.Error()))
	}

	if tel.Enabled() {
		telCtx, telCancel := context.WithTimeout(context.Background(), tel.ShutdownTimeout())
		if err := tel.Shutdown(telCtx); err != nil {
			logging.Error("telemetry shutdown failed", logging.F("error", err.Error()))
		}
		telCancel()
	}

	logging.Info("shutdown complete")
}

// applyMemoryLimit sets GOMEMLIMIT from the cgroup memory limit, or
// from total system memory outside a container, so the runtime starts
// reclaiming before the OOM killer steps in.
func applyMemoryLimit(ratio float64) {
	limit, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(ratio),
		memlimit.WithProvider(memlimit.ApplyFallback(
			memlimit.FromCgroup,
			memlimit.FromSystem,
		)),
	)
	if err != nil {
		logging.Warn("could not determine memory limit, GOMEMLIMIT unchanged",
			logging.F("error", err.Error()))
		return
	}
	logging.Info("GOMEMLIMIT applied", logging.F("limit_bytes", limit, "ratio", ratio))
}
