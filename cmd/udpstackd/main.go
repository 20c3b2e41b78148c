// Command udpstackd runs the UDP/IP stack over a TAP device, sending one
// fixed payload on startup and logging every inbound UDP datagram.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nanostack/udpstack/clock"
	"github.com/nanostack/udpstack/driver"
	"github.com/nanostack/udpstack/hostcfg"
	"github.com/nanostack/udpstack/internal/metrics"
	"github.com/nanostack/udpstack/stack"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cmd := newRootCmd(logger)
	if err := cmd.Execute(); err != nil {
		logger.Error("udpstackd exited with error", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	var (
		configPath  string
		tapName     string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "udpstackd",
		Short: "Run the minimal UDP/IPv4-over-Ethernet stack against a TAP device",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDaemon(logger, configPath, tapName, metricsAddr)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to YAML host configuration")
	cmd.Flags().StringVar(&tapName, "tap", "", "TAP device name (empty: let the kernel assign one)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9100", "Prometheus metrics listen address")

	return cmd
}

func runDaemon(logger *slog.Logger, configPath, tapName, metricsAddr string) error {
	cfg, err := hostcfg.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := hostcfg.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	tap, err := driver.NewTAP(tapName)
	if err != nil {
		return fmt.Errorf("open tap device: %w", err)
	}
	defer tap.Close()
	logger.Info("tap device ready", slog.String("name", tap.Name()))

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	onUDP := func(payload []byte) {
		logger.Info("udp datagram received", slog.Int("bytes", len(payload)))
	}

	clk := clock.NewSystem()
	engine := stack.New(tap, clk, cfg, onUDP, stack.WithLogger(logger), stack.WithMetrics(collector))

	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	metricsSrv := newMetricsServer(metricsAddr, reg)
	errCh := make(chan error, 2)

	go func() {
		logger.Info("metrics server listening", slog.String("addr", metricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
			return
		}
		errCh <- nil
	}()

	go func() {
		errCh <- engine.Run(ctx)
	}()

	if err := engine.SendUDP([]byte("udpstackd ready")); err != nil {
		logger.Warn("startup datagram not sent", slog.String("error", err.Error()))
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown error", slog.String("error", err.Error()))
	}

	return nil
}

func newMetricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
