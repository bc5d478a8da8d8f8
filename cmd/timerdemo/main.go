package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Baduit/Timer/internal/api"
	"github.com/Baduit/Timer/internal/config"
	"github.com/Baduit/Timer/internal/logger"
	"github.com/Baduit/Timer/metrics"
)

func main() {
	// Define command line flags (these override environment variables)
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.BoolVar(showVersion, "v", false, "Print version and exit (shorthand)")

	flagLogLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (env: TIMER_LOG_LEVEL, default: info)")
	flagLogDir := flag.String("log-dir", "", "Directory for the rotated timer.log (env: TIMER_LOG_DIR, default: stdout only)")
	flagServe := flag.Bool("serve", false, "Run the HTTP server instead of the examples (env: TIMER_SERVE)")
	flagListen := flag.String("listen", "", "HTTP listen address (env: TIMER_LISTEN_ADDR, default: :3091)")
	flagTick := flag.Duration("tick", 0, "Websocket snapshot period (env: TIMER_TICK_PERIOD, default: 1s)")
	flagScale := flag.Float64("scale", 0, "Multiplier for every example delay (env: TIMER_EXAMPLE_SCALE, default: 1)")

	flag.Parse()

	if *showVersion {
		fmt.Printf("timerdemo %s\n", config.Version)
		os.Exit(0)
	}

	config.Load()
	config.ApplyFlags(config.FlagOverrides{
		LogLevel:     flagLogLevel,
		LogDir:       flagLogDir,
		Serve:        flagServe,
		ListenAddr:   flagListen,
		TickPeriod:   flagTick,
		ExampleScale: flagScale,
	})
	cfg := config.Get()

	if err := logger.Init(cfg.LogDir); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize log file: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Close() }()
	logger.SetLevel(cfg.LogLevel)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	if !cfg.Serve {
		ex := &examples{out: os.Stdout, scale: cfg.Scaled, metrics: collector}
		if err := ex.run(); err != nil {
			logger.Errorf("Examples failed: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(cfg, reg, collector); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func serve(cfg *config.Config, reg *prometheus.Registry, collector *metrics.Collector) error {
	logger.Infof("Starting timerdemo %s...", config.Version)
	logger.Infof("  Listen Address: %s", cfg.ListenAddr)
	logger.Infof("  Log Level: %s", cfg.LogLevel)
	logger.Infof("  Tick Period: %s", cfg.TickPeriod)
	if dir := logger.GetLogDir(); dir != "" {
		logger.Infof("  Log Directory: %s", dir)
	}

	server := api.NewRESTServer(api.ServerDeps{
		Registry:   reg,
		Metrics:    collector,
		TickPeriod: cfg.TickPeriod,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("Server listening on %s", cfg.ListenAddr)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Infof("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-errCh:
		if err != nil {
			_ = server.Shutdown(context.Background())
			return fmt.Errorf("failed to start API server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown error: %w", err)
	}
	logger.Infof("Shutdown complete")
	return nil
}
