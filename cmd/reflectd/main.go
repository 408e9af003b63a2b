// Reflectd is a daemon exposing a three-pass reflection pipeline over HTTP.
//
// For each request the daemon drafts a result for a task, critiques the
// draft from the configured persona's point of view, then revises the draft
// using that critique. Completions come from a configured provider (OpenAI
// or Vertex AI).
//
// Configuration is loaded from ~/.config/reflectd/config.yaml and overridden
// by environment variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	OPENAI_API_KEY=sk-... OPENAI_ORGANIZATION=org-... reflectd
//
//	# Configure via environment
//	SERVER_PORT=9091 PROVIDER_MODEL=gpt-4o reflectd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/reflectd/internal/config"
	httpserver "github.com/fyrsmithlabs/reflectd/internal/http"
	"github.com/fyrsmithlabs/reflectd/internal/logging"
	"github.com/fyrsmithlabs/reflectd/internal/telemetry"
	"github.com/fyrsmithlabs/reflectd/pkg/llm"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/reflectd/config.yaml)")
	flag.Parse()
	args := flag.Args()

	// Handle subcommands
	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  reflectd           Start the reflectd daemon\n")
			fmt.Fprintf(os.Stderr, "  reflectd version   Show version information\n")
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("reflectd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the reflectd server and blocks until context is cancelled.
//
// This function initializes all dependencies in order:
//  1. Loads and validates configuration
//  2. Initializes telemetry (degrades rather than fails on exporter errors)
//  3. Initializes the structured logger, bridged to telemetry when enabled
//  4. Creates the completion client for the configured provider
//  5. Wires the HTTP server and the Prometheus /metrics endpoint
//  6. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize telemetry before the logger so the otelzap bridge can
	// attach to the logger provider.
	telCfg := telemetryConfig(cfg)
	tel, err := telemetry.New(ctx, telCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telCfg.Shutdown.Timeout.Duration())
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	logger, err := initLogger(cfg, tel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("Starting reflectd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("provider", cfg.Provider.Kind),
		zap.String("model", cfg.Provider.Model))

	if health := tel.Health(); health.Degraded {
		logger.Warn("Telemetry degraded", zap.String("reason", health.Reason))
	}

	// Create the completion client shared by all requests.
	completer, err := llm.NewCompleter(ctx, providerConfig(cfg), cfg.Reflection.SystemMessage)
	if err != nil {
		return fmt.Errorf("failed to initialize provider: %w", err)
	}

	logger.Info("Provider initialized",
		zap.String("provider", cfg.Provider.Kind),
		zap.String("model", cfg.Provider.Model))

	srv, err := httpserver.NewServer(completer, logger, &httpserver.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		Version:     version,
		CallTimeout: cfg.Reflection.CallTimeout.Duration(),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Register metrics endpoint
	srv.Echo().GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)),
		zap.String("reflect_endpoint", "/api/v1/reflect"),
		zap.String("metrics_endpoint", "/metrics"))

	// Start server (blocks until context cancellation)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Start returns http.ErrServerClosed once Shutdown completes.
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// initLogger builds the structured logger from config, attaching the OTEL
// bridge when telemetry is enabled.
func initLogger(cfg *config.Config, tel *telemetry.Telemetry) (*zap.Logger, error) {
	logCfg := logging.NewDefaultConfig()

	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging level %q: %w", cfg.Logging.Level, err)
	}
	logCfg.Level = level
	logCfg.Format = cfg.Logging.Format
	logCfg.Output.OTEL = tel.IsEnabled()

	return logging.New(logCfg, tel.LoggerProvider())
}

// telemetryConfig maps the daemon config onto the telemetry package config.
func telemetryConfig(cfg *config.Config) *telemetry.Config {
	telCfg := telemetry.NewDefaultConfig()
	telCfg.Enabled = cfg.Telemetry.Enabled
	telCfg.Endpoint = cfg.Telemetry.Endpoint
	telCfg.Protocol = cfg.Telemetry.Protocol
	telCfg.Insecure = cfg.Telemetry.Insecure
	telCfg.ServiceName = cfg.Telemetry.ServiceName
	telCfg.ServiceVersion = version
	telCfg.Sampling.Rate = cfg.Telemetry.SamplingRate
	return telCfg
}

// providerConfig maps the daemon config onto the llm package config.
func providerConfig(cfg *config.Config) llm.Config {
	return llm.Config{
		Provider:      llm.Provider(cfg.Provider.Kind),
		Model:         cfg.Provider.Model,
		Temperature:   cfg.Provider.Temperature,
		APIKey:        cfg.Provider.APIKey.Value(),
		Organization:  cfg.Provider.Organization,
		BaseURL:       cfg.Provider.BaseURL,
		CloudProject:  cfg.Provider.CloudProject,
		CloudLocation: cfg.Provider.CloudLocation,
	}
}
