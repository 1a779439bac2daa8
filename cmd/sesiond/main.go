// Sesiond serves the session-plan document generator over HTTP.
//
// Configuration comes from built-in defaults, an optional YAML or TOML file
// and SESIOND_* environment variables. See internal/config for the keys.
//
// Usage:
//
//	# Start server with defaults (port 5000)
//	sesiond
//
//	# Start with a config file and a custom port
//	SESIOND_SERVER_HTTP_PORT=8080 sesiond -config /etc/sesiond/config.yaml
//
//	# Show build information
//	sesiond version
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/sesiond/internal/config"
	"github.com/fyrsmithlabs/sesiond/internal/generator"
	httpserver "github.com/fyrsmithlabs/sesiond/internal/http"
	"github.com/fyrsmithlabs/sesiond/internal/logging"
	"github.com/fyrsmithlabs/sesiond/internal/telemetry"
	"github.com/fyrsmithlabs/sesiond/internal/tmplstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or TOML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion(os.Stdout)
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  sesiond [-config FILE]   Start the server\n")
			fmt.Fprintf(os.Stderr, "  sesiond version          Show version information\n")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "sesiond: %v\n", err)
		os.Exit(1)
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "sesiond by Fyrsmith Labs\n")
	fmt.Fprintf(w, "Version:    %s\n", version)
	fmt.Fprintf(w, "Commit:     %s\n", gitCommit)
	fmt.Fprintf(w, "Build Date: %s\n", buildDate)
}

// run wires the service and blocks until ctx is cancelled:
//  1. Loads and validates configuration
//  2. Initializes telemetry and the logger (bridged to OTLP when enabled)
//  3. Loads the default template and watches it for changes
//  4. Creates the generator and the HTTP server
//  5. Serves until ctx is done, then shuts down gracefully
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromObservability(cfg.Observability, version))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		_ = tel.Shutdown(context.Background())
	}()

	logCfg, err := logging.FromObservability(cfg.Observability)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info(ctx, "starting sesiond",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr()),
		zap.Bool("telemetry", cfg.Observability.EnableTelemetry),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))
	if h := tel.Health(); h.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.Strings("reasons", h.Reasons))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	genOpts := []generator.Option{
		generator.WithRegisterer(reg),
		generator.WithLogger(logger.Named("generator")),
		generator.WithTracer(tel.Tracer("github.com/fyrsmithlabs/sesiond/internal/generator")),
		generator.WithCacheSize(cfg.Generator.TemplateCacheSize),
	}

	if path := cfg.Generator.DefaultTemplate; path != "" {
		store, err := tmplstore.New(path, tmplstore.WithLogger(logger.Named("tmplstore")))
		if err != nil {
			return fmt.Errorf("loading default template: %w", err)
		}
		logger.Info(ctx, "default template loaded", zap.String("path", store.Path()))

		if cfg.Generator.WatchTemplate {
			if err := store.Start(ctx); err != nil {
				logger.Warn(ctx, "template watcher unavailable, reloads disabled", zap.Error(err))
			} else {
				defer store.Stop()
			}
		}
		genOpts = append(genOpts, generator.WithDefaultTemplate(store))
	}

	gen, err := generator.New(genOpts...)
	if err != nil {
		return fmt.Errorf("creating generator: %w", err)
	}

	httpLogger := logger.Named("http")
	srv, err := httpserver.NewServer(gen, httpLogger, cfg,
		httpserver.WithVersion(version),
		httpserver.WithGatherer(reg),
		httpserver.WithTracer(tel.Tracer("github.com/fyrsmithlabs/sesiond/internal/http")),
		httpserver.WithHTTPMetrics(httpserver.NewHTTPMetrics(tel.Meter("github.com/fyrsmithlabs/sesiond/internal/http"), httpLogger)),
		httpserver.WithTelemetryHealth(tel.Health),
	)
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	if err := srv.Start(ctx); err != nil {
		return err
	}
	logger.Info(ctx, "server shutdown complete")
	return nil
}
