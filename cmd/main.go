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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/telemetry-resampler/internal/config"
	"github.com/tejusbharadwaj/telemetry-resampler/internal/database"
	"github.com/tejusbharadwaj/telemetry-resampler/internal/pipeline"
	"github.com/tejusbharadwaj/telemetry-resampler/internal/resample"
	"github.com/tejusbharadwaj/telemetry-resampler/internal/scheduler"
	"github.com/tejusbharadwaj/telemetry-resampler/internal/server"
)

// Command telemetry-resampler turns raw equipment telemetry into fixed
// width buckets with a trailing moving average.
//
// The service supports:
//   - POST /resample for one equipment id and one UTC day
//   - Optional nightly runs for a configured equipment list
//   - Postgres through lib/pq or pgx
//   - Prometheus metrics on /metrics
//
// Usage:
//
//	telemetry-resampler [flags]
//
// The flags are:
//
//	-config string
//	      path to config file (default "config.yaml")
//	-port int
//	      HTTP server port, overrides the config file
func main() {
	// Parse command line flags
	cfg := parseFlags()

	// Load configuration
	appConfig, err := config.Load(cfg.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Port > 0 {
		appConfig.Server.Port = cfg.Port
	}

	// Initialize structured logger
	logger, err := newLogger(appConfig.Logging)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	// Create repository using the connection string from the config file
	repo, err := database.NewPostgresRepo(appConfig.Database.Driver, appConfig.Database.DSN(), database.Options{
		SourceTable:     appConfig.Pipeline.SourceTable,
		TimestampColumn: appConfig.Pipeline.TimestampColumn,
		EquipmentColumn: appConfig.Pipeline.EquipmentColumn,
		MaxConnections:  appConfig.Database.MaxConnections,
		SchemaCacheSize: appConfig.Database.SchemaCacheSize,
	})
	if err != nil {
		logger.Fatalf("Failed to create repository: %v", err)
	}

	engine, err := resample.NewEngine(appConfig.Pipeline.ResampleConfig())
	if err != nil {
		logger.Fatalf("Failed to create resampler: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics, err := pipeline.NewMetrics(registry)
	if err != nil {
		logger.Fatalf("Failed to register metrics: %v", err)
	}
	runner := pipeline.NewRunner(repo, repo, engine, appConfig.Pipeline.TargetTable, logger, metrics)

	health := server.NewHealthChecker(repo)
	handler, err := server.SetupServer(runner, health, logger, registry, server.ServerConfig{
		RateLimit:      appConfig.Server.RateLimit,
		RateLimitBurst: appConfig.Server.RateLimitBurst,
	})
	if err != nil {
		logger.Fatalf("Failed to setup server: %v", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", appConfig.Server.Host, appConfig.Server.Port),
		Handler: handler,
	}

	// Start background services
	errChan := make(chan error, 1)

	var sched *scheduler.Scheduler
	if appConfig.Scheduler.Enabled {
		sched = scheduler.NewScheduler(runner, scheduler.Options{
			Spec:       appConfig.Scheduler.Spec,
			Equipment:  appConfig.Scheduler.Equipment,
			MavgPeriod: appConfig.Scheduler.MavgPeriod,
		}, logger)
		if err := sched.Start(); err != nil {
			logger.Fatalf("Failed to start scheduler: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownDone := make(chan struct{})
	go func() {
		handleShutdown(ctx, srv, appConfig.Server, health, sched, repo, logger)
		close(shutdownDone)
	}()

	health.SetServingStatus("", server.StatusServing)
	logger.WithFields(logrus.Fields{
		"addr":      srv.Addr,
		"driver":    appConfig.Database.Driver,
		"scheduler": appConfig.Scheduler.Enabled,
	}).Info("Starting HTTP server")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
			return
		}
		errChan <- nil
	}()

	// Wait for any error
	if err := <-errChan; err != nil {
		logger.Fatalf("Service error: %v", err)
	}
	<-shutdownDone
}

type Config struct {
	ConfigPath string
	Port       int
}

func parseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.ConfigPath, "config", "config.yaml", "Path to config file")
	flag.IntVar(&cfg.Port, "port", 0, "The HTTP server port, overrides the config file")

	flag.Parse()

	return cfg
}

func newLogger(cfg config.LoggingConfig) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}

// Handle graceful shutdown
func handleShutdown(
	ctx context.Context,
	srv *http.Server,
	cfg config.ServerConfig,
	health *server.HealthChecker,
	sched *scheduler.Scheduler,
	repo database.TelemetryRepository,
	logger *logrus.Logger,
) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		logger.Info("Context canceled, initiating shutdown")
	case sig := <-sigChan:
		logger.Infof("Received signal %v, initiating shutdown", sig)
	}

	health.SetServingStatus("", server.StatusNotServing)

	// Perform graceful shutdown
	logger.Info("Gracefully stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown did not complete")
	}

	if sched != nil {
		sched.Stop()
	}
	logger.Info("Server stopped")

	// Clean up the repository
	if err := repo.Close(); err != nil {
		logger.WithError(err).Error("Failed to close repository")
	}
}
