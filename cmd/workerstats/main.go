// Command workerstats exports the application inventory of a worker pool
// as gauges over HTTP.
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
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/kkqqqqqq/metrics"
	"github.com/kkqqqqqq/metrics/internal/config"
	"github.com/kkqqqqqq/metrics/internal/workerstats"
	"github.com/kkqqqqqq/metrics/metricshttp"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("workerstats stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("workerstats stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	regOpts := []metrics.RegistryOption{
		metrics.WithCommonLabels(cfg.Labels),
		metrics.WithRegistryLogger(logger.With(zap.String("component", "registry")).Sugar()),
	}
	if cfg.Prefix != "" {
		regOpts = append(regOpts, metrics.WithPrefix(cfg.Prefix))
	}
	registry, err := metrics.NewCustomRegistry(regOpts...)
	if err != nil {
		return fmt.Errorf("create registry: %w", err)
	}
	metrics.SetInvariantLogger(logger.With(zap.String("component", "metrics")).Sugar())

	ready := make(map[string]int, len(cfg.Apps))
	for _, app := range cfg.Apps {
		ready[app.Name] = app.ReadyInstances
	}
	reporter, err := workerstats.NewReporter(registry, workerstats.NewStaticSource(time.Now(), ready),
		workerstats.WithInterval(cfg.RefreshInterval),
		workerstats.WithLogger(logger.With(zap.String("component", "reporter")).Sugar()),
	)
	if err != nil {
		return fmt.Errorf("create reporter: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metricshttp.Handler(registry,
		metricshttp.WithLogger(logger.With(zap.String("component", "http")).Sugar())))
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving metrics", zap.String("addr", "http://"+cfg.Listen+cfg.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return reporter.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zapConfig := zap.NewProductionConfig()
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	return zapConfig.Build()
}
