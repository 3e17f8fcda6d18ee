package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/barals/TheBusBookingCompany/config"
	"github.com/barals/TheBusBookingCompany/internal/bootstrap"
	"github.com/barals/TheBusBookingCompany/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("setup telemetry: %v", err)
	}
	defer shutdownTelemetry(context.Background())

	logger, err := observability.NewLogger(cfg.Telemetry)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	components, err := bootstrap.BuildComponents(ctx, cfg, logger, registry)
	if err != nil {
		logger.Fatal("build components", zap.Error(err))
	}
	defer components.Close()

	logger.Info("inventory service starting",
		zap.String("database", cfg.Database.Driver),
		zap.String("lock_backend", cfg.Inventory.LockBackend),
		zap.Bool("cache", components.Cache != nil),
		zap.Bool("events", components.Producer != nil),
	)

	if err := bootstrap.Run(ctx, cfg, components.Deps(registry, logger)); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}
