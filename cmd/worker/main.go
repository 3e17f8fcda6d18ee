package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/barals/TheBusBookingCompany/config"
	"github.com/barals/TheBusBookingCompany/internal/bootstrap"
	"github.com/barals/TheBusBookingCompany/internal/kafka"
	"github.com/barals/TheBusBookingCompany/internal/notify"
	"github.com/barals/TheBusBookingCompany/internal/observability"
	"github.com/barals/TheBusBookingCompany/internal/service/inventory"
	kafkaGo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
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
	logger = logger.With(zap.String("component", "worker"))
	defer logger.Sync()

	components, err := bootstrap.BuildComponents(ctx, cfg, logger, nil)
	if err != nil {
		logger.Fatal("build components", zap.Error(err))
	}
	defer components.Close()

	notifier := notify.NewNotifier(logger)
	g, gctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.InventoryTopic)
		defer consumer.Close()

		g.Go(func() error {
			err := consumer.Consume(gctx, func(ctx context.Context, msg kafkaGo.Message) error {
				return handleEvent(ctx, logger, components.Inventory, notifier, msg)
			})
			if gctx.Err() != nil {
				return nil
			}
			return err
		})
	} else {
		logger.Warn("kafka brokers not configured, inventory events are not consumed")
	}

	g.Go(func() error {
		runAudit(gctx, logger, components.Inventory, time.Duration(cfg.Worker.AuditIntervalMinutes)*time.Minute)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped", zap.Error(err))
		return
	}
	logger.Info("worker stopped")
}

// handleEvent never fails on a bad payload so one poison message cannot stall the partition.
func handleEvent(ctx context.Context, logger *zap.Logger, svc inventory.InventoryUseCase, notifier *notify.Notifier, msg kafkaGo.Message) error {
	event, err := kafka.DecodeInventoryEvent(msg)
	if err != nil {
		logger.Warn("skip undecodable inventory event", zap.Int64("offset", msg.Offset), zap.Error(err))
		return nil
	}

	if err := svc.RefreshAvailability(ctx, event.VehicleID); err != nil {
		logger.Warn("refresh availability failed", zap.Int64("vehicle_id", event.VehicleID), zap.Error(err))
	}
	return notifier.Notify(ctx, event)
}

func runAudit(ctx context.Context, logger *zap.Logger, svc inventory.InventoryUseCase, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			findings, err := svc.AuditLedger(ctx)
			if err != nil {
				logger.Error("ledger audit failed", zap.Error(err))
				continue
			}
			if len(findings) > 0 {
				logger.Warn("ledger audit found mismatches", zap.Int("count", len(findings)))
			}
		case <-ctx.Done():
			return
		}
	}
}
