package bootstrap

import (
	"context"

	"github.com/barals/TheBusBookingCompany/config"
	"github.com/barals/TheBusBookingCompany/internal/cache"
	"github.com/barals/TheBusBookingCompany/internal/kafka"
	"github.com/barals/TheBusBookingCompany/internal/metrics"
	"github.com/barals/TheBusBookingCompany/internal/repository"
	"github.com/barals/TheBusBookingCompany/internal/service/inventory"
	"github.com/barals/TheBusBookingCompany/internal/service/vehicles"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Components is everything both binaries need to run inventory operations.
type Components struct {
	Store     repository.Store
	Cache     *cache.RedisCache
	Producer  *kafka.Producer
	Vehicles  *vehicles.VehicleService
	Inventory *inventory.Service
	Checks    map[string]HealthCheck

	closers []func()
}

// BuildComponents wires storage, cache, lock and messaging from cfg. Redis
// and Kafka are optional; without them the cache and events are disabled.
func BuildComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer) (*Components, error) {
	c := &Components{Checks: map[string]HealthCheck{}}

	store, err := OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	c.Store = store
	c.closers = append(c.closers, func() { store.Close() })

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		c.Cache = cache.NewRedisCache(cfg.Redis, cfg.Inventory.VehiclesCacheTTL(), cfg.Inventory.AvailabilityCacheTTL())
		redisClient = c.Cache.Client()
		c.Checks["redis"] = c.Cache.Ping
		c.closers = append(c.closers, func() { c.Cache.Close() })
	}

	locker, closeLocker, err := OpenLocker(cfg, redisClient, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.closers = append(c.closers, closeLocker)

	opts := []inventory.Option{
		inventory.WithLogger(logger),
		inventory.WithMetrics(metrics.New(reg)),
		inventory.WithLockWait(cfg.Inventory.LockWait()),
		inventory.WithLockHold(cfg.Inventory.LockHold()),
	}

	if len(cfg.Kafka.Brokers) > 0 {
		c.Producer = kafka.NewProducer(cfg.Kafka.Brokers, logger)
		c.Checks["kafka"] = c.Producer.CheckConnection
		c.closers = append(c.closers, func() { c.Producer.Close() })
		opts = append(opts, inventory.WithProducer(c.Producer, cfg.Kafka.InventoryTopic))
	}

	// a nil *RedisCache must not end up inside a non-nil interface
	if c.Cache != nil {
		c.Vehicles = vehicles.NewVehicleService(store.Repositories().Vehicles, c.Cache, logger)
		opts = append(opts, inventory.WithCache(c.Cache))
	} else {
		c.Vehicles = vehicles.NewVehicleService(store.Repositories().Vehicles, nil, logger)
	}

	c.Inventory = inventory.NewService(store, c.Vehicles, locker, opts...)
	return c, nil
}

// Close releases resources in reverse order of acquisition.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func (c *Components) Deps(reg *prometheus.Registry, logger *zap.Logger) Deps {
	return Deps{
		Vehicles:  c.Vehicles,
		Inventory: c.Inventory,
		Registry:  reg,
		Logger:    logger,
		Checks:    c.Checks,
	}
}
