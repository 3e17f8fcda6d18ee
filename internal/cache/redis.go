package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/barals/TheBusBookingCompany/config"
	"github.com/barals/TheBusBookingCompany/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client          *redis.Client
	vehiclesTTL     time.Duration
	availabilityTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, vehiclesTTL, availabilityTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		vehiclesTTL, availabilityTTL,
	)
}

func NewRedisCacheWithClient(client *redis.Client, vehiclesTTL, availabilityTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, vehiclesTTL: vehiclesTTL, availabilityTTL: availabilityTTL}
}

// Client exposes the connection so the redis locker can share it.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	data, err := c.client.Get(ctx, vehiclesKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var vehicles []domain.Vehicle
	if err := json.Unmarshal(data, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (c *RedisCache) SetVehicles(ctx context.Context, vehicles []domain.Vehicle) error {
	payload, err := json.Marshal(vehicles)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, vehiclesKey(), payload, c.vehiclesTTL).Err()
}

// GetVehicle returns nil, nil on a miss.
func (c *RedisCache) GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error) {
	data, err := c.client.Get(ctx, vehicleKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var v domain.Vehicle
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *RedisCache) SetVehicle(ctx context.Context, vehicle *domain.Vehicle) error {
	payload, err := json.Marshal(vehicle)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, vehicleKey(vehicle.ID), payload, c.vehiclesTTL).Err()
}

func (c *RedisCache) InvalidateVehicles(ctx context.Context) error {
	return c.client.Del(ctx, vehiclesKey()).Err()
}

// GetAvailability reports ok=false on a miss.
func (c *RedisCache) GetAvailability(ctx context.Context, vehicleID int64) (int, bool, error) {
	seats, err := c.client.Get(ctx, availabilityKey(vehicleID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return seats, true, nil
}

// SetAvailability is only called with a committed value while the vehicle lock is held.
func (c *RedisCache) SetAvailability(ctx context.Context, vehicleID int64, seats int) error {
	return c.client.Set(ctx, availabilityKey(vehicleID), seats, c.availabilityTTL).Err()
}

func (c *RedisCache) InvalidateAvailability(ctx context.Context, vehicleID int64) error {
	return c.client.Del(ctx, availabilityKey(vehicleID)).Err()
}

func vehiclesKey() string {
	return "cache:vehicles"
}

func vehicleKey(id int64) string {
	return fmt.Sprintf("cache:vehicle:%d", id)
}

func availabilityKey(vehicleID int64) string {
	return fmt.Sprintf("cache:vehicle:%d:available", vehicleID)
}
