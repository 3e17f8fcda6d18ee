package cache

import (
	"context"
	"testing"
	"time"

	"github.com/barals/TheBusBookingCompany/config"
	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "cache:vehicles", vehiclesKey())
	assert.Equal(t, "cache:vehicle:7", vehicleKey(7))
	assert.Equal(t, "cache:vehicle:7:available", availabilityKey(7))
}

func TestRedisCache_UnreachableServer(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "127.0.0.1:1"}, time.Minute, time.Minute)
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, ok, err := c.GetAvailability(ctx, 7)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.NotNil(t, c.Client())
}
