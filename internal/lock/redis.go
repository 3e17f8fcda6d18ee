package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still carries our token, so an
// expired lock taken over by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the TTL only while the key still carries our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker is a SET NX PX lock shared by every instance using the same Redis.
// The TTL bounds how long a crashed holder can block a vehicle; a live holder
// renews it every ttl/3 until it unlocks.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	logger *zap.Logger
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, retry: 25 * time.Millisecond, logger: logger}
}

func (l *RedisLocker) Lock(ctx context.Context, vehicleID int64) (Unlock, error) {
	key := redisLockKey(vehicleID)
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, errors.Wrapf(err, "acquire %s", key)
		}
		if ok {
			break
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go l.renew(key, token, stop, stopped)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-stopped
			// the caller's ctx may already be done, release must still happen
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.Warn("failed to release vehicle lock", zap.String("key", key), zap.Error(err))
			}
		})
	}, nil
}

func (l *RedisLocker) renew(key, token string, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	interval := l.ttl / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		n, err := renewScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
		cancel()
		switch {
		case err != nil:
			l.logger.Warn("failed to renew vehicle lock", zap.String("key", key), zap.Error(err))
		case n == 0:
			l.logger.Error("vehicle lock expired before release", zap.String("key", key))
			return
		}
	}
}

func redisLockKey(vehicleID int64) string {
	return fmt.Sprintf("lock:vehicle:%d", vehicleID)
}

var _ Locker = (*RedisLocker)(nil)
