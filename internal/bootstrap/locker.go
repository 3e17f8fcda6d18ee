package bootstrap

import (
	"fmt"

	"github.com/barals/TheBusBookingCompany/config"
	"github.com/barals/TheBusBookingCompany/internal/lock"
	"github.com/go-zookeeper/zk"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// OpenLocker builds the vehicle lock for the configured backend. The local
// backend only serializes requests inside one process; run a single replica with it.
func OpenLocker(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) (lock.Locker, func(), error) {
	switch cfg.Inventory.LockBackend {
	case config.LockBackendLocal:
		return lock.NewLocalLocker(), func() {}, nil
	case config.LockBackendRedis:
		if redisClient == nil {
			return nil, nil, fmt.Errorf("lock backend %q needs a redis client", cfg.Inventory.LockBackend)
		}
		return lock.NewRedisLocker(redisClient, cfg.Inventory.LockTTL(), logger), func() {}, nil
	case config.LockBackendZookeeper:
		conn, events, err := zk.Connect(cfg.Zookeeper.Servers, cfg.Zookeeper.SessionTimeout(), zk.WithLogger(zkLogger{logger.Sugar()}))
		if err != nil {
			return nil, nil, fmt.Errorf("connect zookeeper: %w", err)
		}
		go func() {
			for ev := range events {
				if ev.Type == zk.EventSession {
					logger.Debug("zookeeper session", zap.String("state", ev.State.String()))
				}
			}
		}()
		return lock.NewZookeeperLocker(conn, cfg.Zookeeper.Root, logger), conn.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown lock backend %q", cfg.Inventory.LockBackend)
	}
}

type zkLogger struct {
	sugar *zap.SugaredLogger
}

func (l zkLogger) Printf(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}
