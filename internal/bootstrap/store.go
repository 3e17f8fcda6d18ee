package bootstrap

import (
	"context"
	"fmt"

	"github.com/barals/TheBusBookingCompany/config"
	"github.com/barals/TheBusBookingCompany/internal/repository"
	"go.uber.org/zap"
)

type migrator interface {
	Migrate(ctx context.Context) error
}

// OpenStore connects to the configured database and applies the schema when auto_migrate is set.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (repository.Store, error) {
	var (
		store repository.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), nil
	case config.DriverMySQL:
		store, err = repository.OpenMySQLStore(ctx, repository.MySQLDSN(cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name))
	case config.DriverPostgres:
		store, err = repository.OpenPGStore(ctx, cfg.DSN())
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}

	if cfg.AutoMigrate {
		if m, ok := store.(migrator); ok {
			if err := m.Migrate(ctx); err != nil {
				store.Close()
				return nil, fmt.Errorf("migrate %s: %w", cfg.Driver, err)
			}
			logger.Info("database schema applied", zap.String("driver", cfg.Driver))
		}
	}
	return store, nil
}
