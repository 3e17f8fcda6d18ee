package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  host: localhost\n"))
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, LockBackendLocal, cfg.Inventory.LockBackend)
	assert.Equal(t, 2*time.Second, cfg.Inventory.LockWait())
	assert.Equal(t, 10*time.Second, cfg.Inventory.LockTTL())
	assert.Equal(t, 8*time.Second, cfg.Inventory.LockHold())
	assert.Equal(t, 5, cfg.Worker.AuditIntervalMinutes)
	assert.Equal(t, "inventory-events", cfg.Kafka.InventoryTopic)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "info", cfg.Telemetry.LogLevel)
}

func TestParse_Validation(t *testing.T) {
	testCases := []struct {
		name        string
		yaml        string
		expectedErr string
	}{
		{
			name:        "unknown driver",
			yaml:        "database:\n  driver: oracle\n",
			expectedErr: "unknown database driver",
		},
		{
			name:        "unknown lock backend",
			yaml:        "inventory:\n  lock_backend: etcd\n",
			expectedErr: "unknown lock backend",
		},
		{
			name:        "redis lock without redis",
			yaml:        "inventory:\n  lock_backend: redis\n",
			expectedErr: "requires redis.addr",
		},
		{
			name:        "zookeeper lock without servers",
			yaml:        "inventory:\n  lock_backend: zookeeper\n",
			expectedErr: "requires zookeeper.servers",
		},
		{
			name:        "negative lock wait",
			yaml:        "inventory:\n  lock_wait_ms: -1\n",
			expectedErr: "lock_wait_ms must be positive",
		},
		{
			name:        "negative audit interval",
			yaml:        "worker:\n  audit_interval_minutes: -3\n",
			expectedErr: "audit_interval_minutes must be positive",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tc.yaml))
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
database:
  driver: mysql
  host: db
  port: 3306
  user: bus
  password: secret
  name: booking
redis:
  addr: redis:6379
inventory:
  lock_backend: redis
  lock_wait_ms: 500
kafka:
  brokers: ["kafka:9092"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Inventory.LockWait())
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", Name: "bus", SSLMode: "disable"}
	assert.Equal(t, "host=localhost port=5432 user=u password=p dbname=bus sslmode=disable", d.DSN())
}
