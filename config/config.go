package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMemory   = "memory"

	LockBackendLocal     = "local"
	LockBackendRedis     = "redis"
	LockBackendZookeeper = "zookeeper"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Zookeeper ZookeeperConfig `yaml:"zookeeper"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Inventory InventoryConfig `yaml:"inventory"`
	Worker    WorkerConfig    `yaml:"worker"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	SwaggerDir     string   `yaml:"swagger_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Driver      string `yaml:"driver"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Name        string `yaml:"name"`
	SSLMode     string `yaml:"ssl_mode"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ZookeeperConfig struct {
	Servers               []string `yaml:"servers"`
	SessionTimeoutSeconds int      `yaml:"session_timeout_seconds"`
	Root                  string   `yaml:"root"`
}

func (z ZookeeperConfig) SessionTimeout() time.Duration {
	return time.Duration(z.SessionTimeoutSeconds) * time.Second
}

type KafkaConfig struct {
	Brokers        []string `yaml:"brokers"`
	InventoryTopic string   `yaml:"inventory_topic"`
	GroupID        string   `yaml:"group_id"`
}

type InventoryConfig struct {
	LockBackend                 string `yaml:"lock_backend"`
	LockWaitMillis              int    `yaml:"lock_wait_ms"`
	LockTTLSeconds              int    `yaml:"lock_ttl_seconds"`
	AvailabilityCacheTTLSeconds int    `yaml:"availability_cache_ttl_seconds"`
	VehiclesCacheTTLSeconds     int    `yaml:"vehicles_cache_ttl_seconds"`
}

func (i InventoryConfig) LockWait() time.Duration {
	return time.Duration(i.LockWaitMillis) * time.Millisecond
}

func (i InventoryConfig) LockTTL() time.Duration {
	return time.Duration(i.LockTTLSeconds) * time.Second
}

// LockHold leaves a fifth of the TTL as margin for commit and release.
func (i InventoryConfig) LockHold() time.Duration {
	ttl := i.LockTTL()
	return ttl - ttl/5
}

func (i InventoryConfig) AvailabilityCacheTTL() time.Duration {
	return time.Duration(i.AvailabilityCacheTTLSeconds) * time.Second
}

func (i InventoryConfig) VehiclesCacheTTL() time.Duration {
	return time.Duration(i.VehiclesCacheTTLSeconds) * time.Second
}

type WorkerConfig struct {
	AuditIntervalMinutes int `yaml:"audit_interval_minutes"`
}

type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPAuthHeader string `yaml:"otlp_auth_header"`
	LogLevel       string `yaml:"log_level"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":9090"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Zookeeper.SessionTimeoutSeconds == 0 {
		c.Zookeeper.SessionTimeoutSeconds = 10
	}
	if c.Zookeeper.Root == "" {
		c.Zookeeper.Root = "/busbooking/locks"
	}
	if c.Kafka.InventoryTopic == "" {
		c.Kafka.InventoryTopic = "inventory-events"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "inventory-worker"
	}
	if c.Inventory.LockBackend == "" {
		c.Inventory.LockBackend = LockBackendLocal
	}
	if c.Inventory.LockWaitMillis == 0 {
		c.Inventory.LockWaitMillis = 2000
	}
	if c.Inventory.LockTTLSeconds == 0 {
		c.Inventory.LockTTLSeconds = 10
	}
	if c.Worker.AuditIntervalMinutes == 0 {
		c.Worker.AuditIntervalMinutes = 5
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "bus-inventory"
	}
	if c.Telemetry.ServiceVersion == "" {
		c.Telemetry.ServiceVersion = "0.1.0"
	}
	if c.Telemetry.LogLevel == "" {
		c.Telemetry.LogLevel = "info"
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	switch c.Inventory.LockBackend {
	case LockBackendLocal:
	case LockBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("lock backend %q requires redis.addr", c.Inventory.LockBackend)
		}
	case LockBackendZookeeper:
		if len(c.Zookeeper.Servers) == 0 {
			return fmt.Errorf("lock backend %q requires zookeeper.servers", c.Inventory.LockBackend)
		}
	default:
		return fmt.Errorf("unknown lock backend %q", c.Inventory.LockBackend)
	}

	if c.Inventory.LockWaitMillis < 0 {
		return fmt.Errorf("inventory.lock_wait_ms must be positive, got %d", c.Inventory.LockWaitMillis)
	}
	if c.Inventory.LockTTLSeconds < 0 {
		return fmt.Errorf("inventory.lock_ttl_seconds must be positive, got %d", c.Inventory.LockTTLSeconds)
	}
	if c.Worker.AuditIntervalMinutes <= 0 {
		return fmt.Errorf("worker.audit_interval_minutes must be positive, got %d", c.Worker.AuditIntervalMinutes)
	}
	return nil
}
