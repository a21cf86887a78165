package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config holds every runtime setting. Values come from defaults, then an
// optional TOML file, then environment variables.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Broker    BrokerConfig    `toml:"broker"`
	Inventory InventoryConfig `toml:"inventory"`
	Redis     RedisConfig     `toml:"redis"`
	Jobs      JobsConfig      `toml:"jobs"`
	Log       LogConfig       `toml:"log"`
}

type ServerConfig struct {
	Port            int           `toml:"port"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL         string `toml:"url"`
	MaxConns    int32  `toml:"max_conns"`
	AutoMigrate bool   `toml:"auto_migrate"`
}

type BrokerConfig struct {
	URL                  string        `toml:"url"`
	Exchange             string        `toml:"exchange"`
	ReconnectInitial     time.Duration `toml:"reconnect_initial"`
	ReconnectMultiplier  float64       `toml:"reconnect_multiplier"`
	ReconnectMax         time.Duration `toml:"reconnect_max"`
	ReconnectMaxAttempts int           `toml:"reconnect_max_attempts"`
}

type InventoryConfig struct {
	URL     string        `toml:"url"`
	Timeout time.Duration `toml:"timeout"`
}

// RedisConfig is optional; an empty Addr disables the product cache.
type RedisConfig struct {
	Addr       string        `toml:"addr"`
	Password   string        `toml:"password"`
	DB         int           `toml:"db"`
	ProductTTL time.Duration `toml:"product_ttl"`
}

type JobsConfig struct {
	CacheWarmupInterval time.Duration `toml:"cache_warmup_interval"`
	BrokerProbeInterval time.Duration `toml:"broker_probe_interval"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ShutdownTimeout: 15 * time.Second},
		Database: DatabaseConfig{
			MaxConns:    10,
			AutoMigrate: true,
		},
		Broker: BrokerConfig{
			Exchange:            "orders.events",
			ReconnectInitial:    time.Second,
			ReconnectMultiplier: 2,
			ReconnectMax:        30 * time.Second,
		},
		Inventory: InventoryConfig{Timeout: 5 * time.Second},
		Redis:     RedisConfig{ProductTTL: 10 * time.Minute},
		Jobs: JobsConfig{
			CacheWarmupInterval: 15 * time.Minute,
			BrokerProbeInterval: 30 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads path when it is non-empty, applies the environment and validates.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, errors.Wrapf(err, "load config file %s", path)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var firstErr error
	fail := func(key string, err error) {
		if firstErr == nil {
			firstErr = errors.Wrapf(err, "invalid %s", key)
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				fail(key, err)
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := parseDuration(v)
			if err != nil {
				fail(key, err)
				return
			}
			*dst = d
		}
	}

	integer("PORT", &c.Server.Port)
	duration("SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)
	str("DATABASE_URL", &c.Database.URL)
	if v, ok := lookup("DATABASE_MAX_CONNS"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			fail("DATABASE_MAX_CONNS", err)
		} else {
			c.Database.MaxConns = int32(n)
		}
	}

	if v, ok := lookup("DATABASE_AUTO_MIGRATE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fail("DATABASE_AUTO_MIGRATE", err)
		} else {
			c.Database.AutoMigrate = b
		}
	}

	str("BROKER_URL", &c.Broker.URL)
	str("BROKER_EXCHANGE", &c.Broker.Exchange)
	duration("BROKER_RECONNECT_INITIAL", &c.Broker.ReconnectInitial)
	duration("BROKER_RECONNECT_MAX", &c.Broker.ReconnectMax)
	integer("BROKER_RECONNECT_MAX_ATTEMPTS", &c.Broker.ReconnectMaxAttempts)
	if v, ok := lookup("BROKER_RECONNECT_MULTIPLIER"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fail("BROKER_RECONNECT_MULTIPLIER", err)
		} else {
			c.Broker.ReconnectMultiplier = f
		}
	}

	str("INVENTORY_SERVICE_URL", &c.Inventory.URL)
	duration("INVENTORY_TIMEOUT", &c.Inventory.Timeout)

	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	integer("REDIS_DB", &c.Redis.DB)
	duration("PRODUCT_CACHE_TTL", &c.Redis.ProductTTL)

	duration("CACHE_WARMUP_INTERVAL", &c.Jobs.CacheWarmupInterval)
	duration("BROKER_PROBE_INTERVAL", &c.Jobs.BrokerProbeInterval)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	return firstErr
}

// parseDuration accepts Go durations ("5s") and bare milliseconds ("5000").
func parseDuration(v string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}

func (c *Config) Validate() error {
	var problems []string
	if c.Database.URL == "" {
		problems = append(problems, "DATABASE_URL is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}
	if c.Broker.URL == "" {
		problems = append(problems, "BROKER_URL is required")
	}
	if c.Broker.Exchange == "" {
		problems = append(problems, "BROKER_EXCHANGE must not be empty")
	}
	if c.Broker.ReconnectInitial <= 0 || c.Broker.ReconnectMax < c.Broker.ReconnectInitial {
		problems = append(problems, "BROKER_RECONNECT_INITIAL must be positive and not above BROKER_RECONNECT_MAX")
	}
	if c.Broker.ReconnectMultiplier < 1 {
		problems = append(problems, "BROKER_RECONNECT_MULTIPLIER must be at least 1")
	}
	if c.Broker.ReconnectMaxAttempts < 0 {
		problems = append(problems, "BROKER_RECONNECT_MAX_ATTEMPTS must not be negative")
	}
	if c.Inventory.URL == "" {
		problems = append(problems, "INVENTORY_SERVICE_URL is required")
	}
	if c.Inventory.Timeout <= 0 {
		problems = append(problems, "INVENTORY_TIMEOUT must be positive")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, "LOG_FORMAT must be json or console")
	}
	if len(problems) > 0 {
		return errors.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
