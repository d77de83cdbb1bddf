package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

var drivers = []string{"sqlite", "postgres", "mysql", "mongo"}

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Bootstrap BootstrapConfig
	CORS      CORSConfig
}

type DatabaseConfig struct {
	Driver       string `env:"DB_DRIVER,         default=sqlite"`
	DSN          string `env:"DB_DSN"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS, default=25"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=todo_service"`
}

// RedisConfig is optional; an empty Addr disables Idempotency-Key handling.
type RedisConfig struct {
	Addr           string        `env:"REDIS_ADDR"`
	DB             int           `env:"REDIS_DB,        default=0"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL, default=24h"`
}

type BootstrapConfig struct {
	Username string `env:"DEFAULT_USERNAME, default=admin"`
	Password string `env:"DEFAULT_PASSWORD, default=admin123"`
}

type CORSConfig struct {
	AllowOrigins []string `env:"CORS_ALLOW_ORIGINS, default=*"`
}

// Development reports whether the service runs with ENV=development.
func (c *Config) Development() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return Process(ctx, envconfig.OsLookuper())
}

// Process reads configuration through the given lookuper and validates it.
func Process(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	for _, d := range drivers {
		if c.Database.Driver == d {
			return nil
		}
	}
	return fmt.Errorf("DB_DRIVER %q is not one of %s", c.Database.Driver, strings.Join(drivers, ", "))
}
