// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"joints/internal/observability"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

// Store drivers accepted in STORE_DRIVER.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port        string        `mapstructure:"APP_PORT"`
	Env         string        `mapstructure:"APP_ENV"`
	DataDir     string        `mapstructure:"DATA_DIR"`
	StoreDriver string        `mapstructure:"STORE_DRIVER"`
	DatabaseDSN string        `mapstructure:"DATABASE_DSN"`
	RedisURL    string        `mapstructure:"REDIS_URL"`
	LockTTL     time.Duration `mapstructure:"LOCK_TTL"`
	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	RabbitMQURL string        `mapstructure:"RABBITMQ_URL"`
	LogLevel    string        `mapstructure:"LOG_LEVEL"`
	PageSize    int           `mapstructure:"PAGE_SIZE"`
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}

// Load reads an optional .env file, an optional config.yml and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	setDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		observability.Log.Debug("config file not found; using environment variables and defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("STORE_DRIVER", DriverFile)
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("LOCK_TTL", "10s")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PAGE_SIZE", 9)
}

// Validate ensures that required configuration values are present.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("APP_PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.PageSize < 1 {
		return errors.New("PAGE_SIZE must be at least 1")
	}

	switch c.StoreDriver {
	case DriverFile, DriverMemory:
		if c.StoreDriver == DriverFile && c.DataDir == "" {
			return errors.New("DATA_DIR is required for the file store")
		}
	case DriverSQLite, DriverPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the %s store", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if !c.IsDevelopment() && c.JWTSecret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be changed from the default value outside development")
	}
	return nil
}
