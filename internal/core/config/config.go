package config

import (
	"fmt"
	"time"

	"depot/internal/credentials"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
)

const EnvProduction = "production"

// Config is the process configuration read from the environment. Connection credentials
// are not part of it; they live in the credentials store.
type Config struct {
	Host           string        `envconfig:"APP_HOST" default:":8080"`
	Env            string        `envconfig:"APP_ENV" default:"development"`
	LogLevel       string        `envconfig:"DEPOT_LOG_LEVEL"`
	CredentialsDir string        `envconfig:"DEPOT_CREDENTIALS_DIR"`
	Operator       string        `envconfig:"DEPOT_OPERATOR" default:"admin"`
	LogTimezone    string        `envconfig:"DEPOT_LOG_TIMEZONE" default:"UTC"`
	LogTimeLayout  string        `envconfig:"DEPOT_LOG_TIME_LAYOUT" default:"2006-01-02 15:04:05"`
	WriteLimit     int           `envconfig:"DEPOT_WRITE_LIMIT" default:"60"`
	WriteWindow    time.Duration `envconfig:"DEPOT_WRITE_WINDOW" default:"1m"`
	RequestTimeout time.Duration `envconfig:"DEPOT_REQUEST_TIMEOUT" default:"10s"`
	MigrationsDir  string        `envconfig:"DEPOT_MIGRATIONS_DIR" default:"./migrations"`
	AutoMigrate    bool          `envconfig:"DEPOT_AUTO_MIGRATE" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.CredentialsDir == "" {
		cfg.CredentialsDir = credentials.DefaultDir()
	}
	if cfg.LogLevel != "" {
		if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
			return nil, fmt.Errorf("DEPOT_LOG_LEVEL: %w", err)
		}
	}
	if cfg.WriteLimit <= 0 {
		return nil, fmt.Errorf("DEPOT_WRITE_LIMIT must be positive, got %d", cfg.WriteLimit)
	}
	if cfg.WriteWindow <= 0 {
		return nil, fmt.Errorf("DEPOT_WRITE_WINDOW must be positive, got %s", cfg.WriteWindow)
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}
