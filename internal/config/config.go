package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the process configuration. Game balance lives in the catalog,
// not here.
type Config struct {
	Port        string `envconfig:"HEARTCLICK_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// CatalogPath points at a YAML catalog; empty uses the embedded default.
	CatalogPath string `envconfig:"CATALOG_PATH"`
	AssetDir    string `envconfig:"ASSET_DIR" default:"public"`

	SessionIdleTimeout   time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"30m"`
	SessionSweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"1m"`
	ShutdownTimeout      time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	CookieSecure         bool          `envconfig:"COOKIE_SECURE" default:"false"`
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.SessionIdleTimeout <= 0 {
		return nil, fmt.Errorf("load config: SESSION_IDLE_TIMEOUT must be positive, got %s", cfg.SessionIdleTimeout)
	}
	if cfg.SessionSweepInterval <= 0 {
		return nil, fmt.Errorf("load config: SESSION_SWEEP_INTERVAL must be positive, got %s", cfg.SessionSweepInterval)
	}
	return &cfg, nil
}
