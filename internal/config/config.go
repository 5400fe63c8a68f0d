// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config is the full service configuration. Every field has a workable
// default so a bare `stackopt-server` starts locally without setup.
type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Host            string        `env:"HTTP_HOST" envDefault:"0.0.0.0"`
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"60s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Engine struct {
		// EvalWorkers caps concurrent oracle evaluations per genetic
		// generation; 0 uses one worker per CPU.
		EvalWorkers int `env:"ENGINE_EVAL_WORKERS" envDefault:"0"`
		// MaterialCatalog points at a YAML file merged over the built-in
		// material price tables; empty keeps the defaults.
		MaterialCatalog string `env:"ENGINE_MATERIAL_CATALOG"`
	}
	Metrics struct {
		Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
	}
}

// Load reads the environment into a Config and applies environment-sensitive
// defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Development runs prefer chatty, human-readable logs unless the
	// operator said otherwise.
	if cfg.Environment == "development" {
		if _, set := os.LookupEnv("LOG_LEVEL"); !set {
			cfg.Logging.Level = "debug"
		}
		if _, set := os.LookupEnv("LOG_FORMAT"); !set {
			cfg.Logging.Format = "console"
		}
	}

	if cfg.HTTP.Port < 1 || cfg.HTTP.Port > 65535 {
		return nil, fmt.Errorf("config: HTTP_PORT %d out of range", cfg.HTTP.Port)
	}
	if cfg.Engine.EvalWorkers < 0 {
		return nil, fmt.Errorf("config: ENGINE_EVAL_WORKERS must not be negative, got %d", cfg.Engine.EvalWorkers)
	}
	return cfg, nil
}

// Addr renders the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}
