// Package config loads the trading service's runtime configuration
// entirely from environment variables (no YAML file — there is no
// per-market tuning surface here, unlike a strategy bot).
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the complete set of values the server needs to start.
type Config struct {
	DatabaseURL string `mapstructure:"database_url"`
	Addr        string `mapstructure:"addr"`
	LogLevel    string `mapstructure:"log_level"`
}

// Load reads configuration from the environment (and whatever .env
// loaded into it earlier), applying defaults for everything but the
// database connection string, which is taken from CLOB_DATABASE_URL or,
// when that is unset, from DATABASE_URL.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CLOB")
	v.AutomaticEnv()
	_ = v.BindEnv("database_url", "CLOB_DATABASE_URL", "DATABASE_URL")

	v.SetDefault("addr", ":8080")
	v.SetDefault("log_level", "info")

	var cfg Config
	cfg.DatabaseURL = v.GetString("database_url")
	cfg.Addr = v.GetString("addr")
	cfg.LogLevel = v.GetString("log_level")

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("CLOB_DATABASE_URL or DATABASE_URL is required")
	}
	return &cfg, nil
}
