package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config contains all configuration parameters for the application.
type Config struct {
	Port                string `envconfig:"PORT" default:"8080"`
	DataDir             string `envconfig:"DATA_DIR" default:"./data"`
	LegacyStorePath     string `envconfig:"LEGACY_STORE_PATH" default:""`
	DefaultNetwork      string `envconfig:"DEFAULT_NETWORK" default:""`
	MonitorIntervalSec  int    `envconfig:"MONITOR_INTERVAL_SECONDS" default:"30"`
	TxPollIntervalSec   int    `envconfig:"TX_POLL_INTERVAL_SECONDS" default:"5"`
	TxConfirmTimeoutMin int    `envconfig:"TX_CONFIRM_TIMEOUT_MINUTES" default:"10"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	cfg = &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}
