package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix         = "PADDOCK"
	defaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error; defaults and environment variables still apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "paddock")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("simulation.trials", 10000)
	v.SetDefault("simulation.workers", 0)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.chunk_size", 1024)
	v.SetDefault("simulation.trifecta_top_n", 20)
	v.SetDefault("simulation.model_id", "default")
	v.SetDefault("simulation.race_concurrency", 4)

	v.SetDefault("allocation.ev_threshold", 1.0)
	v.SetDefault("allocation.min_bet_unit", 100)
	v.SetDefault("allocation.markets", []string{"WIN"})
	v.SetDefault("allocation.daily_budget", 0)

	v.SetDefault("parameters.source", "file")
	v.SetDefault("parameters.dir", "data/parameters")
	v.SetDefault("parameters.timeout_seconds", 10)
	v.SetDefault("parameters.cache_ttl_seconds", 300)
	v.SetDefault("parameters.rate_limit", 5)
	v.SetDefault("parameters.retry_attempts", 3)

	v.SetDefault("odds.source", "file")
	v.SetDefault("odds.dir", "data/odds")
	v.SetDefault("odds.timeout_seconds", 10)
	v.SetDefault("odds.rate_limit", 5)
	v.SetDefault("odds.key_prefix", "odds")
	v.SetDefault("odds.stream_timeout_seconds", 30)

	v.SetDefault("store.backend", "file")
	v.SetDefault("store.dir", "data/records")
	v.SetDefault("store.sqlite_path", "data/paddock.db")

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("publisher.type", "log")
	v.SetDefault("publisher.topic", "paddock.allocation-plans")

	v.SetDefault("schedule.cron", "0 9 * * *")
	v.SetDefault("schedule.timezone", "UTC")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("health.port", 8080)
	v.SetDefault("health.grpc_port", 9090)
}
