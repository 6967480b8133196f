// Package config provides configuration management for paddock.
package config

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Simulation SimulationConfig `mapstructure:"simulation" validate:"required"`
	Allocation AllocationConfig `mapstructure:"allocation" validate:"required"`
	Parameters ParametersConfig `mapstructure:"parameters" validate:"required"`
	Odds       OddsConfig       `mapstructure:"odds" validate:"required"`
	Store      StoreConfig      `mapstructure:"store" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Publisher  PublisherConfig  `mapstructure:"publisher" validate:"required"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Health     HealthConfig     `mapstructure:"health"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// SimulationConfig represents Monte Carlo simulation settings
type SimulationConfig struct {
	Trials          int    `mapstructure:"trials" validate:"required,gt=0"`
	Workers         int    `mapstructure:"workers" validate:"gte=0"`
	Seed            int64  `mapstructure:"seed"`
	ChunkSize       int    `mapstructure:"chunk_size" validate:"gte=0"`
	TrifectaTopN    int    `mapstructure:"trifecta_top_n" validate:"gte=0"`
	ModelID         string `mapstructure:"model_id" validate:"required"`
	RaceConcurrency int    `mapstructure:"race_concurrency" validate:"required,gt=0"`
}

// AllocationConfig represents Kelly scoring and budget allocation settings
type AllocationConfig struct {
	EVThreshold float64  `mapstructure:"ev_threshold" validate:"gte=0"`
	MinBetUnit  float64  `mapstructure:"min_bet_unit" validate:"required,gt=0"`
	Markets     []string `mapstructure:"markets" validate:"required,min=1,markets"`
	DailyBudget float64  `mapstructure:"daily_budget" validate:"gte=0"`
}

// ParametersConfig selects where runner parameters are read from
type ParametersConfig struct {
	Source         string  `mapstructure:"source" validate:"required,source=file http postgres"`
	Dir            string  `mapstructure:"dir"`
	URL            string  `mapstructure:"url" validate:"omitempty,url"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	CacheTTL       int     `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
	RateLimit      float64 `mapstructure:"rate_limit" validate:"gte=0"`
	RetryAttempts  int     `mapstructure:"retry_attempts" validate:"gte=0"`
}

// OddsConfig selects where market odds are read from
type OddsConfig struct {
	Source         string  `mapstructure:"source" validate:"required,source=file http redis stream"`
	Dir            string  `mapstructure:"dir"`
	URL            string  `mapstructure:"url" validate:"omitempty,url"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	RateLimit      float64 `mapstructure:"rate_limit" validate:"gte=0"`
	RedisAddr      string  `mapstructure:"redis_addr"`
	RedisPassword  string  `mapstructure:"redis_password"`
	RedisDB        int     `mapstructure:"redis_db" validate:"gte=0"`
	KeyPrefix      string  `mapstructure:"key_prefix"`
	StreamURL      string  `mapstructure:"stream_url"`
	StreamTimeout  int     `mapstructure:"stream_timeout_seconds" validate:"gte=0"`
}

// StoreConfig selects the simulation record and plan store
type StoreConfig struct {
	Backend    string `mapstructure:"backend" validate:"required,source=file postgres sqlite"`
	Dir        string `mapstructure:"dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig represents PostgreSQL connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// PublisherConfig selects where finished plans are published
type PublisherConfig struct {
	Type    string   `mapstructure:"type" validate:"required,source=log file kafka"`
	Path    string   `mapstructure:"path"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// ScheduleConfig represents the daily run schedule
type ScheduleConfig struct {
	Cron     string `mapstructure:"cron"`
	Timezone string `mapstructure:"timezone"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// HealthConfig represents the health endpoints
type HealthConfig struct {
	Port     int `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	GRPCPort int `mapstructure:"grpc_port" validate:"omitempty,min=1,max=65535"`
}

// SecretsConfig controls the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// UsesPostgres reports whether any component reads or writes PostgreSQL
func (c *Config) UsesPostgres() bool {
	return c.Store.Backend == "postgres" || c.Parameters.Source == "postgres"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ParametersTimeout returns the parameter service request timeout
func (c *Config) ParametersTimeout() time.Duration {
	return secondsOr(c.Parameters.TimeoutSeconds, 10)
}

// OddsTimeout returns the odds service request timeout
func (c *Config) OddsTimeout() time.Duration {
	return secondsOr(c.Odds.TimeoutSeconds, 10)
}

// StreamTimeout returns how long the odds stream is read before giving up
func (c *Config) StreamTimeout() time.Duration {
	return secondsOr(c.Odds.StreamTimeout, 30)
}

// Location returns the schedule time zone, UTC when unset or unknown
func (c *Config) Location() *time.Location {
	if c.Schedule.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func secondsOr(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
