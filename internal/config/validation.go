package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/yourusername/paddock/internal/models"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Registration only fails for empty tags or nil functions
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("markets", validateMarkets)
	_ = v.RegisterValidation("source", validateSource)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateMarkets checks every configured market is a known market type
func validateMarkets(fl validator.FieldLevel) bool {
	markets, ok := fl.Field().Interface().([]string)
	if !ok || len(markets) == 0 {
		return false
	}
	for _, market := range markets {
		if _, err := models.ParseMarketType(market); err != nil {
			return false
		}
	}
	return true
}

// validateSource checks a backend name against the space separated list in the tag
func validateSource(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, allowed := range strings.Fields(fl.Param()) {
		if value == allowed {
			return true
		}
	}
	return false
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.UsesPostgres() {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database host, name and user are required when postgres is selected")
		}
		if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
	}
	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	switch cfg.Parameters.Source {
	case "file":
		if cfg.Parameters.Dir == "" {
			return fmt.Errorf("parameters.dir is required for the file parameter source")
		}
	case "http":
		if cfg.Parameters.URL == "" {
			return fmt.Errorf("parameters.url is required for the http parameter source")
		}
	}

	switch cfg.Odds.Source {
	case "file":
		if cfg.Odds.Dir == "" {
			return fmt.Errorf("odds.dir is required for the file odds source")
		}
	case "http":
		if cfg.Odds.URL == "" {
			return fmt.Errorf("odds.url is required for the http odds source")
		}
	case "redis":
		if cfg.Odds.RedisAddr == "" {
			return fmt.Errorf("odds.redis_addr is required for the redis odds source")
		}
	case "stream":
		if !strings.HasPrefix(cfg.Odds.StreamURL, "ws://") && !strings.HasPrefix(cfg.Odds.StreamURL, "wss://") {
			return fmt.Errorf("odds.stream_url must be a ws:// or wss:// URL for the stream odds source")
		}
	}

	switch cfg.Store.Backend {
	case "file":
		if cfg.Store.Dir == "" {
			return fmt.Errorf("store.dir is required for the file store")
		}
	case "sqlite":
		if cfg.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite store")
		}
	}

	switch cfg.Publisher.Type {
	case "file":
		if cfg.Publisher.Path == "" {
			return fmt.Errorf("publisher.path is required for the file publisher")
		}
	case "kafka":
		if len(cfg.Publisher.Brokers) == 0 || cfg.Publisher.Topic == "" {
			return fmt.Errorf("publisher.brokers and publisher.topic are required for the kafka publisher")
		}
	}

	if cfg.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
			return fmt.Errorf("invalid schedule.cron %q: %w", cfg.Schedule.Cron, err)
		}
	}

	if cfg.Secrets.Enabled && (cfg.Secrets.Region == "" || cfg.Secrets.SecretName == "") {
		return fmt.Errorf("secrets.region and secrets.secret_name are required when secrets are enabled")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructNamespace()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "markets":
			errMsg += fmt.Sprintf("- Field '%s' must list markets from: WIN, PLACE, EXACTA, TRIFECTA\n", field)
		case "source":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: %s, got '%v'\n", field, fieldError.Param(), value)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// MarketTypes returns the configured markets as typed values
func (c *AllocationConfig) MarketTypes() ([]models.MarketType, error) {
	markets := make([]models.MarketType, 0, len(c.Markets))
	for _, m := range c.Markets {
		market, err := models.ParseMarketType(m)
		if err != nil {
			return nil, err
		}
		markets = append(markets, market)
	}
	return markets, nil
}
