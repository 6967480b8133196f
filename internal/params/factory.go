package params

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/paddock/internal/config"
	"github.com/yourusername/paddock/internal/httpclient"
	"github.com/yourusername/paddock/internal/repository"
)

// NewProvider creates the provider selected by configuration. repo is only
// required for the postgres source.
func NewProvider(cfg *config.Config, repo repository.RaceParameterRepository, logger *logrus.Logger) (Provider, error) {
	switch cfg.Parameters.Source {
	case "file":
		return NewFileProvider(cfg.Parameters.Dir), nil
	case "http":
		clientCfg := httpclient.DefaultConfig()
		clientCfg.Timeout = cfg.ParametersTimeout()
		clientCfg.MaxRetries = cfg.Parameters.RetryAttempts
		if cfg.Parameters.RateLimit > 0 {
			clientCfg.RateLimit = cfg.Parameters.RateLimit
		}
		ttl := time.Duration(cfg.Parameters.CacheTTL) * time.Second
		return NewHTTPProvider(httpclient.New(clientCfg, logger), cfg.Parameters.URL, ttl), nil
	case "postgres":
		if repo == nil {
			return nil, fmt.Errorf("postgres parameter source requires a database connection")
		}
		return NewRepositoryProvider(repo), nil
	default:
		return nil, fmt.Errorf("unknown parameter source: %s", cfg.Parameters.Source)
	}
}
