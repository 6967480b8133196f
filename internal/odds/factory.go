package odds

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/paddock/internal/config"
	"github.com/yourusername/paddock/internal/httpclient"
)

// NewSource creates the odds source selected by configuration
func NewSource(cfg *config.Config, logger *logrus.Logger) (Source, error) {
	switch cfg.Odds.Source {
	case "file":
		return NewFileSource(cfg.Odds.Dir), nil
	case "http":
		clientCfg := httpclient.DefaultConfig()
		clientCfg.Timeout = cfg.OddsTimeout()
		if cfg.Odds.RateLimit > 0 {
			clientCfg.RateLimit = cfg.Odds.RateLimit
		}
		return NewHTTPSource(httpclient.New(clientCfg, logger), cfg.Odds.URL), nil
	case "redis":
		client := NewRedisClient(cfg.Odds.RedisAddr, cfg.Odds.RedisPassword, cfg.Odds.RedisDB)
		return NewRedisSource(client, cfg.Odds.KeyPrefix), nil
	case "stream":
		return NewStreamSource(cfg.Odds.StreamURL, cfg.StreamTimeout(), logger), nil
	default:
		return nil, fmt.Errorf("unknown odds source: %s", cfg.Odds.Source)
	}
}
