package params

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/paddock/internal/httpclient"
	"github.com/yourusername/paddock/internal/models"
)

// HTTPProvider fetches parameters from the model service and caches each day
type HTTPProvider struct {
	client  *httpclient.Client
	baseURL string
	cache   *cache.Cache
	ttl     time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewHTTPProvider creates a provider for the model service at baseURL. A zero ttl
// disables caching.
func NewHTTPProvider(client *httpclient.Client, baseURL string, ttl time.Duration) *HTTPProvider {
	p := &HTTPProvider{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
	}
	if ttl > 0 {
		p.cache = cache.New(ttl, ttl*2)
	}
	return p
}

// Name returns the provider name
func (p *HTTPProvider) Name() string {
	return "http"
}

// RaceParameters returns the day's parameters, from cache when still fresh
func (p *HTTPProvider) RaceParameters(ctx context.Context, date time.Time) ([]models.RaceParameter, error) {
	key := date.Format(dateLayout)

	if p.cache != nil {
		if cached, found := p.cache.Get(key); found {
			if races, ok := cached.([]models.RaceParameter); ok {
				p.hits.Add(1)
				return races, nil
			}
		}
		p.misses.Add(1)
	}

	endpoint := fmt.Sprintf("%s/api/v1/parameters?date=%s", p.baseURL, url.QueryEscape(key))
	var doc Document
	if err := p.client.GetJSON(ctx, endpoint, &doc); err != nil {
		return nil, fmt.Errorf("failed to fetch parameters for %s: %w", key, err)
	}

	races, err := doc.races(date)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		p.cache.Set(key, races, p.ttl)
	}
	return races, nil
}

// Invalidate drops the cached parameters of a day
func (p *HTTPProvider) Invalidate(date time.Time) {
	if p.cache != nil {
		p.cache.Delete(date.Format(dateLayout))
	}
}

// Stats returns cache statistics
func (p *HTTPProvider) Stats() (hits, misses uint64, ratio float64) {
	hits = p.hits.Load()
	misses = p.misses.Load()
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}
