package odds

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yourusername/paddock/internal/httpclient"
	"github.com/yourusername/paddock/internal/models"
)

// HTTPSource fetches odds from the odds service
type HTTPSource struct {
	client  *httpclient.Client
	baseURL string
}

// NewHTTPSource creates a source for the odds service at baseURL
func NewHTTPSource(client *httpclient.Client, baseURL string) *HTTPSource {
	return &HTTPSource{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Name returns the source name
func (s *HTTPSource) Name() string {
	return "http"
}

// Odds fetches GET <base>/api/v1/odds?date=YYYY-MM-DD
func (s *HTTPSource) Odds(ctx context.Context, date time.Time) (map[string]models.OddsBook, error) {
	key := date.Format(dateLayout)
	endpoint := fmt.Sprintf("%s/api/v1/odds?date=%s", s.baseURL, url.QueryEscape(key))

	var doc Document
	if err := s.client.GetJSON(ctx, endpoint, &doc); err != nil {
		return nil, fmt.Errorf("failed to fetch odds for %s: %w", key, err)
	}
	return doc.Books(date)
}
