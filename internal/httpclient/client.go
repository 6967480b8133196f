// Package httpclient provides the rate limited, retrying HTTP client used to reach
// the model and odds services.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/paddock/internal/models"
)

// ErrCircuitOpen is returned while the circuit breaker rejects requests
var ErrCircuitOpen = errors.New("circuit breaker open")

// Config holds configuration for HTTP clients
type Config struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RateLimit         float64 // requests per second
	CircuitBreakerMax int     // consecutive failures before the circuit opens
	CircuitCooldown   time.Duration
}

// DefaultConfig returns recommended defaults
func DefaultConfig() Config {
	return Config{
		Timeout:           10 * time.Second,
		MaxRetries:        3,
		RetryWaitMin:      100 * time.Millisecond,
		RetryWaitMax:      5 * time.Second,
		RateLimit:         5.0,
		CircuitBreakerMax: 5,
		CircuitCooldown:   30 * time.Second,
	}
}

// StatusError reports a non-2xx response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Is maps 404 to models.ErrNotFound
func (e *StatusError) Is(target error) bool {
	return target == models.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client wraps retryablehttp.Client with rate limiting and a circuit breaker
type Client struct {
	client  *retryablehttp.Client
	limiter *rate.Limiter
	logger  *logrus.Entry
	now     func() time.Time

	mu                sync.Mutex
	circuitBreakerMax int
	cooldown          time.Duration
	consecutiveErrors int
	openedAt          time.Time
	lastError         error
}

// New creates a rate limited client. A nil logger discards retry logging.
func New(cfg Config, logger *logrus.Logger) *Client {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaults.RateLimit
	}
	if cfg.CircuitBreakerMax <= 0 {
		cfg.CircuitBreakerMax = defaults.CircuitBreakerMax
	}
	if cfg.CircuitCooldown <= 0 {
		cfg.CircuitCooldown = defaults.CircuitCooldown
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = defaults.RetryWaitMin
	}
	if cfg.RetryWaitMax <= 0 {
		cfg.RetryWaitMax = defaults.RetryWaitMax
	}

	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	entry := logger.WithField("component", "httpclient")

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = retryPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil
	retryClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			entry.WithFields(logrus.Fields{
				"url":     req.URL.String(),
				"attempt": attempt,
			}).Debug("Retrying request")
		}
	}

	return &Client{
		client:            retryClient,
		limiter:           rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		logger:            entry,
		now:               time.Now,
		circuitBreakerMax: cfg.CircuitBreakerMax,
		cooldown:          cfg.CircuitCooldown,
	}
}

// Do executes a request with rate limiting and the circuit breaker
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.allow(); err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	rreq, err := retryablehttp.FromRequest(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(rreq)
	if err != nil || resp.StatusCode >= http.StatusInternalServerError {
		if err == nil {
			err = &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
		}
		c.recordFailure(err)
		return resp, err
	}

	c.recordSuccess()
	return resp, nil
}

// Get executes a GET request
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.Do(ctx, req)
}

// GetJSON fetches url and decodes a 2xx JSON body into out
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	resp, err := c.Get(ctx, url)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

// Close releases idle connections
func (c *Client) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

func (c *Client) allow() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openedAt.IsZero() {
		return nil
	}
	// Half open after the cooldown: let one request probe the service
	if c.now().Sub(c.openedAt) >= c.cooldown {
		c.openedAt = time.Time{}
		c.consecutiveErrors = c.circuitBreakerMax - 1
		return nil
	}
	return fmt.Errorf("%w: %v", ErrCircuitOpen, c.lastError)
}

func (c *Client) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveErrors++
	c.lastError = err
	if c.consecutiveErrors >= c.circuitBreakerMax && c.openedAt.IsZero() {
		c.openedAt = c.now()
		c.logger.WithError(err).WithField("consecutive_errors", c.consecutiveErrors).
			Warn("Circuit breaker opened")
	}
}

func (c *Client) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveErrors = 0
	c.openedAt = time.Time{}
	c.lastError = nil
}

// retryPolicy retries network errors, 429 and 5xx gateway errors
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}
