package upstream

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/home-scanner/internal/config"
	"github.com/home-scanner/internal/errors"
	"github.com/home-scanner/internal/logging"
	"golang.org/x/time/rate"
)

// ProviderClient is the shared HTTP client for the listing provider. It
// applies auth headers, a per-call timeout, and a token-bucket rate limit so
// concurrent aggregations cannot blow the provider quota.
type ProviderClient struct {
	apiKey  string
	baseURL string
	host    string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
}

// NewProviderClient creates a provider client from configuration
func NewProviderClient(cfg *config.UpstreamConfig) *ProviderClient {
	return &ProviderClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		host:    cfg.Host,
		timeout: cfg.RequestTimeout,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// HasCredentials reports whether an API key is configured. Without one the
// aggregator skips upstream entirely and synthesizes.
func (c *ProviderClient) HasCredentials() bool {
	return c.apiKey != ""
}

// Get performs one rate-limited GET against the provider and maps the HTTP
// outcome onto the error taxonomy:
//   - network error / timeout / 5xx: transient, next strategy may be tried
//   - 429: quota exceeded, short-circuit to synthesis
//   - other 4xx: hard miss, stop the strategy chain
func (c *ProviderClient) Get(ctx context.Context, source, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.NewUpstreamUnavailableError(source, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.NewUpstreamUnavailableError(source, err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.NewUpstreamUnavailableError(source, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		logging.FromContext(ctx).WithField("source", source).Warn("Upstream quota exceeded")
		return nil, errors.NewQuotaExceededError(source)
	case resp.StatusCode >= 500:
		return nil, errors.NewUpstreamUnavailableError(source, nil)
	case resp.StatusCode >= 400:
		return nil, errors.NewHardMissError(source, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, errors.NewUpstreamUnavailableError(source, err)
	}

	return body, nil
}
