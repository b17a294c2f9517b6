// Package upstream performs outbound HTTP calls to geocoding and routing
// providers. Every call passes through one shared throttle gate and is
// timed, logged, and counted per provider.
package upstream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/store-locator/internal/domain"
	"github.com/couchcryptid/store-locator/internal/observability"
	"github.com/couchcryptid/store-locator/internal/throttle"
)

// maxBodyBytes bounds how much of a provider response is read.
const maxBodyBytes = 4 << 20

// Client is the shared outbound HTTP client.
type Client struct {
	httpClient *http.Client
	gate       *throttle.Gate
	userAgent  string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a client whose requests time out after timeout and
// identify themselves with contact in the User-Agent header.
func NewClient(timeout time.Duration, gate *throttle.Gate, contact string, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		gate:       gate,
		userAgent:  fmt.Sprintf("store-locator/1.0 (contact: %s)", contact),
		metrics:    metrics,
		logger:     logger,
	}
}

// Get waits for the throttle, issues a GET, and returns the response body.
// Non-2xx statuses and transport failures are returned as *domain.UpstreamError.
// query is recorded on the error for diagnostics.
func (c *Client) Get(ctx context.Context, provider, method, endpoint string, params url.Values, query string) ([]byte, error) {
	if c.gate != nil {
		waited, err := c.gate.Wait(ctx)
		c.metrics.ThrottleWait.Observe(waited.Seconds())
		if err != nil {
			c.record(provider, method, "error")
			return nil, domain.NewTransportError(provider, err, query)
		}
		if waited > 0 {
			c.logger.Debug("throttled outbound call", "provider", provider, "waited", waited)
		}
	}

	fullURL := endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "vi,en;q=0.8")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ProviderDuration.WithLabelValues(provider, method).Observe(time.Since(start).Seconds())
	if err != nil {
		c.record(provider, method, "error")
		c.logger.Warn("provider request failed", "provider", provider, "method", method, "query", query, "error", err)
		return nil, domain.NewTransportError(provider, err, query)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.record(provider, method, "error")
		c.logger.Warn("provider response read failed", "provider", provider, "method", method, "query", query, "error", err)
		return nil, domain.NewTransportError(provider, err, query)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.record(provider, method, "error")
		c.logger.Warn("provider returned error status", "provider", provider, "method", method, "query", query, "status", resp.StatusCode)
		return nil, domain.NewStatusError(provider, resp.StatusCode, body, query)
	}

	c.record(provider, method, "success")
	return body, nil
}

// RecordEmpty counts a successful call that yielded no usable result.
func (c *Client) RecordEmpty(provider, method string) {
	c.record(provider, method, "empty")
}

func (c *Client) record(provider, method, outcome string) {
	c.metrics.ProviderRequests.WithLabelValues(provider, method, outcome).Inc()
}
