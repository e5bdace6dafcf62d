package ecfr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vitran/ecfr-analyzer/internal/metrics"
)

// Remote API paths. Structure and content are parameterized by
// (date, title number).
const (
	agenciesEndpoint  = "/api/admin/v1/agencies.json"
	titlesEndpoint    = "/api/versioner/v1/titles.json"
	structureEndpoint = "/api/versioner/v1/structure/%s/title-%d.json"
	contentEndpoint   = "/api/versioner/v1/full/%s/title-%d.xml"
)

// ClientConfig captures the knobs for the remote API client.
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// HTTPClient implements Client over net/http with bounded retries and
// a shared request limiter.
type HTTPClient struct {
	http    *http.Client
	cfg     ClientConfig
	retry   *RetryPolicy
	limiter Limiter
	logger  *zap.Logger
}

// NewHTTPClient constructs an HTTPClient. The limiter is shared with
// every other caller of the remote API in this process.
func NewHTTPClient(cfg ClientConfig, retry *RetryPolicy, limiter Limiter, logger *zap.Logger) *HTTPClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.ecfr.gov"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "eCFR-Analyzer/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPClient{
		http:    &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		retry:   retry,
		limiter: limiter,
		logger:  logger,
	}
}

// FetchAgencies retrieves the agency catalog keyed by slug. A payload
// that cannot be decoded yields ErrMalformedCatalog so callers can
// degrade to an empty mapping.
func (c *HTTPClient) FetchAgencies(ctx context.Context) (map[string]Agency, error) {
	body, err := c.get(ctx, "agencies", c.cfg.BaseURL+agenciesEndpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch agencies: %w", err)
	}
	var resp agenciesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode agencies: %w: %w", ErrMalformedCatalog, err)
	}
	agencies := make(map[string]Agency, len(resp.Agencies))
	for _, a := range resp.Agencies {
		agencies[a.Slug] = a
	}
	c.logger.Info("fetched agency catalog", zap.Int("agencies", len(agencies)))
	return agencies, nil
}

// FetchTitleCatalog retrieves the title catalog in API order. Stubs
// carry catalog fields only; enrichment fields stay unset.
func (c *HTTPClient) FetchTitleCatalog(ctx context.Context) ([]Title, error) {
	body, err := c.get(ctx, "titles", c.cfg.BaseURL+titlesEndpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch title catalog: %w", err)
	}
	var resp titlesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode title catalog: %w: %w", ErrMalformedCatalog, err)
	}
	c.logger.Info("fetched title catalog", zap.Int("titles", len(resp.Titles)))
	return resp.Titles, nil
}

// FetchStructure retrieves the raw structure payload for one title at
// the given date.
func (c *HTTPClient) FetchStructure(ctx context.Context, date string, number int) (string, error) {
	url := c.cfg.BaseURL + fmt.Sprintf(structureEndpoint, date, number)
	body, err := c.get(ctx, "structure", url)
	if err != nil {
		return "", fmt.Errorf("fetch structure for title %d: %w", number, err)
	}
	return string(body), nil
}

// FetchContent retrieves the full markup payload for one title at the
// given date.
func (c *HTTPClient) FetchContent(ctx context.Context, date string, number int) (string, error) {
	url := c.cfg.BaseURL + fmt.Sprintf(contentEndpoint, date, number)
	body, err := c.get(ctx, "content", url)
	if err != nil {
		return "", fmt.Errorf("fetch content for title %d: %w", number, err)
	}
	return string(body), nil
}

// get performs one rate-limited GET with the retry policy applied.
// Server errors and transport failures are retried with backoff;
// client errors return immediately.
func (c *HTTPClient) get(ctx context.Context, endpoint, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts(); attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("limiter wait: %w", err)
		}

		body, err := c.doGet(ctx, endpoint, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !c.retry.ShouldRetry(err, attempt) {
			return nil, err
		}
		metrics.ObserveAPIRetry(endpoint)
		c.logger.Debug("retrying request",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-time.After(c.retry.Backoff(attempt)):
		case <-ctx.Done():
			return nil, fmt.Errorf("backoff interrupted: %w", ctx.Err())
		}
	}
	return nil, lastErr
}

func (c *HTTPClient) doGet(ctx context.Context, endpoint, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveAPIRequest(endpoint, 0)
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("close response body", zap.Error(cerr))
		}
	}()

	metrics.ObserveAPIRequest(endpoint, resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", url, err)
	}
	return body, nil
}
