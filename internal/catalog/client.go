package catalog

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scenescout/scenescout-server/internal/ratelimit"
)

const (
	// Politeness: 1 page request per second per endpoint, burst of 2.
	defaultRPS   = 1.0
	defaultBurst = 2

	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 4
	defaultBackoffBase = 500 * time.Millisecond
	defaultBackoffCap  = 8 * time.Second
	defaultCooldown    = 5 * time.Second

	defaultPerPage = 25
	maxPerPage     = 100
)

// Config holds remote catalog client configuration.
type Config struct {
	// Endpoint is the catalog query URL. Required.
	Endpoint string
	// APIKey authenticates every request. The catalog is assumed
	// pre-provisioned; no session management is performed.
	APIKey string
	// Timeout is the per-attempt HTTP timeout.
	Timeout time.Duration
	// MaxAttempts bounds retries per page, including the first attempt.
	MaxAttempts int
	// BackoffBase and BackoffCap shape the exponential backoff for
	// server and network errors: base << attempt, capped.
	BackoffBase time.Duration
	BackoffCap  time.Duration
	// Cooldown is the pause after a 429 before retrying the same page.
	Cooldown time.Duration
	// RPS and Burst tune the inter-page politeness limiter.
	RPS   float64
	Burst int
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = defaultBackoffBase
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = defaultBackoffCap
	}
	if c.Cooldown <= 0 {
		c.Cooldown = defaultCooldown
	}
	if c.RPS <= 0 {
		c.RPS = defaultRPS
	}
	if c.Burst <= 0 {
		c.Burst = defaultBurst
	}
}

// Client is a rate-limited remote catalog client with bounded retry.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger

	mu       sync.RWMutex
	endpoint string
}

// New creates a new catalog client.
func New(cfg Config, logger *slog.Logger) *Client {
	cfg.applyDefaults()
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  ratelimit.New(cfg.RPS, cfg.Burst),
		logger:   logger,
		endpoint: cfg.Endpoint,
	}
}

// Endpoint returns the active catalog endpoint URL.
func (c *Client) Endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoint
}

// SetEndpoint rebinds the client to a new catalog endpoint. In-flight
// requests finish against the endpoint they started with.
func (c *Client) SetEndpoint(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = endpoint
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// Wire types for the catalog's query contract.

type pageRequest struct {
	EntityIDs []string `json:"entityIds,omitempty"`
	Dimension string   `json:"dimension,omitempty"`
	Modifier  string   `json:"modifier,omitempty"`
	Page      int      `json:"page"`
	PerPage   int      `json:"perPage"`
	Sort      string   `json:"sort,omitempty"`
	Direction string   `json:"direction,omitempty"`
}

type pageResponse struct {
	Count int     `json:"count"`
	Items []Scene `json:"items"`
}

// FetchPage fetches one page of scenes for the given query.
//
// Rate-limit responses pause for the configured cooldown and retry the same
// page; server and network errors retry with capped exponential backoff.
// Both stop after MaxAttempts and surface the error. A malformed payload is
// surfaced immediately as ErrInvalidResponse and never retried.
func (c *Client) FetchPage(ctx context.Context, query SceneQuery) (*Page, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PerPage <= 0 {
		query.PerPage = defaultPerPage
	}
	if query.PerPage > maxPerPage {
		query.PerPage = maxPerPage
	}
	if query.Modifier == "" {
		query.Modifier = ModifierIncludes
	}

	endpoint := c.Endpoint()

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.waitBeforeRetry(ctx, lastErr, attempt); err != nil {
				return nil, err
			}
		}

		// Politeness: minimum spacing between page requests per endpoint.
		if err := c.limiter.Wait(ctx, endpoint); err != nil {
			return nil, wrapError("fetchPage", endpoint, query.Page, err)
		}

		page, err := c.doFetch(ctx, endpoint, query)
		if err == nil {
			return page, nil
		}
		if !Retryable(err) {
			return nil, wrapError("fetchPage", endpoint, query.Page, err)
		}

		lastErr = err
		c.logger.Warn("catalog page fetch failed",
			"page", query.Page,
			"attempt", attempt+1,
			"max_attempts", c.cfg.MaxAttempts,
			"error", err,
		)
	}

	return nil, wrapError("fetchPage", endpoint, query.Page, lastErr)
}

// waitBeforeRetry sleeps according to the failure class of the previous
// attempt: a fixed cooldown after a 429, capped exponential backoff otherwise.
func (c *Client) waitBeforeRetry(ctx context.Context, lastErr error, attempt int) error {
	var delay time.Duration
	if errors.Is(lastErr, ErrRateLimited) {
		delay = c.cfg.Cooldown
	} else {
		delay = c.cfg.BackoffBase << (attempt - 1)
		if delay > c.cfg.BackoffCap {
			delay = c.cfg.BackoffCap
		}
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// doFetch performs a single page request attempt.
func (c *Client) doFetch(ctx context.Context, endpoint string, query SceneQuery) (*Page, error) {
	reqBody := pageRequest{
		EntityIDs: query.EntityIDs,
		Dimension: string(query.Dimension),
		Modifier:  string(query.Modifier),
		Page:      query.Page,
		PerPage:   query.PerPage,
		Sort:      string(query.Sort),
		Direction: string(query.Direction),
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("ApiKey", c.cfg.APIKey)
	req.Header.Set("User-Agent", "SceneScout/1.0")
	req.Header.Set("X-Request-Id", uuid.NewString())

	c.logger.Debug("catalog request",
		"dimension", query.Dimension,
		"page", query.Page,
		"per_page", query.PerPage,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrNetwork, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// Parsed below.
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	default:
		// 4xx other than 429 means our query violates the contract.
		return nil, fmt.Errorf("%w: status %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var parsed pageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if parsed.Count < 0 {
		return nil, fmt.Errorf("%w: negative count %d", ErrInvalidResponse, parsed.Count)
	}

	isLast := len(parsed.Items) == 0 ||
		len(parsed.Items) < query.PerPage ||
		query.Page*query.PerPage >= parsed.Count

	return &Page{
		Items:      parsed.Items,
		TotalCount: parsed.Count,
		PageNumber: query.Page,
		IsLast:     isLast,
	}, nil
}
