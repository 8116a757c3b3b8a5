package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"nhl_sync/ingestion/internal/metrics"
	"nhl_sync/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the public NHL web API
const DefaultBaseURL = "https://api-web.nhle.com/v1"

// Endpoint names used in logs and metrics
const (
	EndpointSchedule  = "schedule"
	EndpointBoxscore  = "boxscore"
	EndpointStandings = "standings"
)

// APIError is a non-success HTTP response from the NHL web API
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error calling %s: HTTP %d", e.Endpoint, e.StatusCode)
}

// AsAPIError attempts to unwrap an error into an APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Options tunes the HTTP behaviour of the client
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// RateLimit caps concurrent in-flight requests
	RateLimit int
}

// Client is the NHL web API client
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter chan struct{} // Rate limiting semaphore
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a new NHL web API client
func NewClient(baseURL string, opts Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 1 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}

	rateLimiter := make(chan struct{}, opts.RateLimit)
	for i := 0; i < opts.RateLimit; i++ {
		rateLimiter <- struct{}{}
	}

	return &Client{
		baseURL:     baseURL,
		rateLimiter: rateLimiter,
		maxRetries:  opts.MaxRetries,
		retryDelay:  opts.RetryDelay,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// FetchSchedule returns the week schedule containing date, or an empty
// payload when the call fails
func (c *Client) FetchSchedule(ctx context.Context, date string) models.Payload {
	return c.fetch(ctx, EndpointSchedule, "schedule/"+date)
}

// FetchGameDetail returns the boxscore of a game, or an empty payload when
// the call fails
func (c *Client) FetchGameDetail(ctx context.Context, gameID int64) models.Payload {
	return c.fetch(ctx, EndpointBoxscore, fmt.Sprintf("gamecenter/%d/boxscore", gameID))
}

// FetchStandings returns the league standings as of date, or an empty
// payload when the call fails
func (c *Client) FetchStandings(ctx context.Context, date string) models.Payload {
	return c.fetch(ctx, EndpointStandings, "standings/"+date)
}

// fetch absorbs every failure into an empty payload. The failure is only
// visible in the warn log and the degraded-fetch metric.
func (c *Client) fetch(ctx context.Context, endpoint, path string) models.Payload {
	payload, err := c.GetPayload(ctx, endpoint, path)
	if err != nil {
		status := "No Status"
		if apiErr, ok := AsAPIError(err); ok {
			status = strconv.Itoa(apiErr.StatusCode)
		}
		log.Warn().
			Err(err).
			Str("endpoint", endpoint).
			Str("path", path).
			Str("status", status).
			Msg("Fetch failed, continuing with empty payload")
		metrics.RecordFetchDegraded(endpoint)
		return models.Payload{}
	}
	return payload
}

// GetPayload performs a GET and decodes the JSON object response
func (c *Client) GetPayload(ctx context.Context, endpoint, path string) (models.Payload, error) {
	body, err := c.get(ctx, endpoint, path)
	if err != nil {
		return nil, err
	}

	var payload models.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s response: %w", endpoint, err)
	}
	if payload == nil {
		payload = models.Payload{}
	}
	return payload, nil
}

// get performs a GET request with retry logic and rate limiting
func (c *Client) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, retry, err := c.do(ctx, endpoint, url, attempt)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// do runs a single attempt. The boolean reports whether the failure is
// worth retrying.
func (c *Client) do(ctx context.Context, endpoint, url string, attempt int) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	// Rate limiting: acquire semaphore
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case <-c.rateLimiter:
	}
	defer func() { c.rateLimiter <- struct{}{} }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	// Add headers
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "nhl-sync/1.0")

	log.Debug().
		Str("url", url).
		Str("method", req.Method).
		Int("attempt", attempt+1).
		Msg("Making API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPICall(endpoint, "network_error", time.Since(start).Seconds())
		// Retry on network errors
		return nil, true, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.RecordAPICall(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	// Handle different status codes
	switch resp.StatusCode {
	case http.StatusOK:
		log.Debug().
			Str("url", url).
			Int("status", resp.StatusCode).
			Int("size", len(body)).
			Msg("API request successful")
		return body, false, nil

	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		log.Warn().
			Str("url", url).
			Int("status", resp.StatusCode).
			Int("attempt", attempt+1).
			Msg("Received retryable error")
		return nil, true, &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}

	default:
		// Other errors - don't retry
		return nil, false, &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}
}
