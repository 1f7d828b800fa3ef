package oddsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"pickmarket/models"
)

// ErrFeedUnavailable marks a transient feed failure. Transport errors,
// non-2xx responses and malformed payloads all match it with errors.Is;
// callers skip the affected sport for the current pass and retry later.
var ErrFeedUnavailable = errors.New("odds feed unavailable")

const (
	// DefaultBaseURL is the odds API base URL
	DefaultBaseURL = "https://api.the-odds-api.com"

	defaultRateLimit = 5.0 // requests per second
	defaultBurst     = 3
)

// Client fetches league and odds snapshots from the odds API. It owns no
// business logic; callers treat any per-call failure as data being
// unavailable for now.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a new odds API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// FetchLeagues fetches the list of available sports/leagues.
func (c *Client) FetchLeagues(ctx context.Context) ([]models.League, error) {
	var sports []sportResponse
	if err := c.get(ctx, "/v4/sports", nil, &sports); err != nil {
		return nil, err
	}

	leagues := make([]models.League, 0, len(sports))
	for _, s := range sports {
		leagues = append(leagues, s.toModel())
	}
	return leagues, nil
}

// FetchOdds fetches current odds snapshots for all upcoming events of a sport.
func (c *Client) FetchOdds(ctx context.Context, sportKey string) ([]models.MatchOdds, error) {
	params := url.Values{}
	params.Set("regions", "us")
	params.Set("oddsFormat", "american")

	var events []eventResponse
	path := fmt.Sprintf("/v4/sports/%s/odds", url.PathEscape(sportKey))
	if err := c.get(ctx, path, params, &events); err != nil {
		return nil, err
	}

	odds := make([]models.MatchOdds, 0, len(events))
	for _, e := range events {
		odds = append(odds, e.toModel())
	}
	return odds, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrFeedUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: odds API returned status %d: %s", ErrFeedUnavailable, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrFeedUnavailable, err)
	}

	return nil
}
