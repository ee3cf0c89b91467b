package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Client fetches one category's worth of articles from the upstream news API,
// gated by the shared Limiter. Upstream throttling is retried with exponential
// backoff; everything else fails fast with a typed error.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	language string
	country  string

	limiter    *Limiter
	maxRetries int
	retryDelay time.Duration
	backoffCap time.Duration

	sleep  sleepFunc
	logger zerolog.Logger
}

type ClientOptions struct {
	BaseURL    string
	APIKey     string
	Language   string
	Country    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	BackoffCap time.Duration
}

func NewClient(opts ClientOptions, limiter *Limiter, logger zerolog.Logger) *Client {
	return &Client{
		http:       &http.Client{Timeout: opts.Timeout},
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		language:   opts.Language,
		country:    opts.Country,
		limiter:    limiter,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
		backoffCap: opts.BackoffCap,
		sleep:      sleepContext,
		logger:     logger,
	}
}

// Fetch performs a single category fetch. Each physical request passes the
// rate limiter first. A throttling response is retried up to maxRetries times
// with retryDelay*2^attempt backoff (capped), after which ErrRateLimitExceeded
// is returned and the caller must abort the pass. A 403 fails immediately
// with ErrAccessForbidden. Any other failure wraps ErrTransientFetch.
func (c *Client) Fetch(ctx context.Context, category string) ([]RawArticle, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		snap := c.limiter.Snapshot()
		c.logger.Debug().
			Str("category", category).
			Int("requestCount", snap.RequestCount+1).
			Int("maxPerHour", snap.MaxPerHour).
			Msg("making api request")

		results, retryable, err := c.fetchOnce(ctx, category)
		if err == nil {
			c.limiter.Record()
			return results, nil
		}
		if !retryable {
			return nil, err
		}

		if attempt >= c.maxRetries {
			c.logger.Error().
				Str("category", category).
				Int("attempts", attempt+1).
				Msg("max retries reached for rate limit")
			return nil, ErrRateLimitExceeded
		}

		delay := backoff(c.retryDelay, attempt, c.backoffCap)
		c.logger.Warn().
			Str("category", category).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("rate limit hit, backing off before retry")

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// fetchOnce performs one HTTP round trip. retryable is true only for an
// upstream throttling response.
func (c *Client) fetchOnce(ctx context.Context, category string) (results []RawArticle, retryable bool, err error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, false, fmt.Errorf("%w: parse base url: %v", ErrTransientFetch, err)
	}
	q := u.Query()
	q.Set("apikey", c.apiKey)
	q.Set("category", category)
	if c.language != "" {
		q.Set("language", c.language)
	}
	if c.country != "" {
		q.Set("country", c.country)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrTransientFetch, err)
	}
	req.Header.Set("User-Agent", "newsflow/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrTransientFetch, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, ErrRateLimitExceeded
	case resp.StatusCode == http.StatusForbidden:
		return nil, false, ErrAccessForbidden
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("%w: unexpected status %d", ErrTransientFetch, resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("%w: decode response: %v", ErrTransientFetch, err)
	}

	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining != "" {
		c.logger.Debug().
			Str("category", category).
			Str("remaining", remaining).
			Msg("api request successful")
	}

	return out.Results, false, nil
}

func backoff(base time.Duration, attempt int, max time.Duration) time.Duration {
	d := base << uint(attempt)
	if d > max || d <= 0 {
		return max
	}
	return d
}
