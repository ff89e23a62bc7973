// Package oddsapi implements a client for The Odds API v4: live odds,
// the historical odds archive and final scores, with retry, rate
// limiting and quota tracking.
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/sharpline/internal/metrics"
)

// quotaWarnThreshold triggers a warning when the API reports fewer
// remaining requests than this.
const quotaWarnThreshold = 50

// ClientConfig holds configuration for the odds API client.
type ClientConfig struct {
	Host         string
	APIKey       string
	Regions      []string
	Markets      []string
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	RateLimit    float64 // requests per second
}

// DefaultClientConfig returns recommended defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Host:         "https://api.the-odds-api.com",
		Timeout:      10 * time.Second,
		MaxRetries:   3,
		RetryWaitMin: 2 * time.Second,
		RetryWaitMax: 10 * time.Second,
		RateLimit:    1.0,
	}
}

// Client wraps retryablehttp with rate limiting and the API's retry
// semantics: 429 and transient server errors retry with backoff, 401 is
// fatal and never retried.
type Client struct {
	client  *retryablehttp.Client
	limiter *rate.Limiter
	host    string
	apiKey  string
	regions []string
	markets []string
	logger  *logrus.Logger
}

// NewClient creates a new odds API client.
func NewClient(cfg ClientConfig, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.Host == "" {
		cfg.Host = DefaultClientConfig().Host
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultClientConfig().RateLimit
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = retryPolicy()
	retryClient.Logger = nil

	return &Client{
		client:  retryClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		host:    strings.TrimRight(cfg.Host, "/"),
		apiKey:  cfg.APIKey,
		regions: cfg.Regions,
		markets: cfg.Markets,
		logger:  logger,
	}
}

// GetUpcomingOdds fetches live and upcoming odds for one sport.
func (c *Client) GetUpcomingOdds(ctx context.Context, sportKey string) ([]EventOdds, error) {
	params := url.Values{}
	params.Set("regions", strings.Join(c.regions, ","))
	params.Set("markets", strings.Join(c.markets, ","))
	params.Set("oddsFormat", "decimal")

	var events []EventOdds
	endpoint := fmt.Sprintf("/v4/sports/%s/odds", sportKey)
	if err := c.get(ctx, endpoint, params, &events); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"sport":  sportKey,
		"events": len(events),
	}).Info("Fetched upcoming odds")
	return events, nil
}

// GetHistoricalOdds fetches the archived odds snapshot nearest the
// given moment. The API returns the timestamp it actually resolved,
// which can differ from the requested one.
func (c *Client) GetHistoricalOdds(ctx context.Context, sportKey string, at time.Time) (*HistoricalOdds, error) {
	params := url.Values{}
	params.Set("regions", strings.Join(c.regions, ","))
	params.Set("markets", strings.Join(c.markets, ","))
	params.Set("oddsFormat", "decimal")
	params.Set("date", at.UTC().Format(time.RFC3339))

	var snap HistoricalOdds
	endpoint := fmt.Sprintf("/v4/sports/%s/odds-history", sportKey)
	if err := c.get(ctx, endpoint, params, &snap); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"sport":     sportKey,
		"requested": at.UTC().Format(time.RFC3339),
		"resolved":  snap.Timestamp.UTC().Format(time.RFC3339),
		"events":    len(snap.Data),
	}).Info("Fetched historical odds")
	return &snap, nil
}

// GetScores fetches results for recently completed events. The API
// supports at most 3 days of history on this endpoint.
func (c *Client) GetScores(ctx context.Context, sportKey string, daysFrom int) ([]ScoreResult, error) {
	params := url.Values{}
	params.Set("daysFrom", strconv.Itoa(daysFrom))

	var scores []ScoreResult
	endpoint := fmt.Sprintf("/v4/sports/%s/scores", sportKey)
	if err := c.get(ctx, endpoint, params, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	params.Set("apiKey", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.host, endpoint, params.Encode())

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.OddsAPIRequestsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("odds api request failed: %w", err)
	}
	defer resp.Body.Close()

	c.trackQuota(resp)

	if resp.StatusCode == http.StatusUnauthorized {
		metrics.OddsAPIRequestsTotal.WithLabelValues("unauthorized").Inc()
		c.logger.Error("Odds API rejected the key; not retrying")
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		metrics.OddsAPIRequestsTotal.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: string(body)}
	}

	metrics.OddsAPIRequestsTotal.WithLabelValues("ok").Inc()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// trackQuota reads the remaining-quota header and warns when it runs
// low.
func (c *Client) trackQuota(resp *http.Response) {
	remaining := resp.Header.Get("x-requests-remaining")
	if remaining == "" {
		return
	}
	n, err := strconv.Atoi(remaining)
	if err != nil {
		return
	}
	metrics.OddsAPIQuotaRemaining.Set(float64(n))
	if n < quotaWarnThreshold {
		c.logger.WithField("remaining", n).Warn("Low odds API quota remaining")
	}
}

// retryPolicy retries network errors, 429 and server errors. 401 must
// surface immediately; retrying a bad key only burns quota.
func retryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return false, nil
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return true, nil
		}
		return false, nil
	}
}
