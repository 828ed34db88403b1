package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// MaxRetries bounds attempts against a rate-limiting source
	MaxRetries = 3
	// BaseDelay is the first backoff delay; it doubles per attempt (1s, 2s, 4s)
	BaseDelay = 1 * time.Second
)

// ErrUnavailable means a source could not produce data at all: transport
// failure, an undecodable response, or an exhausted retry budget. Callers
// treat it as an expected "no result", never as a system failure.
var ErrUnavailable = errors.New("source unavailable")

// StatusError is a definitive non-2xx response outside the retryable set
// (429/5xx). It is not retried.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.Code)
}

// Client performs GET requests against external JSON sources with the shared
// backoff policy: 429 and 5xx responses are retried with exponential delay,
// everything else fails on the first attempt.
type Client struct {
	httpClient *http.Client
	userAgent  string
	sleep      func(time.Duration)
}

func NewClient(userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{},
		userAgent:  userAgent,
		sleep:      time.Sleep,
	}
}

// GetJSON fetches endpoint with the given query parameters and decodes the
// response body into out. Transport and decode failures are reported as
// ErrUnavailable without retrying; only rate-limit/server errors burn the
// retry budget.
func (c *Client) GetJSON(ctx context.Context, endpoint string, params url.Values, timeout time.Duration, out interface{}) error {
	for attempt := 0; attempt < MaxRetries; attempt++ {
		status, body, err := c.fetch(ctx, endpoint, params, timeout)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		if status == http.StatusTooManyRequests || status >= 500 {
			if attempt < MaxRetries-1 {
				c.sleep(BaseDelay << uint(attempt))
			}
			continue
		}

		if status < 200 || status >= 300 {
			return &StatusError{Code: status}
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", ErrUnavailable, err)
		}
		return nil
	}

	return fmt.Errorf("%w: retry budget exhausted", ErrUnavailable)
}

// GetJSONOnce is GetJSON without the retry policy: a single attempt with the
// same error classification. Used by callers that prefer falling through to
// another source over waiting out a backoff.
func (c *Client) GetJSONOnce(ctx context.Context, endpoint string, params url.Values, timeout time.Duration, out interface{}) error {
	status, body, err := c.fetch(ctx, endpoint, params, timeout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if status < 200 || status >= 300 {
		return &StatusError{Code: status}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values, timeout time.Duration) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	requestURL := endpoint
	if len(params) > 0 {
		requestURL = endpoint + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, requestURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	return resp.StatusCode, body, nil
}
