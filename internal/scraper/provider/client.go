package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/hashicorp/go-hclog"

	scraperrors "github.com/mantonx/mediaid/internal/scraper/errors"
)

// HTTPClient is the shared transport every provider package is built on: a
// base URL, a bounded-timeout http.Client, and a bounded-exponential-backoff
// retry wrapper around the request/response cycle.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     hclog.Logger

	maxAttempts uint
	maxDelay    time.Duration
}

// NewHTTPClient builds a client rooted at baseURL with a 30s request
// timeout and up to 3 attempts in total (the first try plus two retries).
func NewHTTPClient(baseURL string, logger hclog.Logger) *HTTPClient {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:      logger,
		maxAttempts: 3,
		maxDelay:    10 * time.Second,
	}
}

// URL joins the base URL with endpoint.
func (c *HTTPClient) URL(endpoint string) string {
	return c.baseURL + endpoint
}

// Get issues a GET request against endpoint with no query parameters and
// decodes the JSON response into out.
func (c *HTTPClient) Get(ctx context.Context, endpoint string, out interface{}) error {
	return c.GetWithParams(ctx, endpoint, nil, out)
}

// GetWithParams issues a GET request with query parameters and decodes the
// JSON response into out.
func (c *HTTPClient) GetWithParams(ctx context.Context, endpoint string, params map[string]string, out interface{}) error {
	target := c.URL(endpoint)
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		target = target + "?" + q.Encode()
	}

	return c.doWithRetry(ctx, "get", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return scraperrors.Network("get", err)
		}
		req.Header.Set("Accept", "application/json")
		return c.execute(req, out)
	})
}

// PostJSON issues a POST request with a JSON-encoded body and decodes the
// JSON response into out. Used for AniList's GraphQL endpoint.
func (c *HTTPClient) PostJSON(ctx context.Context, endpoint string, body interface{}, out interface{}) error {
	target := c.URL(endpoint)

	return c.doWithRetry(ctx, "post_json", func() error {
		payload, err := json.Marshal(body)
		if err != nil {
			return scraperrors.Parse("post_json", fmt.Sprintf("encoding request body: %v", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
		if err != nil {
			return scraperrors.Network("post_json", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return c.execute(req, out)
	})
}

func (c *HTTPClient) execute(req *http.Request, out interface{}) error {
	req.Header.Set("User-Agent", "mediaid/1.0")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return scraperrors.Network(req.Method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return scraperrors.Network(req.Method, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return scraperrors.RateLimit(req.Method, retryAfter)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return scraperrors.API(req.Method, resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return scraperrors.Parse(req.Method, fmt.Sprintf("decoding response: %v", err))
	}
	return nil
}

// doWithRetry wraps fn in a bounded exponential backoff starting at 250ms,
// retrying only network errors and rate-limit/5xx API errors. A
// server-supplied Retry-After is added to the backoff delay, so it acts as
// a floor on the next delay up to the maxDelay cap.
func (c *HTTPClient) doWithRetry(ctx context.Context, op string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(c.maxAttempts),
		retry.Delay(250*time.Millisecond),
		retry.MaxDelay(c.maxDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, c.retryAfterFloor)),
		retry.RetryIf(isRetriableError),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying request", "op", op, "attempt", n+1, "error", err)
		}),
	)
}

func (c *HTTPClient) retryAfterFloor(n uint, err error, cfg *retry.Config) time.Duration {
	if se, ok := err.(*scraperrors.ScraperError); ok && se.RetryAfter > 0 {
		return se.RetryAfter
	}
	return 0
}

func isRetriableError(err error) bool {
	se, ok := err.(*scraperrors.ScraperError)
	if !ok {
		return false
	}
	return se.IsRetriable()
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(header); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 0
}
