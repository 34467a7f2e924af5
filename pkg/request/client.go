package request

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"biotimeline/pkg/logging"
	"biotimeline/pkg/tracker"
	"biotimeline/pkg/version"
)

var (
	defaultUserAgent = fmt.Sprintf("biotimeline/%s", version.Version)
)

// StatusError is a non-success HTTP response. Body holds the raw response text.
type StatusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error: status %d", e.Code)
}

// Options configures a Client.
type Options struct {
	Retries       int           // extra attempts on 429, 5xx and network errors; 0 fails on the first error
	Timeout       time.Duration // 0 leaves the request bounded only by its context
	RatePerMinute int           // 0 disables rate limiting
	BaseDelay     time.Duration
	MaxDelay      time.Duration
}

// Client performs HTTP requests with optional rate limiting, retries and tracking.
type Client struct {
	httpClient *http.Client
	tracker    *tracker.Tracker
	limiter    *rate.Limiter
	backoff    backoff
	retries    int
}

// New creates a new Client. t may be nil.
func New(t *tracker.Tracker, opts Options) *Client {
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	var limiter *rate.Limiter
	if opts.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), 1)
	}
	if t == nil {
		t = tracker.New()
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		tracker:    t,
		limiter:    limiter,
		backoff:    newBackoff(opts.BaseDelay, opts.MaxDelay),
		retries:    opts.Retries,
	}
}

// PostWithHeaders performs a POST request with custom headers, retrying transient failures.
func (c *Client) PostWithHeaders(ctx context.Context, u string, body []byte, headers map[string]string) ([]byte, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	provider := normalizeProvider(parsedURL.Host)

	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		var reader io.Reader = http.NoBody
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		applyHeaders(req, headers)

		respBody, err := c.execute(req)
		if err == nil {
			c.tracker.TrackAPISuccess(provider)
			return respBody, nil
		}
		c.tracker.TrackAPIFailure(provider)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) || attempt >= c.retries {
			return nil, err
		}
		var hint time.Duration
		var se *StatusError
		if errors.As(err, &se) {
			hint = se.RetryAfter
		}
		wait := c.backoff.delay(attempt, hint)
		slog.Warn("Request failed, retrying", "provider", provider, "attempt", attempt+1, "wait", wait, "error", err)
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func applyHeaders(req *http.Request, headers map[string]string) {
	uaMatch := false
	for k, v := range headers {
		req.Header.Set(k, v)
		if http.CanonicalHeaderKey(k) == "User-Agent" {
			uaMatch = true
		}
	}
	if !uaMatch {
		req.Header.Set("User-Agent", defaultUserAgent)
	}
}

// execute performs one attempt. Non-2xx responses become *StatusError.
func (c *Client) execute(req *http.Request) ([]byte, error) {
	logging.TraceDefault("Network Request", "host", req.URL.Host, "path", req.URL.Path)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if logging.RequestLogger != nil {
		logging.RequestLogger.Info("request",
			"method", req.Method,
			"host", req.URL.Host,
			"path", req.URL.Path,
			"status", resp.StatusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Code:       resp.StatusCode,
			Body:       string(body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}
	return body, nil
}

// retryable reports whether an error is transient: 429, 5xx or a transport failure.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || (se.Code >= 500 && se.Code < 600)
	}
	return true
}

func normalizeProvider(host string) string {
	switch {
	case strings.HasSuffix(host, "openai.com"):
		return "openai"
	case strings.HasSuffix(host, "googleapis.com"):
		return "gemini"
	}
	return host
}
