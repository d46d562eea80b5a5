// Package vultr is a typed client for the Vultr v2 REST API used to provision trading VPS instances.
package vultr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang-ea-automation/pkg/errs"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public v2 endpoint.
	DefaultBaseURL = "https://api.vultr.com/v2"

	// ProviderName is stored on every VPS row created through this client.
	ProviderName = "vultr"

	component = "vultr"
)

// ProviderError is a non-2xx answer from the API.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("vultr api error %d: %s", e.StatusCode, e.Message)
}

// Client is a Vultr API client.
type Client struct {
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	limiter       *rate.Limiter
	maxTries      uint
	retryInterval time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithRetry sets how many times idempotent reads are attempted and the first backoff interval.
func WithRetry(maxTries uint, initial time.Duration) Option {
	return func(c *Client) {
		if maxTries > 0 {
			c.maxTries = maxTries
		}
		if initial > 0 {
			c.retryInterval = initial
		}
	}
}

// New creates a new API client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		apiKey:        apiKey,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		limiter:       rate.NewLimiter(rate.Limit(2), 2),
		maxTries:      3,
		retryInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) request(ctx context.Context, method, path string, body, out any) error {
	if c.apiKey == "" {
		return errs.New(component, errs.CodeValidation, errs.WithMessage("Vultr API key is not configured"))
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return errs.New(component, errs.CodeUnavailable, errs.WithMessage("rate limiter wait aborted"), errs.WithCause(err))
		}
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.New(component, errs.CodeUnavailable, errs.WithMessage("Vultr API unreachable"), errs.WithCause(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.New(component, errs.CodeUnavailable, errs.WithMessage("read response"), errs.WithCause(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &ProviderError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &ProviderError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Vultr API error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	if resp.StatusCode == http.StatusNoContent || out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// get retries idempotent reads on throttling, server errors and transport failures.
func (c *Client) get(ctx context.Context, path string, out any) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxInterval = 10 * c.retryInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.request(ctx, http.MethodGet, path, nil, out)
		if err != nil && !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.maxTries))
	return err
}

func retryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode == http.StatusTooManyRequests || pe.StatusCode >= 500
	}
	return errs.Is(err, errs.CodeUnavailable)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.StatusCode == http.StatusNotFound
}
