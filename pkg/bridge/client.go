// Package bridge is a typed client for the MT5 bridge service running next to the trading terminal.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang-ea-automation/pkg/errs"

	"github.com/shopspring/decimal"
)

var defaultVolume = decimal.New(1, -2)

const component = "bridge"

// Client talks to the bridge over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the default per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New creates a bridge client.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
		timeout:    10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common {success, error} wrapper.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// call performs one request under its own deadline. A shorter deadline on ctx wins.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

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
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(err)
	}

	var env envelope
	_ = json.Unmarshal(respBody, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Error
		if msg == "" {
			msg = fmt.Sprintf("MT5 service error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return errs.New(component, codeForStatus(resp.StatusCode), errs.WithHTTP(resp.StatusCode), errs.WithMessage(msg))
	}
	if env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = "MT5 service reported failure"
		}
		return errs.New(component, errs.CodeProvider, errs.WithHTTP(resp.StatusCode), errs.WithMessage(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errs.New(component, errs.CodeProvider, errs.WithMessage("malformed bridge response"), errs.WithCause(err))
	}
	return nil
}

func codeForStatus(status int) errs.Code {
	switch {
	case status == http.StatusUnauthorized:
		return errs.CodeUnauthenticated
	case status == http.StatusBadRequest:
		return errs.CodeValidation
	case status == http.StatusNotFound:
		return errs.CodeNotFound
	case status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout:
		return errs.CodeUnavailable
	default:
		return errs.CodeProvider
	}
}

func transportError(err error) error {
	msg := "MT5 service unavailable"
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		msg = "MT5 service is not running. Please start the bridge service on the VPS."
	case errors.Is(err, context.DeadlineExceeded):
		msg = "MT5 service timed out"
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			msg = "MT5 service timed out"
		}
	}
	return errs.New(component, errs.CodeUnavailable, errs.WithMessage(msg), errs.WithCause(err))
}

// IsUnavailable reports whether err means the bridge could not be reached in time.
func IsUnavailable(err error) bool {
	return errs.Is(err, errs.CodeUnavailable)
}

// Health checks the bridge.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.call(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Initialize starts the terminal at path.
func (c *Client) Initialize(ctx context.Context, path string) error {
	return c.call(ctx, http.MethodPost, "/initialize", map[string]string{"path": path}, nil)
}

// Login logs the terminal into an account.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	var out LoginResult
	if err := c.call(ctx, http.MethodPost, "/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Account returns the logged-in account.
func (c *Client) Account(ctx context.Context) (*AccountInfo, error) {
	var out struct {
		Account AccountInfo `json:"account"`
	}
	if err := c.call(ctx, http.MethodGet, "/account", nil, &out); err != nil {
		return nil, err
	}
	return &out.Account, nil
}

// AccountSnapshot returns the extended account report for account@server.
func (c *Client) AccountSnapshot(ctx context.Context, account, server string) (*AccountSnapshot, error) {
	var out AccountSnapshot
	body := map[string]string{"account": account, "server": server}
	if err := c.call(ctx, http.MethodPost, "/account/extended", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EAStatus returns the EA activity for account@server.
func (c *Client) EAStatus(ctx context.Context, account, server string) (*EAStatus, error) {
	var out EAStatus
	body := map[string]any{"account": account, "server": server, "magic": DefaultMagic}
	if err := c.call(ctx, http.MethodPost, "/ea/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Positions lists open positions.
func (c *Client) Positions(ctx context.Context) ([]Position, error) {
	var out struct {
		Positions []Position `json:"positions"`
	}
	if err := c.call(ctx, http.MethodGet, "/positions", nil, &out); err != nil {
		return nil, err
	}
	return out.Positions, nil
}

// Orders lists pending orders.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var out struct {
		Orders []Order `json:"orders"`
	}
	if err := c.call(ctx, http.MethodGet, "/orders", nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// History lists deals of the last days (the bridge defaults to 30).
func (c *Client) History(ctx context.Context, days int) ([]Deal, error) {
	path := "/history"
	if days > 0 {
		path += "?" + url.Values{"days": {strconv.Itoa(days)}}.Encode()
	}
	var out struct {
		Deals []Deal `json:"deals"`
	}
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Deals, nil
}

// Symbols lists tradable symbols.
func (c *Client) Symbols(ctx context.Context) ([]Symbol, error) {
	var out struct {
		Symbols []Symbol `json:"symbols"`
	}
	if err := c.call(ctx, http.MethodGet, "/symbols", nil, &out); err != nil {
		return nil, err
	}
	return out.Symbols, nil
}

// OpenTrade opens a market position.
func (c *Client) OpenTrade(ctx context.Context, req OpenTradeRequest) (*TradeResult, error) {
	if req.Magic == 0 {
		req.Magic = DefaultMagic
	}
	if req.Volume.IsZero() {
		req.Volume = defaultVolume
	}
	var out struct {
		Order TradeResult `json:"order"`
	}
	if err := c.call(ctx, http.MethodPost, "/trade/open", req, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

// CloseTrade closes a position.
func (c *Client) CloseTrade(ctx context.Context, req CloseTradeRequest) (*TradeResult, error) {
	var out struct {
		Order TradeResult `json:"order"`
	}
	if err := c.call(ctx, http.MethodPost, "/trade/close", req, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

// ModifyTrade changes SL/TP.
func (c *Client) ModifyTrade(ctx context.Context, req ModifyTradeRequest) error {
	return c.call(ctx, http.MethodPost, "/trade/modify", req, nil)
}

// Shutdown closes the terminal connection.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/shutdown", nil, nil)
}
