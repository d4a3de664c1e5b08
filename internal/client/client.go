// Package client talks to a running thoth daemon over its HTTP surface.
package client

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
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/thoth/thoth/internal/config"
	"github.com/thoth/thoth/internal/index"
	"github.com/thoth/thoth/internal/models"
	"github.com/thoth/thoth/internal/shell"
	"github.com/thoth/thoth/internal/web"
)

var (
	DefaultTimeout = 10 * time.Second
	DefaultRetries = 3
)

// ErrDaemonNotRunning is returned when nothing listens on the daemon address.
var ErrDaemonNotRunning = errors.New("thoth daemon is not running")

// StatusError is a non-2xx reply from the daemon.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned %d", e.Code)
	}
	return fmt.Sprintf("daemon returned %d: %s", e.Code, e.Message)
}

var retryableStatusCodes = map[int]bool{
	http.StatusRequestTimeout:     true,
	http.StatusTooManyRequests:    true,
	http.StatusBadGateway:         true,
	http.StatusGatewayTimeout:     true,
	http.StatusServiceUnavailable: false, // history disabled is permanent
}

type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

// New returns a client for the daemon described by cfg.
func New(cfg *config.Config) *Client {
	return NewWithURL(cfg.BaseURL(), DefaultTimeout, DefaultRetries)
}

// NewWithURL returns a client for baseURL. Negative values select the defaults.
func NewWithURL(baseURL string, timeout time.Duration, retries int) *Client {
	if timeout < 0 {
		timeout = DefaultTimeout
	}
	if retries < 0 {
		retries = DefaultRetries
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.HTTPClient = &http.Client{
		Transport: cleanhttp.DefaultPooledTransport(),
		Timeout:   timeout,
	}
	rc.RetryMax = retries
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.CheckRetry = retryPolicy
	rc.ErrorHandler = giveUp

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    rc,
	}
}

// BaseURL returns the daemon root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Search ranks the daemon's catalog for query.
func (c *Client) Search(ctx context.Context, query string) ([]models.Runnable, error) {
	var out []models.Runnable
	q := url.Values{"q": {query}}
	if err := c.do(ctx, http.MethodGet, "/api/search?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Runnable{}
	}
	return out, nil
}

// Run asks the daemon to start path. A failed launch is reported through
// the response, not the error.
func (c *Client) Run(ctx context.Context, path string) (*web.RunResponse, error) {
	var out web.RunResponse
	if err := c.do(noReplay(ctx), http.MethodPost, "/api/run", map[string]string{"path": path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Show(ctx context.Context) (*shell.State, error) {
	return c.window(ctx, "show")
}

func (c *Client) Hide(ctx context.Context) (*shell.State, error) {
	return c.window(ctx, "hide")
}

func (c *Client) Toggle(ctx context.Context) (*shell.State, error) {
	return c.window(ctx, "toggle")
}

func (c *Client) window(ctx context.Context, action string) (*shell.State, error) {
	var out shell.State
	if err := c.do(ctx, http.MethodPost, "/api/window/"+action, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Apps lists the full catalog.
func (c *Client) Apps(ctx context.Context) ([]models.Runnable, error) {
	var out []models.Runnable
	if err := c.do(ctx, http.MethodGet, "/api/apps", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Refresh forces a rescan.
func (c *Client) Refresh(ctx context.Context) (*index.Stats, error) {
	var out index.Stats
	if err := c.do(ctx, http.MethodPost, "/api/apps/refresh", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History fetches the launch report for period (day, week or month).
func (c *Client) History(ctx context.Context, period string) (*models.Report, error) {
	var out models.Report
	q := url.Values{"period": {period}}
	if err := c.do(ctx, http.MethodGet, "/api/history?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Status(ctx context.Context) (*web.Status, error) {
	var out web.Status
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping checks the daemon's health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	var out map[string]string
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return err
	}
	if out["status"] != "healthy" {
		return fmt.Errorf("daemon unhealthy: %q", out["status"])
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type noReplayKey struct{}

// noReplay marks a request that must not be sent twice once the daemon may
// have seen it. Only refused dials are retried.
func noReplay(ctx context.Context) context.Context {
	return context.WithValue(ctx, noReplayKey{}, true)
}

func replayUnsafe(ctx context.Context) bool {
	v, _ := ctx.Value(noReplayKey{}).(bool)
	return v
}

// retryPolicy retries transport errors while the daemon may still be
// starting and a few transient status codes.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		if isDialError(err) {
			return true, nil
		}
		if replayUnsafe(ctx) {
			return false, nil
		}
		var uerr *url.Error
		if errors.As(err, &uerr) && strings.Contains(uerr.Error(), "unsupported protocol scheme") {
			return false, nil
		}
		return true, nil
	}
	if replayUnsafe(ctx) {
		return false, nil
	}
	return retryableStatusCodes[resp.StatusCode], nil
}

func isDialError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// giveUp hands the last response back unchanged, or maps a refused dial
// to ErrDaemonNotRunning.
func giveUp(resp *http.Response, err error, tries int) (*http.Response, error) {
	if err == nil {
		return resp, nil
	}
	if isDialError(err) {
		return resp, fmt.Errorf("%w (after %d attempts): %v", ErrDaemonNotRunning, tries, err)
	}
	return resp, err
}
