package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/authflow/apierr"
)

// BasePath is the path prefix of every authentication endpoint.
const BasePath = "/api/authentication"

const maxErrorBody = 64 << 10

var (
	// ErrTransport wraps failures to reach the backend.
	ErrTransport = errors.New("api transport failure")
	// ErrDecode wraps undecodable success bodies.
	ErrDecode = errors.New("api response decode failure")
	// ErrInvalidBaseURL is returned by New for a base URL without scheme or host.
	ErrInvalidBaseURL = errors.New("invalid api base url")
)

// Observer receives the outcome of every call. endpoint is the path below
// BasePath.
type Observer func(endpoint string, elapsed time.Duration, err error)

// Config configures a Client.
type Config struct {
	// BaseURL is the scheme and host of the backend, e.g.
	// https://ebanking.example.com. Paths starting with /api are resolved
	// against it.
	BaseURL string
	// Timeout bounds each call when HTTPClient is nil.
	Timeout time.Duration
	// HTTPClient overrides the default client. Its Transport should
	// already be wrapped with the middlewares the caller wants; New adds
	// APIPrefix on a copy.
	HTTPClient *http.Client
	Observer   Observer
	Logger     *slog.Logger
}

// Client calls the authentication backend.
type Client struct {
	base     *url.URL
	http     *http.Client
	observer Observer
	logger   *slog.Logger
}

// New returns a Client. The base URL is validated here so that every later
// request is well formed.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}

	hc := &http.Client{Timeout: cfg.Timeout}
	if cfg.HTTPClient != nil {
		copied := *cfg.HTTPClient
		hc = &copied
	}
	if hc.Timeout <= 0 && cfg.HTTPClient == nil {
		hc.Timeout = 30 * time.Second
	}
	hc.Transport = APIPrefix(base.String())(hc.Transport)
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		base:     base,
		http:     hc,
		observer: cfg.Observer,
		logger:   logger,
	}, nil
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// endpoint returns the relative request path; the APIPrefix middleware
// installed by New resolves it against the base URL.
func (c *Client) endpoint(path string) string {
	return BasePath + path
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrTransport, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return c.do(req, path, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) (err error) {
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer(path, time.Since(start), err)
		}
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		c.logger.Debug("backend call failed",
			slog.String("endpoint", path),
			slog.Int("status", resp.StatusCode),
			slog.String("code", string(apiErr.Code)),
		)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// decodeError turns a non-2xx response into an APIError. Bodies that are
// not error documents keep the HTTP status as the only signal.
func decodeError(resp *http.Response) *apierr.APIError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var apiErr apierr.APIError
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.Status = resp.StatusCode
		return &apiErr
	}

	code := apierr.CodeServerError
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		code = apierr.CodeUnauthorized
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		code = apierr.CodeBadGateway
	}
	message := apiErr.Message
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &apierr.APIError{Code: code, Message: message, Status: resp.StatusCode}
}
