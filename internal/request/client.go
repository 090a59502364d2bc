package request

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPClient is an interface for making HTTP requests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestInterceptor mutates a config before it is sent.
type RequestInterceptor struct {
	Fulfilled func(ctx context.Context, cfg *RequestConfig) (*RequestConfig, error)
}

// ResponseInterceptor runs on the result of a call. Interceptors run in the
// order they were added; each sees either the response or the error left by
// the previous one and may turn one into the other.
type ResponseInterceptor struct {
	Fulfilled func(ctx context.Context, resp *Response) (*Response, error)
	Rejected  func(ctx context.Context, err error) (*Response, error)
}

// Client sends requests through a chain of interceptors.
type Client struct {
	baseURL        string
	httpClient     HTTPClient
	logger         zerolog.Logger
	responseReturn ResponseReturn

	mu                   sync.RWMutex
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor

	refresh refreshState
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport.
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithResponseReturn sets the default ResponseReturn for calls that do not
// choose one.
func WithResponseReturn(r ResponseReturn) Option {
	return func(c *Client) { c.responseReturn = r }
}

// WithTimeout installs a default transport with the given timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient = NewHTTPClient(d) }
}

// New creates a client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		logger:         zerolog.Nop(),
		responseReturn: ReturnRaw,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(DefaultTimeout)
	}
	return c
}

// BaseURL returns the URL prefix applied to relative request URLs.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AddRequestInterceptor appends an outbound interceptor.
func (c *Client) AddRequestInterceptor(ic RequestInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestInterceptors = append(c.requestInterceptors, ic)
}

// AddResponseInterceptor appends a response interceptor.
func (c *Client) AddResponseInterceptor(ic ResponseInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responseInterceptors = append(c.responseInterceptors, ic)
}

// Request runs cfg through the request interceptors, the transport and the
// response interceptors.
func (c *Client) Request(ctx context.Context, cfg *RequestConfig) (*Response, error) {
	if cfg == nil {
		return nil, ErrNoConfig
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	if cfg.ResponseReturn == "" {
		cfg.ResponseReturn = c.responseReturn
	}

	resp, err := c.send(ctx, cfg)

	c.mu.RLock()
	chain := append([]ResponseInterceptor(nil), c.responseInterceptors...)
	c.mu.RUnlock()

	for _, ic := range chain {
		if err != nil {
			if ic.Rejected != nil {
				resp, err = ic.Rejected(ctx, err)
			}
			continue
		}
		if ic.Fulfilled != nil {
			resp, err = ic.Fulfilled(ctx, resp)
		}
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// send applies the request interceptors and performs the HTTP exchange. It
// is also the replay path used after a token refresh.
func (c *Client) send(ctx context.Context, cfg *RequestConfig) (*Response, error) {
	c.mu.RLock()
	chain := append([]RequestInterceptor(nil), c.requestInterceptors...)
	c.mu.RUnlock()

	if cfg.Header == nil {
		cfg.Header = http.Header{}
	}
	for _, ic := range chain {
		if ic.Fulfilled == nil {
			continue
		}
		next, err := ic.Fulfilled(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("request interceptor failed: %w", err)
		}
		if next != nil {
			cfg = next
		}
	}
	return c.transport(ctx, cfg)
}

func (c *Client) transport(ctx context.Context, cfg *RequestConfig) (*Response, error) {
	target, err := c.resolveURL(cfg)
	if err != nil {
		return nil, &NetworkError{Config: cfg, Err: err}
	}

	var body io.Reader
	if cfg.Body != nil {
		body = bytes.NewReader(cfg.Body)
	}
	req, err := http.NewRequestWithContext(ctx, cfg.Method, target, body)
	if err != nil {
		return nil, &NetworkError{Config: cfg, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header = cfg.Header.Clone()
	if req.Header.Get("X-Request-Id") == "" {
		req.Header.Set("X-Request-Id", uuid.NewString())
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).
			Str("method", cfg.Method).
			Str("url", cfg.URL).
			Msg("Transport error")
		return nil, &NetworkError{Config: cfg, Err: err, Timeout: isTimeout(err)}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &NetworkError{Config: cfg, Err: fmt.Errorf("failed to read response body: %w", err), Timeout: isTimeout(err)}
	}

	resp := &Response{
		Status: httpResp.StatusCode,
		Header: httpResp.Header,
		Body:   data,
		Config: cfg,
	}

	c.logger.Debug().
		Str("method", cfg.Method).
		Str("url", cfg.URL).
		Int("status_code", resp.Status).
		Bool("retry", cfg.IsRetryRequest).
		Dur("duration", time.Since(start)).
		Msg("Request completed")

	if resp.Status < 200 || resp.Status >= 300 {
		return nil, &ResponseError{Response: resp}
	}
	return resp, nil
}

func (c *Client) resolveURL(cfg *RequestConfig) (string, error) {
	raw := cfg.URL
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		if c.baseURL == "" {
			return "", fmt.Errorf("relative url %q without base url", raw)
		}
		if !strings.HasPrefix(raw, "/") {
			raw = "/" + raw
		}
		raw = c.baseURL + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if len(cfg.Params) > 0 {
		q := u.Query()
		for k, v := range cfg.Params {
			for _, vv := range v {
				q.Add(k, vv)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Do builds a config for method and path, applies opts and runs Request.
func (c *Client) Do(ctx context.Context, method, path string, opts ...CallOption) (*Response, error) {
	cfg := &RequestConfig{URL: path, Method: method, Header: http.Header{}}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to build %s %s: %w", method, path, err)
		}
	}
	return c.Request(ctx, cfg)
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, opts ...CallOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, opts...)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, path string, opts ...CallOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, opts...)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, path string, opts ...CallOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, opts...)
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, opts ...CallOption) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, opts...)
}

// Delete issues a DELETE request. A body may be attached with WithJSON.
func (c *Client) Delete(ctx context.Context, path string, opts ...CallOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, opts...)
}
