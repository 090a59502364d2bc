//go:build js && wasm

package request

import (
	"context"
	"net/http"
	"time"

	"github.com/syumai/workers/cloudflare/fetch"
)

// DefaultTimeout bounds every call, including the refresh call.
const DefaultTimeout = 60 * time.Second

type fetchClient struct {
	client  *fetch.Client
	timeout time.Duration
}

// NewHTTPClient creates an HTTP client backed by the Workers fetch API.
func NewHTTPClient(timeout time.Duration) HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &fetchClient{client: fetch.NewClient(), timeout: timeout}
}

// Do bounds the call, body read included, by the client timeout.
func (f *fetchClient) Do(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), f.timeout)
	freq, err := fetch.NewRequest(ctx, req.Method, req.URL.String(), req.Body)
	if err != nil {
		cancel()
		return nil, err
	}
	freq.Header = req.Header.Clone()
	resp, err := f.client.Do(freq, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}
