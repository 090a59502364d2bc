//go:build !js || !wasm

package request

import (
	"net/http"
	"net/http/cookiejar"
	"time"
)

// DefaultTimeout bounds every call, including the refresh call.
const DefaultTimeout = 60 * time.Second

// NewHTTPClient creates a new HTTP client for regular environments. The
// client keeps cookies so the refresh cookie set at login is sent back to
// the refresh endpoint; share one instance between clients that must see
// the same session.
func NewHTTPClient(timeout time.Duration) HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Timeout: timeout,
		Jar:     jar,
	}
}
