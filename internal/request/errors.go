package request

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoConfig is returned when an interceptor is handed an error or response
// that carries no request configuration.
var ErrNoConfig = errors.New("response has no request config")

// NetworkError means no response was received.
type NetworkError struct {
	Config  *RequestConfig
	Err     error
	Timeout bool
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("request timeout: %s %s: %v", e.Config.Method, e.Config.URL, e.Err)
	}
	return fmt.Sprintf("network error: %s %s: %v", e.Config.Method, e.Config.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ResponseError is an HTTP response with a non-2xx status.
type ResponseError struct {
	Response *Response
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("request failed with status code %d: %s %s",
		e.Response.Status, e.Response.Config.Method, e.Response.Config.URL)
}

// EnvelopeError is a successful HTTP response whose envelope code did not
// match the configured success code.
type EnvelopeError struct {
	Response *Response
	Code     any
	Message  string
	Err      error
}

func (e *EnvelopeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid response envelope (status %d): %v", e.Response.Status, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("request rejected with code %v: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("request rejected with code %v", e.Code)
}

func (e *EnvelopeError) Unwrap() error { return e.Err }

// ResponseOf returns the response attached to err, if any.
func ResponseOf(err error) *Response {
	var re *ResponseError
	if errors.As(err, &re) {
		return re.Response
	}
	var ee *EnvelopeError
	if errors.As(err, &ee) {
		return ee.Response
	}
	return nil
}

// ConfigOf returns the request configuration attached to err, if any.
func ConfigOf(err error) *RequestConfig {
	if resp := ResponseOf(err); resp != nil {
		return resp.Config
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Config
	}
	return nil
}

// StatusCode returns the HTTP status attached to err, or 0 when no response
// was received.
func StatusCode(err error) int {
	if resp := ResponseOf(err); resp != nil {
		return resp.Status
	}
	return 0
}

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Timeout
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsCanceled reports whether the caller abandoned the request.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
