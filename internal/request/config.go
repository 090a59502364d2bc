package request

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// ResponseReturn selects what a call wants back from the pipeline.
type ResponseReturn string

const (
	// ReturnData unwraps the {code, message, data} envelope and yields data.
	ReturnData ResponseReturn = "data"
	// ReturnBody yields the decoded body without checking the envelope code.
	ReturnBody ResponseReturn = "body"
	// ReturnRaw yields the transport response untouched.
	ReturnRaw ResponseReturn = "raw"
)

// RequestConfig describes a single call. Everything except IsRetryRequest is
// treated as immutable once the call is dispatched; replays work on a clone.
type RequestConfig struct {
	URL            string
	Method         string
	Header         http.Header
	Params         url.Values
	Body           []byte
	ResponseReturn ResponseReturn

	// IsRetryRequest marks a request that already went through a refresh
	// cycle. A second 401 on it goes to re-authentication, never to refresh.
	IsRetryRequest bool

	// skipReauth is set on replays issued after a failed refresh, whose
	// cycle already ran the re-authentication fallback.
	skipReauth bool
}

// Clone returns a deep copy that can be mutated independently.
func (c *RequestConfig) Clone() *RequestConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.Header = c.Header.Clone()
	if out.Header == nil {
		out.Header = http.Header{}
	}
	if c.Params != nil {
		out.Params = url.Values{}
		for k, v := range c.Params {
			out.Params[k] = append([]string(nil), v...)
		}
	}
	if c.Body != nil {
		out.Body = bytes.Clone(c.Body)
	}
	return &out
}

// SetAuthorization sets or clears the Authorization header. An empty value
// removes the header.
func (c *RequestConfig) SetAuthorization(value string) {
	if c.Header == nil {
		c.Header = http.Header{}
	}
	if value == "" {
		c.Header.Del("Authorization")
		return
	}
	c.Header.Set("Authorization", value)
}

// TargetsPath reports whether the request URL contains the given path fragment.
func (c *RequestConfig) TargetsPath(path string) bool {
	return c != nil && path != "" && strings.Contains(c.URL, path)
}

// Response is what flows through the response interceptors.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	Config *RequestConfig

	// Data is the value handed to the caller: the decoded body for
	// ReturnBody, the extracted payload for ReturnData, nil for ReturnRaw.
	Data any

	decoded    map[string]any
	decodeErr  error
	decodeDone bool
}

// Decoded returns the JSON body decoded into a map. Numbers are kept as
// json.Number so envelope codes compare exactly.
func (r *Response) Decoded() (map[string]any, error) {
	if r.decodeDone {
		return r.decoded, r.decodeErr
	}
	r.decodeDone = true
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := decodeJSON(r.Body, &m); err != nil {
		r.decodeErr = err
		return nil, err
	}
	r.decoded = m
	return m, nil
}

// DecodedValue returns the JSON body decoded whatever its shape: object,
// array, string, number or bool. An empty body yields nil.
func (r *Response) DecodedValue() (any, error) {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil, nil
	}
	var v any
	if err := decodeJSON(r.Body, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

// CallOption adjusts a RequestConfig built by the method helpers.
type CallOption func(*RequestConfig) error

// WithParams adds query parameters. Repeated keys are serialized as repeated
// parameters (a=1&a=2).
func WithParams(params url.Values) CallOption {
	return func(c *RequestConfig) error {
		if c.Params == nil {
			c.Params = url.Values{}
		}
		for k, v := range params {
			for _, vv := range v {
				c.Params.Add(k, vv)
			}
		}
		return nil
	}
}

// WithHeader sets a request header.
func WithHeader(key, value string) CallOption {
	return func(c *RequestConfig) error {
		if c.Header == nil {
			c.Header = http.Header{}
		}
		c.Header.Set(key, value)
		return nil
	}
}

// WithJSON encodes v as the JSON request body.
func WithJSON(v any) CallOption {
	return func(c *RequestConfig) error {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		c.Body = b
		if c.Header == nil {
			c.Header = http.Header{}
		}
		c.Header.Set("Content-Type", "application/json")
		return nil
	}
}

// WithBody sets a pre-encoded body and its content type.
func WithBody(body []byte, contentType string) CallOption {
	return func(c *RequestConfig) error {
		c.Body = body
		if contentType != "" {
			if c.Header == nil {
				c.Header = http.Header{}
			}
			c.Header.Set("Content-Type", contentType)
		}
		return nil
	}
}

// WithReturn overrides the client's default ResponseReturn for one call.
func WithReturn(r ResponseReturn) CallOption {
	return func(c *RequestConfig) error {
		c.ResponseReturn = r
		return nil
	}
}
