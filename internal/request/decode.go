package request

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Decode converts the caller-facing payload of resp into T. For raw
// responses the body itself is decoded.
func Decode[T any](resp *Response) (T, error) {
	var out T
	if resp == nil {
		return out, ErrNoConfig
	}

	var raw []byte
	if resp.Config != nil && resp.Config.ResponseReturn == ReturnRaw {
		raw = resp.Body
	} else {
		if resp.Data == nil {
			return out, nil
		}
		b, err := json.Marshal(resp.Data)
		if err != nil {
			return out, fmt.Errorf("failed to re-encode payload: %w", err)
		}
		raw = b
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode payload into %T: %w", out, err)
	}
	return out, nil
}

func call[T any](ctx context.Context, c *Client, method, path string, opts []CallOption) (T, error) {
	resp, err := c.Do(ctx, method, path, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](resp)
}

// Get issues a GET and decodes the payload into T.
func Get[T any](ctx context.Context, c *Client, path string, opts ...CallOption) (T, error) {
	return call[T](ctx, c, http.MethodGet, path, opts)
}

// Post issues a POST and decodes the payload into T.
func Post[T any](ctx context.Context, c *Client, path string, opts ...CallOption) (T, error) {
	return call[T](ctx, c, http.MethodPost, path, opts)
}

// Put issues a PUT and decodes the payload into T.
func Put[T any](ctx context.Context, c *Client, path string, opts ...CallOption) (T, error) {
	return call[T](ctx, c, http.MethodPut, path, opts)
}

// Patch issues a PATCH and decodes the payload into T.
func Patch[T any](ctx context.Context, c *Client, path string, opts ...CallOption) (T, error) {
	return call[T](ctx, c, http.MethodPatch, path, opts)
}

// Delete issues a DELETE and decodes the payload into T.
func Delete[T any](ctx context.Context, c *Client, path string, opts ...CallOption) (T, error) {
	return call[T](ctx, c, http.MethodDelete, path, opts)
}
