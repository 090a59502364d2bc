package request

import (
	"context"
	"io"
)

// cancelOnClose releases a per-call timeout context once the response body
// is closed, so the body stays readable after Do returns.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}
