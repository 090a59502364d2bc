package request

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"

	"github.com/rs/zerolog"
)

// EnvelopeOptions describes the {code, message, data} wrapper.
type EnvelopeOptions struct {
	// CodeField names the field carrying the result code. Defaults to "code".
	CodeField string
	// DataField names the payload field. Defaults to "data". Ignored when
	// DataFunc is set.
	DataField string
	// DataFunc extracts the payload from the whole decoded body.
	DataFunc func(body map[string]any) (any, error)
	// SuccessCode is compared against the code field. Defaults to 0.
	SuccessCode any
	// SuccessFunc decides success from the raw code value. Takes precedence
	// over SuccessCode.
	SuccessFunc func(code any) bool
	// MessageField is copied into EnvelopeError.Message. Defaults to "message".
	MessageField string

	Logger *zerolog.Logger
}

// EnvelopeInterceptor unwraps successful responses according to opts and
// turns envelope failures into *EnvelopeError.
func EnvelopeInterceptor(opts EnvelopeOptions) ResponseInterceptor {
	if opts.CodeField == "" {
		opts.CodeField = "code"
	}
	if opts.DataField == "" {
		opts.DataField = "data"
	}
	if opts.MessageField == "" {
		opts.MessageField = "message"
	}
	if opts.SuccessCode == nil {
		opts.SuccessCode = 0
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return ResponseInterceptor{
		Fulfilled: func(_ context.Context, resp *Response) (*Response, error) {
			if resp == nil || resp.Config == nil {
				log.Warn().Msg("Envelope interceptor received a response without a config, returning as is")
				return resp, nil
			}
			if resp.Config.ResponseReturn == ReturnRaw {
				return resp, nil
			}

			// No Content has no envelope to check.
			if resp.Status == http.StatusNoContent {
				return resp, nil
			}
			if resp.Status >= 200 && resp.Status < 400 {
				if resp.Config.ResponseReturn == ReturnBody {
					body, err := resp.DecodedValue()
					if err != nil {
						return nil, &EnvelopeError{Response: resp, Err: fmt.Errorf("failed to decode body: %w", err)}
					}
					resp.Data = body
					return resp, nil
				}

				body, err := resp.Decoded()
				if err != nil {
					return nil, &EnvelopeError{Response: resp, Err: fmt.Errorf("failed to decode body: %w", err)}
				}

				code := body[opts.CodeField]
				ok := false
				if opts.SuccessFunc != nil {
					ok = opts.SuccessFunc(code)
				} else {
					ok = codeEquals(code, opts.SuccessCode)
				}
				if ok {
					if opts.DataFunc != nil {
						data, err := opts.DataFunc(body)
						if err != nil {
							return nil, &EnvelopeError{Response: resp, Code: code, Err: err}
						}
						resp.Data = data
					} else {
						resp.Data = body[opts.DataField]
					}
					return resp, nil
				}

				msg, _ := body[opts.MessageField].(string)
				return nil, &EnvelopeError{Response: resp, Code: code, Message: msg}
			}

			return nil, &EnvelopeError{Response: resp}
		},
	}
}

// codeEquals compares a decoded code against the configured value with the
// strictness of ===: numbers only equal numbers, strings only strings.
func codeEquals(got, want any) bool {
	if got == nil {
		return false
	}
	gotNum, gotIsNum := asRat(got)
	wantNum, wantIsNum := asRat(want)
	if gotIsNum || wantIsNum {
		return gotIsNum && wantIsNum && gotNum.Cmp(wantNum) == 0
	}
	gs, ok1 := got.(string)
	ws, ok2 := want.(string)
	if ok1 && ok2 {
		return gs == ws
	}
	return got == want
}

func asRat(v any) (*big.Rat, bool) {
	r := new(big.Rat)
	switch n := v.(type) {
	case json.Number:
		if _, ok := r.SetString(n.String()); ok {
			return r, true
		}
		return nil, false
	case int:
		return r.SetInt64(int64(n)), true
	case int32:
		return r.SetInt64(int64(n)), true
	case int64:
		return r.SetInt64(n), true
	case uint:
		return r.SetUint64(uint64(n)), true
	case float64:
		if out := r.SetFloat64(n); out != nil {
			return out, true
		}
		return nil, false
	}
	return nil, false
}
