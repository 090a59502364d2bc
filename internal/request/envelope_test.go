package request

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelopeResponse(status int, body string, ret ResponseReturn) *Response {
	return &Response{
		Status: status,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   []byte(body),
		Config: &RequestConfig{URL: "/x", Method: http.MethodGet, ResponseReturn: ret},
	}
}

func TestEnvelopeUnwrapsData(t *testing.T) {
	ic := EnvelopeInterceptor(EnvelopeOptions{})
	resp, err := ic.Fulfilled(context.Background(), envelopeResponse(200, `{"code":0,"message":"ok","data":{"id":"u1"}}`, ReturnData))
	require.NoError(t, err)

	out, err := Decode[map[string]string](resp)
	require.NoError(t, err)
	assert.Equal(t, "u1", out["id"])
}

func TestEnvelopeDataFuncReceivesWholeBody(t *testing.T) {
	var seen map[string]any
	ic := EnvelopeInterceptor(EnvelopeOptions{
		DataFunc: func(body map[string]any) (any, error) {
			seen = body
			return "extracted", nil
		},
	})

	resp, err := ic.Fulfilled(context.Background(), envelopeResponse(200, `{"code":0,"message":"ok","data":[1,2],"extra":true}`, ReturnData))
	require.NoError(t, err)

	assert.Equal(t, "extracted", resp.Data)
	require.NotNil(t, seen)
	assert.Contains(t, seen, "code")
	assert.Contains(t, seen, "message")
	assert.Contains(t, seen, "data")
	assert.Equal(t, true, seen["extra"])
}

func TestEnvelopeSuccessFunc(t *testing.T) {
	ic := EnvelopeInterceptor(EnvelopeOptions{
		CodeField: "status",
		DataField: "result",
		SuccessFunc: func(code any) bool {
			s, _ := code.(string)
			return s == "OK" || s == "CREATED"
		},
	})

	resp, err := ic.Fulfilled(context.Background(), envelopeResponse(200, `{"status":"CREATED","result":"abc"}`, ReturnData))
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Data)
}

func TestEnvelopeCodeMismatch(t *testing.T) {
	ic := EnvelopeInterceptor(EnvelopeOptions{})
	in := envelopeResponse(200, `{"code":10021,"message":"username already taken","data":null}`, ReturnData)

	_, err := ic.Fulfilled(context.Background(), in)

	var ee *EnvelopeError
	require.True(t, errors.As(err, &ee))
	assert.Same(t, in, ee.Response)
	assert.Equal(t, "username already taken", ee.Message)
	assert.Equal(t, json.Number("10021"), ee.Code)
	assert.Equal(t, "username already taken", ServerMessage(err))
}

func TestEnvelopeCodeComparisonIsStrict(t *testing.T) {
	tests := []struct {
		name string
		code any
		body string
		ok   bool
	}{
		{"number equals number", 0, `{"code":0}`, true},
		{"float body equals int", 0, `{"code":0.0}`, true},
		{"string does not equal number", 0, `{"code":"0"}`, false},
		{"string equals string", "0000", `{"code":"0000"}`, true},
		{"missing code", 0, `{"data":1}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ic := EnvelopeInterceptor(EnvelopeOptions{SuccessCode: tt.code})
			_, err := ic.Fulfilled(context.Background(), envelopeResponse(200, tt.body, ReturnData))
			assert.Equal(t, tt.ok, err == nil, "err: %v", err)
		})
	}
}

func TestEnvelopeBodyReturn(t *testing.T) {
	ic := EnvelopeInterceptor(EnvelopeOptions{})
	resp, err := ic.Fulfilled(context.Background(), envelopeResponse(200, `{"code":99,"anything":"goes"}`, ReturnBody))
	require.NoError(t, err)

	body, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "goes", body["anything"])
}

func TestEnvelopeBodyReturnKeepsAnyShape(t *testing.T) {
	tests := []struct {
		name string
		body string
		want any
	}{
		{"array", `[1,2,3]`, []any{json.Number("1"), json.Number("2"), json.Number("3")}},
		{"string", `"hello"`, "hello"},
		{"number", `42`, json.Number("42")},
		{"bool", `true`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ic := EnvelopeInterceptor(EnvelopeOptions{})
			resp, err := ic.Fulfilled(context.Background(), envelopeResponse(200, tt.body, ReturnBody))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Data)
		})
	}
}

func TestBodyReturnOverHTTPDecodesArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[1,2,3]`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()), WithResponseReturn(ReturnData))
	c.AddResponseInterceptor(EnvelopeInterceptor(EnvelopeOptions{}))

	out, err := Get[[]int](context.Background(), c, "/numbers", WithReturn(ReturnBody))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, out)
}

func TestEnvelopeInvalidJSON(t *testing.T) {
	ic := EnvelopeInterceptor(EnvelopeOptions{})
	_, err := ic.Fulfilled(context.Background(), envelopeResponse(200, `<html>`, ReturnData))

	var ee *EnvelopeError
	require.ErrorAs(t, err, &ee)
	assert.Error(t, ee.Err)
}

func TestEnvelopeNoContent(t *testing.T) {
	ic := EnvelopeInterceptor(EnvelopeOptions{})
	resp, err := ic.Fulfilled(context.Background(), envelopeResponse(http.StatusNoContent, "", ReturnData))
	require.NoError(t, err)
	assert.Nil(t, resp.Data)
}

func TestEnvelopeWithoutConfigPassesThrough(t *testing.T) {
	ic := EnvelopeInterceptor(EnvelopeOptions{})
	in := &Response{Status: 200, Body: []byte(`not json`)}
	out, err := ic.Fulfilled(context.Background(), in)
	require.NoError(t, err)
	assert.Same(t, in, out)
}

func TestRawReturnBypassesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Resource-Id", "42")
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created, not an envelope"))
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()), WithResponseReturn(ReturnData))
	c.AddResponseInterceptor(EnvelopeInterceptor(EnvelopeOptions{}))

	resp, err := c.Post(context.Background(), "/things", WithReturn(ReturnRaw))
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, "42", resp.Header.Get("X-Resource-Id"))
	assert.Equal(t, "created, not an envelope", string(resp.Body))
	assert.Nil(t, resp.Data)
}
