package request

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsParamsHeadersAndBody(t *testing.T) {
	var got *http.Request
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/", WithHTTPClient(srv.Client()))
	_, err := c.Post(context.Background(), "users",
		WithParams(url.Values{"role": {"admin", "operator"}}),
		WithHeader("X-Trace", "abc"),
		WithJSON(map[string]string{"username": "ada"}),
	)
	require.NoError(t, err)

	assert.Equal(t, "/api/users", got.URL.Path)
	assert.Equal(t, []string{"admin", "operator"}, got.URL.Query()["role"])
	assert.Equal(t, "abc", got.Header.Get("X-Trace"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.NotEmpty(t, got.Header.Get("X-Request-Id"))
	assert.JSONEq(t, `{"username":"ada"}`, gotBody)
}

func TestClientRequestInterceptorRunsOnEveryCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Header.Get("Accept-Language")))
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	c.AddRequestInterceptor(RequestInterceptor{
		Fulfilled: func(_ context.Context, cfg *RequestConfig) (*RequestConfig, error) {
			cfg.Header.Set("Accept-Language", "zh-CN")
			return cfg, nil
		},
	})

	resp, err := c.Get(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, "zh-CN", string(resp.Body))
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(base)
	_, err := c.Get(context.Background(), "/gone")

	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.False(t, ne.Timeout)
	assert.Equal(t, "/gone", ConfigOf(err).URL)
	assert.Zero(t, StatusCode(err))
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := New(srv.URL, WithTimeout(50*time.Millisecond))
	_, err := c.Get(context.Background(), "/slow")

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"nope"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	_, err := c.Get(context.Background(), "/bad")

	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	assert.Equal(t, "nope", ServerMessage(err))
}

func TestRequestConfigClone(t *testing.T) {
	cfg := &RequestConfig{
		URL:    "/x",
		Header: http.Header{"A": {"1"}},
		Params: url.Values{"p": {"1"}},
		Body:   []byte("b"),
	}
	cp := cfg.Clone()
	cp.Header.Set("A", "2")
	cp.Params.Set("p", "2")
	cp.Body[0] = 'c'
	cp.SetAuthorization("Bearer t")

	assert.Equal(t, "1", cfg.Header.Get("A"))
	assert.Equal(t, "1", cfg.Params.Get("p"))
	assert.Equal(t, "b", string(cfg.Body))
	assert.Empty(t, cfg.Header.Get("Authorization"))

	cp.SetAuthorization("")
	assert.Empty(t, cp.Header.Values("Authorization"))
}

func TestDecodeGeneric(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0,"data":{"items":[{"id":"1"}],"total":1}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()), WithResponseReturn(ReturnData))
	c.AddResponseInterceptor(EnvelopeInterceptor(EnvelopeOptions{}))

	type page struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Total int `json:"total"`
	}
	out, err := Get[page](context.Background(), c, "/list")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "1", out.Items[0].ID)
}
