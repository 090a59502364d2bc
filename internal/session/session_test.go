package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dvcrn/console-client/internal/access"
	"github.com/dvcrn/console-client/internal/api"
	"github.com/dvcrn/console-client/internal/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend struct {
	superuser bool
	logouts   atomic.Int32
}

func (b *backend) handler() http.Handler {
	envelope := func(w http.ResponseWriter, data any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "message": "ok", "data": data})
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, map[string]string{"access_token": "tok-1"})
	})
	mux.HandleFunc("GET /user/me", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, map[string]any{
			"id":           "u1",
			"username":     "ada",
			"is_superuser": b.superuser,
			"roles":        []string{"editor"},
			"permissions":  []string{"category:list"},
		})
	})
	mux.HandleFunc("GET /auth/codes", func(w http.ResponseWriter, r *http.Request) {
		envelope(w, []string{"AC_100"})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		b.logouts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	return mux
}

func newTestSession(t *testing.T, b *backend, opts ...Option) (*Session, *access.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	client := request.New(srv.URL, request.WithHTTPClient(srv.Client()), request.WithResponseReturn(request.ReturnData))
	client.AddResponseInterceptor(request.EnvelopeInterceptor(request.EnvelopeOptions{}))
	store := access.NewMemoryStore()
	return New(api.New(client, client), store, opts...), store
}

func TestLogin(t *testing.T) {
	s, store := newTestSession(t, &backend{})

	user, err := s.Login(context.Background(), "ada", "pw")
	require.NoError(t, err)

	assert.Equal(t, "ada", user.Username)
	assert.Equal(t, "tok-1", store.AccessToken())
	assert.True(t, store.AccessChecked())
	assert.False(t, store.LoginExpired())
	assert.Equal(t, []string{"AC_100"}, s.AccessCodes())
	assert.Equal(t, []string{"editor"}, s.Roles())
	assert.Equal(t, []string{"category:list"}, s.Permissions())
	assert.Same(t, user, s.UserInfo())
}

func TestHasPermission(t *testing.T) {
	s, _ := newTestSession(t, &backend{})
	_, err := s.Login(context.Background(), "ada", "pw")
	require.NoError(t, err)

	assert.True(t, s.HasPermission("category:list"))
	assert.False(t, s.HasPermission("user:delete"))

	s.SetUserInfo(&api.User{Username: "root", IsSuperuser: true})
	assert.True(t, s.IsSuperuser())
	assert.True(t, s.HasPermission("user:delete"))
	assert.Empty(t, s.Permissions())
}

func TestLogoutClearsStateEvenWhenRequestFails(t *testing.T) {
	b := &backend{}
	var loginRequired atomic.Int32
	s, store := newTestSession(t, b, OnLoginRequired(func() { loginRequired.Add(1) }))
	_, err := s.Login(context.Background(), "ada", "pw")
	require.NoError(t, err)
	store.SetLoginExpired(true)

	require.NoError(t, s.Logout(context.Background()))

	assert.Equal(t, int32(1), b.logouts.Load())
	assert.Equal(t, int32(1), loginRequired.Load())
	assert.Nil(t, s.UserInfo())
	assert.Empty(t, store.AccessToken())
	assert.False(t, store.AccessChecked())
	assert.False(t, store.LoginExpired())
	assert.Empty(t, s.AccessCodes())
}

func TestExpireModalRaisesFlag(t *testing.T) {
	b := &backend{}
	s, store := newTestSession(t, b)
	_, err := s.Login(context.Background(), "ada", "pw")
	require.NoError(t, err)

	require.NoError(t, s.Expire(context.Background(), ModeModal))

	assert.Empty(t, store.AccessToken())
	assert.True(t, store.LoginExpired())
	assert.NotNil(t, s.UserInfo())
	assert.Zero(t, b.logouts.Load())
}

func TestExpireModalBeforeAccessCheckLogsOut(t *testing.T) {
	b := &backend{}
	s, store := newTestSession(t, b)
	require.NoError(t, store.SetAccessToken("tok-0"))

	require.NoError(t, s.Expire(context.Background(), ModeModal))

	assert.False(t, store.LoginExpired())
	assert.Equal(t, int32(1), b.logouts.Load())
}

func TestExpirePageLogsOut(t *testing.T) {
	b := &backend{}
	s, store := newTestSession(t, b)
	_, err := s.Login(context.Background(), "ada", "pw")
	require.NoError(t, err)

	require.NoError(t, s.Expire(context.Background(), ModePage))

	assert.False(t, store.LoginExpired())
	assert.Nil(t, s.UserInfo())
	assert.Equal(t, int32(1), b.logouts.Load())
}
