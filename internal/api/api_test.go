package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dvcrn/console-client/internal/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method      string
	path        string
	query       map[string][]string
	contentType string
	body        []byte
}

func newTestAPI(t *testing.T, data any) (*API, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.Query()
		rec.contentType = r.Header.Get("Content-Type")
		rec.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "message": "ok", "data": data})
	}))
	t.Cleanup(srv.Close)

	client := request.New(srv.URL, request.WithHTTPClient(srv.Client()), request.WithResponseReturn(request.ReturnData))
	client.AddResponseInterceptor(request.EnvelopeInterceptor(request.EnvelopeOptions{}))
	bare := request.New(srv.URL, request.WithHTTPClient(srv.Client()))
	return New(client, bare), rec
}

func TestListUsersSendsPagingParams(t *testing.T) {
	a, rec := newTestAPI(t, map[string]any{
		"items":       []map[string]any{{"id": "u1", "username": "ada", "roles": []string{"admin"}}},
		"total":       1,
		"page":        2,
		"per_page":    10,
		"total_pages": 1,
	})

	page, err := a.ListUsers(context.Background(), ListParams{
		Page:     2,
		PerPage:  10,
		Sort:     "-created_at",
		ViewMode: "active",
		Filters:  map[string][]string{"role_ids": {"r1", "r2"}},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/user/", rec.path)
	assert.Equal(t, []string{"2"}, rec.query["page"])
	assert.Equal(t, []string{"10"}, rec.query["per_page"])
	assert.Equal(t, []string{"-created_at"}, rec.query["sort"])
	assert.Equal(t, []string{"r1", "r2"}, rec.query["role_ids"])
	assert.NotContains(t, rec.query, "search")

	require.Len(t, page.Items, 1)
	assert.Equal(t, "ada", page.Items[0].Username)
	assert.Equal(t, []string{"admin"}, page.Items[0].Roles)
	assert.Equal(t, 2, page.Page)
}

func TestBatchDeleteUsersSendsBody(t *testing.T) {
	a, rec := newTestAPI(t, nil)

	require.NoError(t, a.BatchDeleteUsers(context.Background(), []string{"u1", "u2"}))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/user/batch", rec.path)
	assert.JSONEq(t, `{"user_ids":["u1","u2"]}`, string(rec.body))
}

func TestRoleEndpoints(t *testing.T) {
	a, rec := newTestAPI(t, map[string]any{"id": "r1", "code": "admin", "permissions": []map[string]string{{"id": "p1", "code": "user:list"}}})
	ctx := context.Background()

	role, err := a.AssignPermission(ctx, "r1", "p1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/role/r1/permissions/p1", rec.path)
	require.Len(t, role.Permissions, 1)
	assert.Equal(t, "user:list", role.Permissions[0].Code)

	_, err = a.SetRolePermissions(ctx, "r1", nil)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, rec.method)
	assert.JSONEq(t, `{"permission_ids":[]}`, string(rec.body))

	_, err = a.RevokePermission(ctx, "r1", "p1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, rec.method)
}

func TestAllPermissionsUnwrapsItems(t *testing.T) {
	a, rec := newTestAPI(t, map[string]any{"items": []map[string]string{{"id": "p1"}, {"id": "p2"}}})

	perms, err := a.AllPermissions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/permission/all", rec.path)
	assert.Len(t, perms, 2)
}

func TestCategoryTree(t *testing.T) {
	a, rec := newTestAPI(t, []map[string]any{{
		"id": "c1", "name": "Root", "slug": "root", "description": nil, "parent_id": nil,
		"children": []map[string]any{{"id": "c2", "name": "Leaf", "slug": "leaf", "parent_id": "c1"}},
	}})

	tree, err := a.CategoryTree(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/categories/tree", rec.path)
	require.Len(t, tree, 1)
	assert.Nil(t, tree[0].ParentID)
	require.Len(t, tree[0].Children, 1)
	require.NotNil(t, tree[0].Children[0].ParentID)
	assert.Equal(t, "c1", *tree[0].Children[0].ParentID)
}

func TestUploadByProfileIsMultipart(t *testing.T) {
	a, rec := newTestAPI(t, map[string]any{"id": "f1", "object_name": "avatars/a.png", "profile_name": "avatars"})

	file, err := a.UploadByProfile(context.Background(), "avatars", "a.png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, "avatars/a.png", file.ObjectName)

	assert.Equal(t, "/file/upload/by_profile", rec.path)
	assert.True(t, strings.HasPrefix(rec.contentType, "multipart/form-data; boundary="))
	assert.Contains(t, string(rec.body), `name="profile_name"`)
	assert.Contains(t, string(rec.body), `filename="a.png"`)
	assert.Contains(t, string(rec.body), "PNGDATA")
}

func TestFileExistsAndPresignedURL(t *testing.T) {
	a, rec := newTestAPI(t, true)
	ok, err := a.FileExists(context.Background(), "avatars", "a.png")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a.png"}, rec.query["object_name"])

	a, _ = newTestAPI(t, "https://cdn.example.com/a.png?sig=1")
	u, err := a.PresignedGetURL(context.Background(), "avatars", "a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png?sig=1", u)
}

func TestLoginAndAccessCodes(t *testing.T) {
	a, rec := newTestAPI(t, map[string]string{"access_token": "tok-1"})
	res, err := a.Login(context.Background(), LoginParams{Username: "ada", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.AccessToken)
	assert.Equal(t, "/auth/login", rec.path)
	assert.JSONEq(t, `{"username":"ada","password":"pw"}`, string(rec.body))

	a, _ = newTestAPI(t, []string{"user:list", "user:create"})
	codes, err := a.AccessCodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"user:list", "user:create"}, codes)
}

func TestParseRefreshToken(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
		err  bool
	}{
		{"top level", `{"access_token":"t1"}`, "t1", false},
		{"data string", `{"data":"t2","status":200}`, "t2", false},
		{"nested", `{"code":0,"data":{"access_token":"t3"}}`, "t3", false},
		{"missing", `{"code":0,"data":null}`, "", true},
		{"not json", `nope`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRefreshToken([]byte(tt.body))
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRefreshTokenUsesBareClient(t *testing.T) {
	a, rec := newTestAPI(t, map[string]string{"access_token": "tok-2"})

	tok, err := a.RefreshToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/auth/refresh", rec.path)
}
