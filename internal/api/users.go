package api

import (
	"context"
	"io"

	"github.com/dvcrn/console-client/internal/request"
)

const usersPrefix = "/user"

type UserCreate struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Email    string   `json:"email,omitempty"`
	FullName string   `json:"full_name,omitempty"`
	IsActive *bool    `json:"is_active,omitempty"`
	RoleIDs  []string `json:"role_ids,omitempty"`
}

type UserUpdate struct {
	Email    *string  `json:"email,omitempty"`
	FullName *string  `json:"full_name,omitempty"`
	Password *string  `json:"password,omitempty"`
	IsActive *bool    `json:"is_active,omitempty"`
	RoleIDs  []string `json:"role_ids,omitempty"`
}

func (a *API) ListUsers(ctx context.Context, params ListParams) (*PageResponse[User], error) {
	page, err := request.Get[PageResponse[User]](ctx, a.Client, usersPrefix+"/", request.WithParams(params.values()))
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (a *API) GetUser(ctx context.Context, id string) (*User, error) {
	u, err := request.Get[User](ctx, a.Client, usersPrefix+"/"+id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) CreateUser(ctx context.Context, data UserCreate) (*User, error) {
	u, err := request.Post[User](ctx, a.Client, usersPrefix+"/", request.WithJSON(data))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) UpdateUser(ctx context.Context, id string, data UserUpdate) (*User, error) {
	u, err := request.Put[User](ctx, a.Client, usersPrefix+"/"+id, request.WithJSON(data))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser soft-deletes a user.
func (a *API) DeleteUser(ctx context.Context, id string) error {
	_, err := a.Client.Delete(ctx, usersPrefix+"/"+id)
	return err
}

func (a *API) BatchDeleteUsers(ctx context.Context, ids []string) error {
	_, err := a.Client.Delete(ctx, usersPrefix+"/batch", request.WithJSON(map[string][]string{"user_ids": ids}))
	return err
}

// UpdateUserAvatar uploads an avatar for another user.
func (a *API) UpdateUserAvatar(ctx context.Context, id, filename string, file io.Reader) (*User, error) {
	body, contentType, err := multipartFile(nil, filename, file)
	if err != nil {
		return nil, err
	}
	u, err := request.Patch[User](ctx, a.Client, usersPrefix+"/"+id+"/avatar", request.WithBody(body, contentType))
	if err != nil {
		return nil, err
	}
	return &u, nil
}
