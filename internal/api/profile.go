package api

import (
	"context"

	"github.com/dvcrn/console-client/internal/request"
)

const mePath = usersPrefix + "/me"

// User is a user together with role and permission codes.
type User struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email,omitempty"`
	FullName    string   `json:"full_name,omitempty"`
	AvatarURL   string   `json:"avatar_url,omitempty"`
	IsActive    bool     `json:"is_active"`
	IsSuperuser bool     `json:"is_superuser"`
	IsDeleted   bool     `json:"is_deleted,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

type ProfileUpdate struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
}

type PasswordChange struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Me returns the signed-in user.
func (a *API) Me(ctx context.Context) (*User, error) {
	u, err := request.Get[User](ctx, a.Client, mePath)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) UpdateMyProfile(ctx context.Context, data ProfileUpdate) (*User, error) {
	u, err := request.Patch[User](ctx, a.Client, mePath, request.WithJSON(data))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *API) ChangeMyPassword(ctx context.Context, data PasswordChange) error {
	_, err := a.Client.Patch(ctx, mePath+"/password", request.WithJSON(data))
	return err
}
