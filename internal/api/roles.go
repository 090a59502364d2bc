package api

import (
	"context"

	"github.com/dvcrn/console-client/internal/request"
)

const rolesPrefix = "/role"

type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Code        string       `json:"code"`
	Description string       `json:"description,omitempty"`
	CreatedAt   string       `json:"created_at,omitempty"`
	UpdatedAt   string       `json:"updated_at,omitempty"`
	IsDeleted   bool         `json:"is_deleted"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// RoleOption is the light-weight shape used by selectors.
type RoleOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RoleCreate struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	PermissionIDs []string `json:"permission_ids"`
}

type RoleUpdate struct {
	Code          *string  `json:"code,omitempty"`
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	PermissionIDs []string `json:"permission_ids,omitempty"`
}

func (a *API) ListRoles(ctx context.Context, params ListParams) (*PageResponse[Role], error) {
	page, err := request.Get[PageResponse[Role]](ctx, a.Client, rolesPrefix+"/", request.WithParams(params.values()))
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (a *API) RolesForSelector(ctx context.Context) ([]RoleOption, error) {
	return request.Get[[]RoleOption](ctx, a.Client, rolesPrefix+"/selector")
}

func (a *API) GetRole(ctx context.Context, id string) (*Role, error) {
	r, err := request.Get[Role](ctx, a.Client, rolesPrefix+"/"+id)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (a *API) CreateRole(ctx context.Context, data RoleCreate) (*Role, error) {
	if data.PermissionIDs == nil {
		data.PermissionIDs = []string{}
	}
	r, err := request.Post[Role](ctx, a.Client, rolesPrefix+"/", request.WithJSON(data))
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (a *API) UpdateRole(ctx context.Context, id string, data RoleUpdate) (*Role, error) {
	r, err := request.Put[Role](ctx, a.Client, rolesPrefix+"/"+id, request.WithJSON(data))
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (a *API) DeleteRole(ctx context.Context, id string) error {
	_, err := a.Client.Delete(ctx, rolesPrefix+"/"+id)
	return err
}

// SetRolePermissions replaces every permission of the role.
func (a *API) SetRolePermissions(ctx context.Context, id string, permissionIDs []string) (*Role, error) {
	if permissionIDs == nil {
		permissionIDs = []string{}
	}
	r, err := request.Put[Role](ctx, a.Client, rolesPrefix+"/"+id+"/permissions",
		request.WithJSON(map[string][]string{"permission_ids": permissionIDs}))
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (a *API) AssignPermission(ctx context.Context, roleID, permissionID string) (*Role, error) {
	r, err := request.Post[Role](ctx, a.Client, rolesPrefix+"/"+roleID+"/permissions/"+permissionID)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (a *API) RevokePermission(ctx context.Context, roleID, permissionID string) (*Role, error) {
	r, err := request.Delete[Role](ctx, a.Client, rolesPrefix+"/"+roleID+"/permissions/"+permissionID)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
