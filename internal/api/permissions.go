package api

import (
	"context"

	"github.com/dvcrn/console-client/internal/request"
)

const permissionsPrefix = "/permission"

type Permission struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Group       string `json:"group,omitempty"`
	Description string `json:"description,omitempty"`
}

type PermissionInput struct {
	Code        string `json:"code,omitempty"`
	Name        string `json:"name,omitempty"`
	Group       string `json:"group,omitempty"`
	Description string `json:"description,omitempty"`
}

func (a *API) ListPermissions(ctx context.Context, params ListParams) (*PageResponse[Permission], error) {
	page, err := request.Get[PageResponse[Permission]](ctx, a.Client, permissionsPrefix, request.WithParams(params.values()))
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// AllPermissions returns every permission without paging.
func (a *API) AllPermissions(ctx context.Context) ([]Permission, error) {
	res, err := request.Get[struct {
		Items []Permission `json:"items"`
	}](ctx, a.Client, permissionsPrefix+"/all")
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (a *API) CreatePermission(ctx context.Context, data PermissionInput) (*Permission, error) {
	p, err := request.Post[Permission](ctx, a.Client, permissionsPrefix, request.WithJSON(data))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) UpdatePermission(ctx context.Context, id string, data PermissionInput) (*Permission, error) {
	p, err := request.Put[Permission](ctx, a.Client, permissionsPrefix+"/"+id, request.WithJSON(data))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) DeletePermission(ctx context.Context, id string) error {
	_, err := a.Client.Delete(ctx, permissionsPrefix+"/"+id)
	return err
}
