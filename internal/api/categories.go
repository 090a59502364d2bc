package api

import (
	"context"

	"github.com/dvcrn/console-client/internal/request"
)

const categoriesPrefix = "/categories"

type Category struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description"`
	ParentID    *string    `json:"parent_id"`
	Children    []Category `json:"children,omitempty"`
}

type CategoryInput struct {
	Name        *string `json:"name,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
	ParentID    *string `json:"parent_id,omitempty"`
}

// CategoryTree returns the root categories with their children filled in.
func (a *API) CategoryTree(ctx context.Context) ([]Category, error) {
	return request.Get[[]Category](ctx, a.Client, categoriesPrefix+"/tree")
}

func (a *API) ListCategories(ctx context.Context, params ListParams) (*PageResponse[Category], error) {
	page, err := request.Get[PageResponse[Category]](ctx, a.Client, categoriesPrefix+"/", request.WithParams(params.values()))
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (a *API) GetCategory(ctx context.Context, id string) (*Category, error) {
	c, err := request.Get[Category](ctx, a.Client, categoriesPrefix+"/"+id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (a *API) CreateCategory(ctx context.Context, data CategoryInput) (*Category, error) {
	c, err := request.Post[Category](ctx, a.Client, categoriesPrefix+"/", request.WithJSON(data))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (a *API) UpdateCategory(ctx context.Context, id string, data CategoryInput) (*Category, error) {
	c, err := request.Put[Category](ctx, a.Client, categoriesPrefix+"/"+id, request.WithJSON(data))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (a *API) DeleteCategory(ctx context.Context, id string) error {
	_, err := a.Client.Delete(ctx, categoriesPrefix+"/"+id)
	return err
}
