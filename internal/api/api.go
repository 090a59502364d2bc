// Package api holds typed wrappers for the console backend endpoints.
package api

import (
	"net/url"
	"strconv"

	"github.com/dvcrn/console-client/internal/request"
)

// API calls the console backend. Client carries the authenticated
// interceptor chain and unwraps envelopes; Bare talks to the backend
// directly and is used for the token refresh.
type API struct {
	Client *request.Client
	Bare   *request.Client
}

func New(client, bare *request.Client) *API {
	return &API{Client: client, Bare: bare}
}

// PageResponse is the paginated list shape returned by list endpoints.
type PageResponse[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// StandardResponse is the envelope every endpoint answers with.
type StandardResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// ListParams are the paging, sorting and filter parameters shared by list
// endpoints. Filters are sent as additional query parameters.
type ListParams struct {
	Page     int
	PerPage  int
	Sort     string
	Search   string
	ViewMode string
	Filters  url.Values
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.ViewMode != "" {
		v.Set("view_mode", p.ViewMode)
	}
	for k, vals := range p.Filters {
		for _, val := range vals {
			v.Add(k, val)
		}
	}
	return v
}
