package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dvcrn/console-client/internal/request"
)

const (
	LoginPath    = "/auth/login"
	RegisterPath = "/auth/register"
	RefreshPath  = "/auth/refresh"
	LogoutPath   = request.DefaultLogoutPath
	CodesPath    = "/auth/codes"
)

// ErrNoAccessToken is returned when the refresh endpoint answers without a
// token.
var ErrNoAccessToken = errors.New("refresh response carries no access token")

type LoginParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	AccessToken string `json:"access_token"`
}

type RegisterParams struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
	AgreePolicy     bool   `json:"agree_policy,omitempty"`
}

type RegisterResult struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Message  string `json:"message,omitempty"`
}

func (a *API) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	res, err := request.Post[LoginResult](ctx, a.Client, LoginPath, request.WithJSON(params))
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *API) Register(ctx context.Context, params RegisterParams) (*RegisterResult, error) {
	res, err := request.Post[RegisterResult](ctx, a.Client, RegisterPath, request.WithJSON(params))
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// RefreshToken asks the backend for a new access token. It goes through the
// bare client so a failing refresh never re-enters the 401 handling.
func (a *API) RefreshToken(ctx context.Context) (string, error) {
	resp, err := a.Bare.Post(ctx, RefreshPath, request.WithReturn(request.ReturnRaw))
	if err != nil {
		return "", err
	}
	return parseRefreshToken(resp.Body)
}

// parseRefreshToken accepts {"access_token": ...}, {"data": "<token>"} and
// {"data": {"access_token": ...}}.
func parseRefreshToken(body []byte) (string, error) {
	var payload struct {
		AccessToken string          `json:"access_token"`
		Data        json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if payload.AccessToken != "" {
		return payload.AccessToken, nil
	}
	if len(payload.Data) > 0 {
		var s string
		if err := json.Unmarshal(payload.Data, &s); err == nil && s != "" {
			return s, nil
		}
		var nested LoginResult
		if err := json.Unmarshal(payload.Data, &nested); err == nil && nested.AccessToken != "" {
			return nested.AccessToken, nil
		}
	}
	return "", ErrNoAccessToken
}

func (a *API) Logout(ctx context.Context) error {
	_, err := a.Client.Post(ctx, LogoutPath)
	return err
}

// AccessCodes returns the permission codes granted to the current user.
func (a *API) AccessCodes(ctx context.Context) ([]string, error) {
	return request.Get[[]string](ctx, a.Client, CodesPath)
}
