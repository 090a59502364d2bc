// Package session tracks the signed-in user and drives login, logout and
// the expired-session fallback.
package session

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dvcrn/console-client/internal/access"
	"github.com/dvcrn/console-client/internal/api"
	"github.com/dvcrn/console-client/internal/logger"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// LoginExpiredMode decides how an expired session is surfaced.
type LoginExpiredMode string

const (
	// ModePage logs the session out so the user is sent back to login.
	ModePage LoginExpiredMode = "page"
	// ModeModal keeps local state and raises the login-expired flag once
	// access has been checked, so the user can sign in again in place.
	ModeModal LoginExpiredMode = "modal"
)

// Session holds the user info, roles and permissions of the signed-in user.
type Session struct {
	api    *api.API
	store  access.Store
	logger zerolog.Logger

	mu          sync.RWMutex
	user        *api.User
	roles       []string
	permissions []string

	onLoginRequired func()
}

type Option func(*Session)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// OnLoginRequired is called after a logout, when the user has to sign in
// again.
func OnLoginRequired(fn func()) Option {
	return func(s *Session) { s.onLoginRequired = fn }
}

func New(a *api.API, store access.Store, opts ...Option) *Session {
	s := &Session{api: a, store: store, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the access store backing the session.
func (s *Session) Store() access.Store {
	return s.store
}

// Login signs in, stores the access token and loads the user info and
// access codes.
func (s *Session) Login(ctx context.Context, username, password string) (*api.User, error) {
	res, err := s.api.Login(ctx, api.LoginParams{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	if res.AccessToken == "" {
		return nil, fmt.Errorf("login response carries no access token")
	}
	if err := s.store.SetAccessToken(res.AccessToken); err != nil {
		return nil, err
	}

	user, codes, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.store.SetAccessCodes(codes)
	s.SetUserInfo(user)
	s.store.SetAccessChecked(true)
	s.store.SetLoginExpired(false)

	s.logger.Info().
		Str("username", user.Username).
		Str("token", logger.TokenPreview(res.AccessToken)).
		Msg("✅ Logged in")
	return user, nil
}

// Refresh reloads the user info and access codes for the stored token.
func (s *Session) Refresh(ctx context.Context) (*api.User, error) {
	user, codes, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.store.SetAccessCodes(codes)
	s.SetUserInfo(user)
	s.store.SetAccessChecked(true)
	return user, nil
}

func (s *Session) fetch(ctx context.Context) (*api.User, []string, error) {
	var (
		user  *api.User
		codes []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.api.Me(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch user info: %w", err)
		}
		user = u
		return nil
	})
	g.Go(func() error {
		c, err := s.api.AccessCodes(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch access codes: %w", err)
		}
		codes = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return user, codes, nil
}

// Logout tells the backend, whose answer is ignored, and clears all local
// session state.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("Logout request failed, clearing local state anyway")
	}
	s.SetUserInfo(nil)
	if err := s.store.Reset(); err != nil {
		return err
	}
	s.logger.Info().Msg("Logged out")
	if s.onLoginRequired != nil {
		s.onLoginRequired()
	}
	return nil
}

// Expire handles an access token that can no longer be refreshed: the token
// is dropped, then either the login-expired flag is raised or the session
// is logged out.
func (s *Session) Expire(ctx context.Context, mode LoginExpiredMode) error {
	if err := s.store.SetAccessToken(""); err != nil {
		return err
	}
	if mode == ModeModal && s.store.AccessChecked() {
		s.store.SetLoginExpired(true)
		s.logger.Warn().Msg("Login expired")
		return nil
	}
	return s.Logout(ctx)
}

// SetUserInfo replaces the user; roles and permissions follow it.
func (s *Session) SetUserInfo(u *api.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
	if u == nil {
		s.roles = nil
		s.permissions = nil
		return
	}
	s.roles = slices.Clone(u.Roles)
	s.permissions = slices.Clone(u.Permissions)
}

func (s *Session) UserInfo() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) IsSuperuser() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsSuperuser
}

// HasPermission reports whether the user holds code. Superusers hold all.
func (s *Session) HasPermission(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user != nil && s.user.IsSuperuser {
		return true
	}
	return slices.Contains(s.permissions, code)
}

func (s *Session) Roles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.roles)
}

func (s *Session) Permissions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.permissions)
}

func (s *Session) AccessCodes() []string {
	return s.store.AccessCodes()
}
