// Package app wires the request clients, API, session and access store
// into a ready-to-use console client.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/dvcrn/console-client/internal/access"
	"github.com/dvcrn/console-client/internal/api"
	"github.com/dvcrn/console-client/internal/logger"
	"github.com/dvcrn/console-client/internal/request"
	"github.com/dvcrn/console-client/internal/session"
	"github.com/rs/zerolog"
)

// Preferences are the application settings the request pipeline reads.
type Preferences struct {
	EnableRefreshToken bool
	LoginExpiredMode   session.LoginExpiredMode
	Locale             string
}

// DefaultPreferences matches the console defaults.
func DefaultPreferences() Preferences {
	return Preferences{
		EnableRefreshToken: true,
		LoginExpiredMode:   session.ModePage,
		Locale:             "zh-CN",
	}
}

type Options struct {
	APIURL      string
	Preferences Preferences
	// Store defaults to an in-memory store.
	Store access.Store
	// HTTPClient is shared by both clients so cookies set at login reach
	// the refresh endpoint.
	HTTPClient request.HTTPClient
	Timeout    time.Duration
	Logger     zerolog.Logger
	// OnError receives the user-facing message for failed requests.
	OnError func(msg string, err error)
	// OnLoginRequired is called when the session was logged out.
	OnLoginRequired func()
}

// Console is the assembled client.
type Console struct {
	Client      *request.Client
	Bare        *request.Client
	API         *api.API
	Session     *session.Session
	Store       access.Store
	Preferences Preferences

	logger zerolog.Logger
}

func New(opts Options) *Console {
	if opts.Preferences == (Preferences{}) {
		opts.Preferences = DefaultPreferences()
	}
	if opts.Preferences.LoginExpiredMode == "" {
		opts.Preferences.LoginExpiredMode = session.ModePage
	}
	if opts.Store == nil {
		opts.Store = access.NewMemoryStore()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = request.NewHTTPClient(opts.Timeout)
	}

	c := &Console{
		Store:       opts.Store,
		Preferences: opts.Preferences,
		logger:      opts.Logger,
	}

	c.Bare = request.New(opts.APIURL,
		request.WithHTTPClient(opts.HTTPClient),
		request.WithLogger(logger.Component(opts.Logger, "bare-client")),
	)
	c.Client = request.New(opts.APIURL,
		request.WithHTTPClient(opts.HTTPClient),
		request.WithLogger(logger.Component(opts.Logger, "client")),
		request.WithResponseReturn(request.ReturnData),
	)
	c.API = api.New(c.Client, c.Bare)
	c.Session = session.New(c.API, c.Store,
		session.WithLogger(logger.Component(opts.Logger, "session")),
		session.OnLoginRequired(opts.OnLoginRequired),
	)

	authLogger := logger.Component(opts.Logger, "auth")
	c.Client.AddResponseInterceptor(request.AuthenticateInterceptor(c.Client, request.AuthOptions{
		DoReAuthenticate:   c.doReAuthenticate,
		DoRefreshToken:     c.doRefreshToken,
		EnableRefreshToken: opts.Preferences.EnableRefreshToken,
		FormatToken:        request.BearerToken,
		ShouldReAuthenticate: func(err error) bool {
			return !request.ConfigOf(err).TargetsPath(api.LogoutPath)
		},
		Logger: &authLogger,
	}))

	envelopeLogger := logger.Component(opts.Logger, "envelope")
	c.Client.AddResponseInterceptor(request.EnvelopeInterceptor(request.EnvelopeOptions{
		CodeField:   "code",
		DataField:   "data",
		SuccessCode: 0,
		Logger:      &envelopeLogger,
	}))

	c.Client.AddRequestInterceptor(request.RequestInterceptor{Fulfilled: c.authorize})

	c.Client.AddResponseInterceptor(request.ErrorMessageInterceptor(
		request.MessagesFor(opts.Preferences.Locale),
		c.errorMessage(opts.OnError),
	))

	return c
}

// authorize attaches the access token, except on registration, and the
// locale header.
func (c *Console) authorize(_ context.Context, cfg *request.RequestConfig) (*request.RequestConfig, error) {
	if !cfg.TargetsPath(api.RegisterPath) {
		cfg.SetAuthorization(request.BearerToken(c.Store.AccessToken()))
	}
	cfg.Header.Set("Accept-Language", c.Preferences.Locale)
	return cfg, nil
}

func (c *Console) doRefreshToken(ctx context.Context) (string, error) {
	token, err := c.API.RefreshToken(ctx)
	if err != nil {
		return "", err
	}
	if err := c.Store.SetAccessToken(token); err != nil {
		return "", err
	}
	return token, nil
}

func (c *Console) doReAuthenticate(ctx context.Context) error {
	return c.Session.Expire(ctx, c.Preferences.LoginExpiredMode)
}

// errorMessage picks the message shown for a failed request: nothing for
// 401s, which the re-authentication flow already handles, or for logout,
// otherwise the server's own explanation or the mapped status message.
func (c *Console) errorMessage(onError func(string, error)) request.MakeErrorMessageFunc {
	return func(msg string, err error) {
		if request.StatusCode(err) == http.StatusUnauthorized {
			c.logger.Debug().Err(err).Msg("Request failed with 401, re-authentication already handled")
			return
		}
		if request.ConfigOf(err).TargetsPath(api.LogoutPath) {
			c.logger.Debug().Err(err).Msg("Logout request failed, ignoring")
			return
		}
		if serverMsg := request.ServerMessage(err); serverMsg != "" {
			msg = serverMsg
		}
		c.logger.Warn().Err(err).Str("message", msg).Msg("Request failed")
		if onError != nil {
			onError(msg, err)
		}
	}
}
