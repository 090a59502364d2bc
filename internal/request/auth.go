package request

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultLogoutPath is the endpoint whose failures never start a refresh.
const DefaultLogoutPath = "/auth/logout"

// refreshState is the single-flight state owned by one Client.
type refreshState struct {
	mu         sync.Mutex
	refreshing bool
	queue      []func(token string)
}

// begin claims the refresh slot. If a refresh is already running it enqueues
// waiter instead and returns false.
func (s *refreshState) begin(waiter func(token string)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshing {
		s.queue = append(s.queue, waiter)
		return false
	}
	s.refreshing = true
	return true
}

// finish ends the refresh and hands back the waiters in enqueue order.
func (s *refreshState) finish() []func(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	waiters := s.queue
	s.queue = nil
	s.refreshing = false
	return waiters
}

func (s *refreshState) inFlight() (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshing, len(s.queue)
}

// Refreshing reports whether a token refresh is in flight and how many
// requests are waiting on it.
func (c *Client) Refreshing() (bool, int) {
	return c.refresh.inFlight()
}

// AuthOptions configures AuthenticateInterceptor.
type AuthOptions struct {
	// DoReAuthenticate invalidates the session when refresh is impossible.
	DoReAuthenticate func(ctx context.Context) error
	// DoRefreshToken obtains and stores a new access token.
	DoRefreshToken func(ctx context.Context) (string, error)
	// EnableRefreshToken turns the refresh flow on. When off every 401 goes
	// straight to DoReAuthenticate.
	EnableRefreshToken bool
	// FormatToken renders the Authorization header value. An empty result
	// removes the header.
	FormatToken func(token string) string
	// ShouldReAuthenticate may veto handling of a particular 401.
	ShouldReAuthenticate func(err error) bool
	// LogoutPath defaults to DefaultLogoutPath.
	LogoutPath string

	Logger *zerolog.Logger
}

// BearerToken formats a token as a bearer credential.
func BearerToken(token string) string {
	if token == "" {
		return ""
	}
	return "Bearer " + token
}

type authenticator struct {
	client *Client
	opts   AuthOptions
	logger zerolog.Logger
}

type replayResult struct {
	resp *Response
	err  error
}

// AuthenticateInterceptor handles 401 responses for c: it refreshes the
// access token once for any number of concurrent failures, replays the
// failed requests, and falls back to re-authentication when refreshing is
// disabled or fails.
func AuthenticateInterceptor(c *Client, opts AuthOptions) ResponseInterceptor {
	if opts.FormatToken == nil {
		opts.FormatToken = BearerToken
	}
	if opts.LogoutPath == "" {
		opts.LogoutPath = DefaultLogoutPath
	}
	if opts.DoRefreshToken == nil {
		opts.EnableRefreshToken = false
	}
	a := &authenticator{client: c, opts: opts, logger: zerolog.Nop()}
	if opts.Logger != nil {
		a.logger = *opts.Logger
	}
	return ResponseInterceptor{Rejected: a.rejected}
}

func (a *authenticator) rejected(ctx context.Context, err error) (*Response, error) {
	cfg := ConfigOf(err)
	if cfg == nil {
		return nil, err
	}
	// A failing logout must not start another logout.
	if cfg.TargetsPath(a.opts.LogoutPath) {
		return nil, err
	}
	if StatusCode(err) != http.StatusUnauthorized {
		return nil, err
	}
	if a.opts.ShouldReAuthenticate != nil && !a.opts.ShouldReAuthenticate(err) {
		a.logger.Warn().Str("url", cfg.URL).Msg("ShouldReAuthenticate returned false, skipping token refresh")
		return nil, err
	}
	if cfg.skipReauth {
		return nil, err
	}
	if !a.opts.EnableRefreshToken || cfg.IsRetryRequest {
		return nil, a.reauthenticate(ctx, err)
	}

	done := make(chan replayResult, 1)
	waiter := func(token string) {
		replay := cfg.Clone()
		replay.IsRetryRequest = true
		replay.skipReauth = token == ""
		replay.SetAuthorization(a.opts.FormatToken(token))
		go func() {
			resp, err := a.replay(ctx, replay)
			done <- replayResult{resp: resp, err: err}
		}()
	}

	if !a.client.refresh.begin(waiter) {
		a.logger.Debug().Str("url", cfg.URL).Msg("Token refresh in flight, queueing request")
		select {
		case res := <-done:
			return res.resp, res.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	cfg.IsRetryRequest = true
	a.logger.Info().Str("url", cfg.URL).Msg("🔄 Access token rejected, refreshing...")

	// The refresh always runs to completion so queued requests get an answer.
	token, refreshErr := a.opts.DoRefreshToken(context.WithoutCancel(ctx))
	waiters := a.client.refresh.finish()

	if refreshErr != nil {
		a.logger.Error().Err(refreshErr).Int("waiters", len(waiters)).Msg("❌ Refresh token failed, please login again")
		for _, w := range waiters {
			w("")
		}
		if reauthErr := a.doReAuthenticate(ctx); reauthErr != nil {
			return nil, errors.Join(refreshErr, reauthErr)
		}
		return nil, refreshErr
	}

	a.logger.Info().Int("waiters", len(waiters)).Msg("✅ Access token refreshed, replaying requests")
	cfg.SetAuthorization(a.opts.FormatToken(token))
	for _, w := range waiters {
		w(token)
	}

	replay := cfg.Clone()
	return a.replay(ctx, replay)
}

// replay resends cfg and routes a failure back through the 401 handling so a
// replay that is rejected again reaches the re-authentication fallback.
func (a *authenticator) replay(ctx context.Context, cfg *RequestConfig) (*Response, error) {
	resp, err := a.client.send(ctx, cfg)
	if err != nil {
		return a.rejected(ctx, err)
	}
	return resp, nil
}

// reauthenticate runs the fallback and returns the original error, joined
// with the fallback's own error if it failed.
func (a *authenticator) reauthenticate(ctx context.Context, original error) error {
	if err := a.doReAuthenticate(ctx); err != nil {
		return errors.Join(original, err)
	}
	return original
}

func (a *authenticator) doReAuthenticate(ctx context.Context) error {
	if a.opts.DoReAuthenticate == nil {
		return nil
	}
	a.logger.Warn().Msg("Access token or refresh token is invalid or expired")
	if err := a.opts.DoReAuthenticate(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Re-authentication failed")
		return err
	}
	return nil
}
