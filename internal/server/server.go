package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dvcrn/console-client/internal/access"
	"github.com/dvcrn/console-client/internal/app"
	"github.com/dvcrn/console-client/internal/env"
	"github.com/dvcrn/console-client/internal/logger"
	"github.com/dvcrn/console-client/internal/request"
	"github.com/rs/zerolog"
)

// APIPrefix is stripped before a request is forwarded to the backend.
const APIPrefix = "/api"

// hopHeaders are not copied between the backend and the caller.
var hopHeaders = map[string]bool{
	"Connection":        true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
	"Content-Length":    true,
}

// Server exposes the authenticated console client over HTTP. Callers do not
// send backend credentials: the gateway attaches its own session and
// refreshes it transparently.
type Server struct {
	console  *app.Console
	mux      *http.ServeMux
	logger   zerolog.Logger
	adminKey string
}

type Option func(*Server)

// WithAdminKey sets the key protecting /admin routes. Without it the
// ADMIN_API_KEY environment variable is used.
func WithAdminKey(key string) Option {
	return func(s *Server) { s.adminKey = key }
}

func New(logger zerolog.Logger, console *app.Console, opts ...Option) *Server {
	s := &Server{
		console: console,
		mux:     http.NewServeMux(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.healthHandler)
	s.mux.HandleFunc(APIPrefix+"/", s.adminMiddleware(s.forwardHandler))
	s.mux.HandleFunc("/admin/session", s.adminMiddleware(s.sessionHandler))
	s.mux.HandleFunc("/", s.notFoundHandler)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.loggingMiddleware(s.mux).ServeHTTP(w, r)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.logger.Info().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Msg("Incoming request")
		next.ServeHTTP(w, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Dur("duration", time.Since(start)).
			Msg("Finished request")
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Warn().
		Str("method", r.Method).
		Str("uri", r.RequestURI).
		Str("remote_addr", r.RemoteAddr).
		Str("user_agent", r.UserAgent()).
		Msg("Unhandled route")
	http.NotFound(w, r)
}

// forwardHandler sends /api/<path> to the backend through the authenticated
// client and relays the backend's answer as is. It is mounted behind
// adminMiddleware since it spends the gateway's own session.
func (s *Server) forwardHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error reading request body")
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)
		return
	}
	defer r.Body.Close()

	cfg := &request.RequestConfig{
		URL:            strings.TrimPrefix(r.URL.Path, APIPrefix),
		Method:         r.Method,
		Header:         http.Header{},
		Params:         r.URL.Query(),
		ResponseReturn: request.ReturnRaw,
	}
	if len(body) > 0 {
		cfg.Body = body
	}
	// The caller's admin credentials never reach the backend.
	r.Header.Del("Authorization")
	r.Header.Del("X-API-Key")
	for _, h := range []string{"Content-Type", "Accept"} {
		if v := r.Header.Get(h); v != "" {
			cfg.Header.Set(h, v)
		}
	}

	resp, err := s.console.Client.Request(r.Context(), cfg)
	if err != nil {
		if failed := request.ResponseOf(err); failed != nil {
			s.logger.Warn().
				Int("status_code", failed.Status).
				Str("url", cfg.URL).
				Msg("Received error response from backend")
			s.writeResponse(w, failed)
			return
		}
		status := http.StatusBadGateway
		if request.IsTimeout(err) {
			status = http.StatusGatewayTimeout
		}
		s.logger.Error().Err(err).Str("url", cfg.URL).Msg("Error making request to backend")
		writeJSON(w, status, map[string]string{
			"error": request.MessageFor(request.MessagesFor(s.console.Preferences.Locale), err),
		})
		return
	}

	s.writeResponse(w, resp)
}

func (s *Server) writeResponse(w http.ResponseWriter, resp *request.Response) {
	for key, values := range resp.Header {
		if hopHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(resp.Status)
	if _, err := w.Write(resp.Body); err != nil {
		s.logger.Error().Err(err).Msg("Error writing response body to client")
	}
}

type sessionStatus struct {
	HasToken           bool   `json:"hasToken"`
	Token              string `json:"token,omitempty"`
	ExpiresAt          int64  `json:"expiresAt,omitempty"`
	MinutesUntilExpiry *int64 `json:"minutesUntilExpiry,omitempty"`
	IsExpired          bool   `json:"isExpired"`
	AccessChecked      bool   `json:"accessChecked"`
	LoginExpired       bool   `json:"loginExpired"`
	Refreshing         bool   `json:"refreshing"`
	Waiters            int    `json:"waiters"`
	Username           string `json:"username,omitempty"`
}

// sessionHandler reports (GET), replaces (POST) or ends (DELETE) the
// gateway's backend session.
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.sessionStatus())
	case http.MethodPost:
		var reqBody struct {
			AccessToken string `json:"accessToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			s.logger.Error().Err(err).Msg("Failed to parse request body")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if reqBody.AccessToken == "" {
			http.Error(w, "Missing required field: accessToken", http.StatusBadRequest)
			return
		}
		store := s.console.Store
		if err := store.SetAccessToken(reqBody.AccessToken); err != nil {
			s.logger.Error().Err(err).Msg("Failed to update access token")
			http.Error(w, "Failed to update access token", http.StatusInternalServerError)
			return
		}
		store.SetLoginExpired(false)
		s.logger.Info().Str("token", logger.TokenPreview(reqBody.AccessToken)).Msg("Access token updated")
		writeJSON(w, http.StatusOK, s.sessionStatus())
	case http.MethodDelete:
		if err := s.console.Session.Logout(r.Context()); err != nil {
			s.logger.Error().Err(err).Msg("Failed to clear session")
			http.Error(w, "Failed to clear session", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, s.sessionStatus())
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) sessionStatus() sessionStatus {
	store := s.console.Store
	token := store.AccessToken()
	refreshing, waiters := s.console.Client.Refreshing()
	st := sessionStatus{
		HasToken:      token != "",
		AccessChecked: store.AccessChecked(),
		LoginExpired:  store.LoginExpired(),
		Refreshing:    refreshing,
		Waiters:       waiters,
	}
	if token != "" {
		st.Token = logger.TokenPreview(token)
	}
	if exp, ok := access.TokenExpiry(token); ok {
		minutes := int64(time.Until(exp) / time.Minute)
		st.ExpiresAt = exp.Unix()
		st.MinutesUntilExpiry = &minutes
		st.IsExpired = !exp.After(time.Now())
	}
	if u := s.console.Session.UserInfo(); u != nil {
		st.Username = u.Username
	}
	return st
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) resolveAdminKey() (string, error) {
	if s.adminKey != "" {
		return s.adminKey, nil
	}
	key, ok := env.Get("ADMIN_API_KEY")
	if !ok || key == "" {
		return "", errors.New("ADMIN_API_KEY environment variable not set")
	}
	return key, nil
}
