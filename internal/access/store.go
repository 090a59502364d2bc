// Package access keeps the process-wide access token and the flags the
// request pipeline consults while handling expired sessions.
package access

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dvcrn/console-client/internal/logger"
	"github.com/rs/zerolog"
)

// ErrNoCredentials is returned by a Backend that has nothing stored.
var ErrNoCredentials = errors.New("no stored access token")

// Store exposes the access token and session flags.
type Store interface {
	AccessToken() string
	// SetAccessToken replaces the token. An empty token clears it.
	SetAccessToken(token string) error

	AccessChecked() bool
	SetAccessChecked(checked bool)

	LoginExpired() bool
	SetLoginExpired(expired bool)

	AccessCodes() []string
	SetAccessCodes(codes []string)

	// Reset clears the token, the codes and both flags.
	Reset() error
}

// Record is what a Backend persists.
type Record struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at,omitempty"`
	UpdatedAt   int64  `json:"updated_at"`
}

// Backend persists the access token between processes.
type Backend interface {
	Load() (*Record, error)
	Save(rec *Record) error
	Clear() error
}

// MemoryStore is a Store guarded by a mutex that writes the token through
// to an optional Backend.
type MemoryStore struct {
	mu            sync.RWMutex
	token         string
	accessChecked bool
	loginExpired  bool
	accessCodes   []string

	backend Backend
	logger  zerolog.Logger
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithBackend persists the token through b.
func WithBackend(b Backend) Option {
	return func(s *MemoryStore) { s.backend = b }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *MemoryStore) { s.logger = l }
}

// NewMemoryStore creates a store and loads the persisted token, if any.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.backend == nil {
		return s
	}

	rec, err := s.backend.Load()
	switch {
	case errors.Is(err, ErrNoCredentials):
		s.logger.Debug().Msg("No stored access token")
	case err != nil:
		s.logger.Warn().Err(err).Msg("Failed to load stored access token")
	case rec != nil:
		s.token = rec.AccessToken
		s.logger.Debug().Str("token", logger.TokenPreview(s.token)).Msg("Loaded stored access token")
	}
	return s
}

func (s *MemoryStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemoryStore) SetAccessToken(token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if s.backend == nil {
		return nil
	}
	if token == "" {
		if err := s.backend.Clear(); err != nil {
			return fmt.Errorf("failed to clear stored access token: %w", err)
		}
		return nil
	}

	rec := &Record{AccessToken: token, UpdatedAt: time.Now().Unix()}
	if exp, ok := TokenExpiry(token); ok {
		rec.ExpiresAt = exp.Unix()
	}
	if err := s.backend.Save(rec); err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	return nil
}

func (s *MemoryStore) AccessChecked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessChecked
}

func (s *MemoryStore) SetAccessChecked(checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessChecked = checked
}

func (s *MemoryStore) LoginExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loginExpired
}

func (s *MemoryStore) SetLoginExpired(expired bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginExpired = expired
}

func (s *MemoryStore) AccessCodes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.accessCodes...)
}

func (s *MemoryStore) SetAccessCodes(codes []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessCodes = append([]string(nil), codes...)
}

func (s *MemoryStore) Reset() error {
	s.mu.Lock()
	s.accessChecked = false
	s.loginExpired = false
	s.accessCodes = nil
	s.mu.Unlock()
	return s.SetAccessToken("")
}
