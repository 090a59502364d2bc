package access

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	keychainService = "console-client-credentials"
	keychainAccount = "console-client"
)

// runner executes a command and returns its stdout.
type runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// KeychainBackend stores the token in the macOS keychain through the
// security CLI. Reads are cached for a short while.
type KeychainBackend struct {
	mu       sync.RWMutex
	cached   *Record
	cachedAt time.Time
	cacheTTL time.Duration

	run    runner
	logger zerolog.Logger
}

func NewKeychainBackend(logger zerolog.Logger) *KeychainBackend {
	return &KeychainBackend{
		cacheTTL: 5 * time.Minute,
		run:      execRunner,
		logger:   logger,
	}
}

func (k *KeychainBackend) Load() (*Record, error) {
	k.mu.RLock()
	if k.cached != nil && time.Since(k.cachedAt) < k.cacheTTL {
		rec := *k.cached
		k.mu.RUnlock()
		return &rec, nil
	}
	k.mu.RUnlock()

	output, err := k.run("security", "find-generic-password", "-s", keychainService, "-w")
	if err != nil {
		k.logger.Debug().Err(err).Msg("No keychain entry found")
		return nil, ErrNoCredentials
	}

	var rec Record
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(output))), &rec); err != nil {
		return nil, fmt.Errorf("failed to parse JSON from keychain: %w", err)
	}
	if rec.AccessToken == "" {
		return nil, ErrNoCredentials
	}

	k.mu.Lock()
	k.cached = &rec
	k.cachedAt = time.Now()
	k.mu.Unlock()
	return &rec, nil
}

func (k *KeychainBackend) Save(rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if _, err := k.run("security", "add-generic-password", "-s", keychainService, "-a", keychainAccount, "-w", string(data), "-U"); err != nil {
		return fmt.Errorf("failed to update keychain: %w", err)
	}

	saved := *rec
	k.mu.Lock()
	k.cached = &saved
	k.cachedAt = time.Now()
	k.mu.Unlock()
	return nil
}

func (k *KeychainBackend) Clear() error {
	k.mu.Lock()
	k.cached = nil
	k.mu.Unlock()

	// A missing entry is already cleared.
	if _, err := k.run("security", "delete-generic-password", "-s", keychainService); err != nil {
		k.logger.Debug().Err(err).Msg("Keychain entry not deleted")
	}
	return nil
}
