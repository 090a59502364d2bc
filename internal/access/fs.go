package access

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dvcrn/console-client/internal/config"
)

// FSBackend stores the token as JSON in a file readable only by the owner.
type FSBackend struct {
	Path string
}

func NewFSBackend(path string) *FSBackend {
	if path == "" {
		path = config.DefaultTokenPath()
	}
	return &FSBackend{Path: path}
}

func (f *FSBackend) Load() (*Record, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	if rec.AccessToken == "" {
		return nil, ErrNoCredentials
	}
	return &rec, nil
}

func (f *FSBackend) Save(rec *Record) error {
	if err := config.EnsureParentDir(f.Path); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token file: %w", err)
	}
	if err := os.WriteFile(f.Path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (f *FSBackend) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
