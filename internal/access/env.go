package access

import "github.com/dvcrn/console-client/internal/env"

// EnvTokenVar is read by EnvBackend.
const EnvTokenVar = "CONSOLE_ACCESS_TOKEN"

// EnvBackend reads the token from CONSOLE_ACCESS_TOKEN. Updates are kept in
// memory only.
type EnvBackend struct{}

func NewEnvBackend() *EnvBackend {
	return &EnvBackend{}
}

func (e *EnvBackend) Load() (*Record, error) {
	token, ok := env.Get(EnvTokenVar)
	if !ok || token == "" {
		return nil, ErrNoCredentials
	}
	return &Record{AccessToken: token}, nil
}

// Save is a no-op: the environment cannot be written back.
func (e *EnvBackend) Save(*Record) error {
	return nil
}

func (e *EnvBackend) Clear() error {
	return nil
}
