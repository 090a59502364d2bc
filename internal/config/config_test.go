package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"CONSOLE_API_URL", "CONSOLE_LOCALE", "CONSOLE_TOKEN_STORE", "CONSOLE_ENABLE_REFRESH_TOKEN", "PORT", "ADMIN_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://console.example.com/api
locale: en-US
enable_refresh_token: false
login_expired_mode: modal
token_store: keychain
timeout: 15s
gateway:
  port: "9000"
`), 0600))
	t.Setenv("CONSOLE_TOKEN_STORE", "memory")
	t.Setenv("PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://console.example.com/api", cfg.APIURL)
	assert.Equal(t, "en-US", cfg.Locale)
	assert.False(t, cfg.EnableRefreshToken)
	assert.Equal(t, "modal", cfg.LoginExpiredMode)
	assert.Equal(t, TokenStoreMemory, cfg.TokenStore)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, "9100", cfg.Gateway.Port)
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: [unterminated"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsBadRefreshFlag(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONSOLE_ENABLE_REFRESH_TOKEN", "sometimes")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIURL)

	cfg.APIURL = "http://localhost"
	cfg.TokenStore = "vault"
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownTokenStore)

	cfg.TokenStore = TokenStoreFS
	cfg.LoginExpiredMode = "toast"
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownExpireMode)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.APIURL = "http://localhost:8000"

	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
