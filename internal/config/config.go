// Package config loads the console client settings from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dvcrn/console-client/internal/env"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownTokenStore = errors.New("unknown token store")
	ErrUnknownExpireMode = errors.New("unknown login expired mode")
	ErrMissingAPIURL     = errors.New("api_url is required")
)

const (
	TokenStoreFS       = "fs"
	TokenStoreKeychain = "keychain"
	TokenStoreEnv      = "env"
	TokenStoreMemory   = "memory"
)

type Gateway struct {
	Port        string `yaml:"port"`
	AdminAPIKey string `yaml:"admin_api_key"`
}

type Config struct {
	APIURL             string        `yaml:"api_url"`
	Locale             string        `yaml:"locale"`
	EnableRefreshToken bool          `yaml:"enable_refresh_token"`
	LoginExpiredMode   string        `yaml:"login_expired_mode"`
	TokenStore         string        `yaml:"token_store"`
	TokenPath          string        `yaml:"token_path"`
	Timeout            time.Duration `yaml:"timeout"`
	Gateway            Gateway       `yaml:"gateway"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Locale:             "zh-CN",
		EnableRefreshToken: true,
		LoginExpiredMode:   "page",
		TokenStore:         TokenStoreFS,
		Timeout:            60 * time.Second,
		Gateway:            Gateway{Port: "8080"},
	}
}

// Load reads path on top of the defaults and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := env.Get("CONSOLE_API_URL"); ok && v != "" {
		c.APIURL = v
	}
	if v, ok := env.Get("CONSOLE_LOCALE"); ok && v != "" {
		c.Locale = v
	}
	if v, ok := env.Get("CONSOLE_TOKEN_STORE"); ok && v != "" {
		c.TokenStore = v
	}
	if v, ok := env.Get("CONSOLE_ENABLE_REFRESH_TOKEN"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CONSOLE_ENABLE_REFRESH_TOKEN %q: %w", v, err)
		}
		c.EnableRefreshToken = b
	}
	if v, ok := env.Get("PORT"); ok && v != "" {
		c.Gateway.Port = v
	}
	if v, ok := env.Get("ADMIN_API_KEY"); ok && v != "" {
		c.Gateway.AdminAPIKey = v
	}
	return nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return ErrMissingAPIURL
	}
	switch c.TokenStore {
	case TokenStoreFS, TokenStoreKeychain, TokenStoreEnv, TokenStoreMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTokenStore, c.TokenStore)
	}
	switch c.LoginExpiredMode {
	case "page", "modal":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownExpireMode, c.LoginExpiredMode)
	}
	return nil
}

// Save writes the config as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := EnsureParentDir(path); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
