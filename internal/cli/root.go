// Package cli implements the consolectl commands.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/dvcrn/console-client/internal/access"
	"github.com/dvcrn/console-client/internal/app"
	"github.com/dvcrn/console-client/internal/config"
	"github.com/dvcrn/console-client/internal/logger"
	"github.com/dvcrn/console-client/internal/request"
	"github.com/dvcrn/console-client/internal/session"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// state is shared by all commands of one invocation.
type state struct {
	configPath string
	apiURL     string
	tokenStore string
	logLevel   string
	locale     string

	cfg     *config.Config
	log     zerolog.Logger
	console *app.Console
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	st := &state{}

	rootCmd := &cobra.Command{
		Use:           "consolectl",
		Short:         "Command line client for the admin console API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&st.configPath, "config", config.DefaultPath(), "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&st.apiURL, "api-url", "", "Backend API base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&st.tokenStore, "token-store", "", "Token store: fs, keychain, env or memory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&st.locale, "locale", "", "Locale for error messages and Accept-Language, one of "+supportedLocales()+" (overrides config)")

	rootCmd.AddCommand(
		loginCmd(st),
		logoutCmd(st),
		statusCmd(st),
		usersCmd(st),
		rolesCmd(st),
		categoriesCmd(st),
		filesCmd(st),
		requestCmd(st),
		serveCmd(st),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	return rootCmd
}

func (st *state) setup(cmd *cobra.Command) error {
	if cmd.Name() == "help" {
		return nil
	}
	cfg, err := config.Load(st.configPath)
	if err != nil {
		return err
	}
	if st.apiURL != "" {
		cfg.APIURL = st.apiURL
	}
	if st.tokenStore != "" {
		cfg.TokenStore = st.tokenStore
	}
	if st.locale != "" {
		cfg.Locale = st.locale
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	st.cfg = cfg

	if st.logLevel != "" {
		st.log = logger.NewWithLevel(st.logLevel)
	} else {
		st.log = logger.New()
	}

	store, err := newStore(cfg, st.log)
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	st.console = app.New(app.Options{
		APIURL: cfg.APIURL,
		Preferences: app.Preferences{
			EnableRefreshToken: cfg.EnableRefreshToken,
			LoginExpiredMode:   session.LoginExpiredMode(cfg.LoginExpiredMode),
			Locale:             cfg.Locale,
		},
		Store:   store,
		Timeout: cfg.Timeout,
		Logger:  st.log,
		OnError: func(msg string, _ error) {
			fmt.Fprintln(errOut, "Error:", msg)
		},
		OnLoginRequired: func() {
			fmt.Fprintln(errOut, "Session ended, run `consolectl login` to sign in again.")
		},
	})
	return nil
}

func supportedLocales() string {
	tags := request.SupportedLocales()
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

func newStore(cfg *config.Config, log zerolog.Logger) (access.Store, error) {
	storeLog := logger.Component(log, "access")
	switch cfg.TokenStore {
	case config.TokenStoreFS:
		return access.NewMemoryStore(access.WithBackend(access.NewFSBackend(cfg.TokenPath)), access.WithLogger(storeLog)), nil
	case config.TokenStoreKeychain:
		return access.NewMemoryStore(access.WithBackend(access.NewKeychainBackend(storeLog)), access.WithLogger(storeLog)), nil
	case config.TokenStoreEnv:
		return access.NewMemoryStore(access.WithBackend(access.NewEnvBackend()), access.WithLogger(storeLog)), nil
	case config.TokenStoreMemory:
		return access.NewMemoryStore(access.WithLogger(storeLog)), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownTokenStore, cfg.TokenStore)
}
