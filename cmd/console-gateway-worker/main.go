//go:build js && wasm

package main

import (
	"github.com/dvcrn/console-client/internal/access"
	"github.com/dvcrn/console-client/internal/app"
	"github.com/dvcrn/console-client/internal/config"
	"github.com/dvcrn/console-client/internal/logger"
	"github.com/dvcrn/console-client/internal/server"
	"github.com/dvcrn/console-client/internal/session"
	"github.com/syumai/workers"
)

func main() {
	log := logger.New()

	// Settings come from worker bindings only.
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().Msg("📦 Using Cloudflare KV token store")
	kvBackend, err := access.NewKVBackend()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Cloudflare KV backend")
	}
	store := access.NewMemoryStore(access.WithBackend(kvBackend), access.WithLogger(logger.Component(log, "access")))

	console := app.New(app.Options{
		APIURL: cfg.APIURL,
		Preferences: app.Preferences{
			EnableRefreshToken: cfg.EnableRefreshToken,
			LoginExpiredMode:   session.LoginExpiredMode(cfg.LoginExpiredMode),
			Locale:             cfg.Locale,
		},
		Store:   store,
		Timeout: cfg.Timeout,
		Logger:  log,
	})

	srv := server.New(log, console, server.WithAdminKey(cfg.Gateway.AdminAPIKey))

	workers.Serve(srv)
}
