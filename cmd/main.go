package main

import (
	"context"
	"errors"
	"os"

	"github.com/replayfm/replay/internal/auth"
	"github.com/replayfm/replay/internal/repositories"
	"github.com/replayfm/replay/internal/services"
	"github.com/replayfm/replay/internal/shared"
	"github.com/replayfm/replay/internal/store"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var sessionStore store.SessionStore
	var snapshots *repositories.SnapshotRepository

	if db, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			logger.Warn("migrations failed, session will not persist", "error", err)
			sessionStore = store.NewMemoryStore()
		} else {
			sessionStore = store.NewSQLiteStore(db)
			snapshots = repositories.NewSnapshotRepository(db)
		}
	} else {
		logger.Warn("database unavailable, session will not persist", "error", err)
		sessionStore = store.NewMemoryStore()
	}

	backend := services.NewBackendService(config.Backend.BaseURL, nil)
	spotify := services.NewSpotifyService("")

	var manager *auth.Manager
	if config.Credentials.Spotify.ClientID != "" {
		m, err := auth.NewManager(auth.ManagerOpts{
			Store:       sessionStore,
			ClientID:    config.Credentials.Spotify.ClientID,
			RedirectURI: config.RedirectURI(),
			Logger:      logger,
			Backend:     backend,
		})
		if err != nil {
			logger.Warn("session manager unavailable", "error", err)
		} else {
			manager = m
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:    config,
		Manager:   manager,
		Spotify:   spotify,
		Backend:   backend,
		Snapshots: snapshots,
		Logger:    logger,
	})

	app := &cli.Command{
		Name:     "replay",
		Usage:    "Spotify listening stats from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
