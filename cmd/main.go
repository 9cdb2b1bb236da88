package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/tuneport/internal/services"
	"github.com/desertthunder/tuneport/internal/shared"
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

	var spotifyService *services.SpotifyService
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify); err == nil {
			spotifyService = svc
		}
	}

	youtubeService := services.NewYouTubeService(config.Credentials.YouTube.ProxyURL)
	if config.Credentials.YouTube.AuthFile != "" {
		if err := youtubeService.Authenticate(context.Background(), map[string]string{
			"auth_file": config.Credentials.YouTube.AuthFile,
		}); err != nil {
			logger.Warn("youtube authentication failed", "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Spotify: spotifyService,
		Dest:    youtubeService,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "tuneport",
		Usage:    "Migrate a Spotify library to YouTube Music",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
