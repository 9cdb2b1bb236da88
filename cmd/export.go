package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/tuneport/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultLibraryFile = "library.json"

// ExportLibrary walks the authenticated Spotify library and writes the
// export document consumed by the sync commands.
func (r *Runner) ExportLibrary(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: set spotify client_id and client_secret in config.toml", shared.ErrMissingCredentials)
	}

	token, err := loadToken(cmd.String("token-file"))
	if err != nil {
		return err
	}
	r.spotify.SetToken(ctx, token)

	r.logger.Info("exporting library")
	library, err := r.spotify.ExportLibrary(ctx)
	if err != nil {
		return err
	}

	data, err := shared.MarshalJSON(library, true)
	if err != nil {
		return fmt.Errorf("failed to marshal library: %w", err)
	}

	output := cmd.String("output")
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	tracks := len(library.LikedSongs)
	for _, pl := range library.Playlists {
		tracks += len(pl.Tracks)
	}
	return r.writePlainln("Exported %d liked songs and %d playlists (%d tracks) to %s",
		len(library.LikedSongs), len(library.Playlists), tracks, output)
}
