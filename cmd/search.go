package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tuneport/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries the destination catalog directly. Useful for checking what
// the matcher would see for a troublesome track.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	candidates, err := r.dest.SearchTracks(ctx, query, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(candidates, true)
	}

	if len(candidates) == 0 {
		return r.writePlainln("No results for %q", query)
	}

	r.writePlainln("%d results for %q:", len(candidates), query)
	for i, c := range candidates {
		r.writePlainln("  %d. %s [%d:%02d] (%s)",
			i+1, c.Title, c.DurationSeconds/60, c.DurationSeconds%60, c.RemoteID)
	}
	return nil
}
