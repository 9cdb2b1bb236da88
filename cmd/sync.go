package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/tuneport/internal/executor"
	"github.com/desertthunder/tuneport/internal/formatter"
	"github.com/desertthunder/tuneport/internal/ledger"
	"github.com/desertthunder/tuneport/internal/models"
	"github.com/desertthunder/tuneport/internal/repositories"
	"github.com/desertthunder/tuneport/internal/shared"
	"github.com/desertthunder/tuneport/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SyncRun reconciles an exported library against the destination without the
// TUI, logging progress and printing the summary when done.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	library, err := loadLibrary(cmd.String("library"))
	if err != nil {
		return err
	}

	engine, cleanup := r.buildEngine(!cmd.Bool("no-cache"))
	defer cleanup()

	opts := tasks.SyncOptions{
		PlaylistName: cmd.String("playlist"),
		LikedOnly:    cmd.Bool("liked-only"),
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for update := range progress {
			r.logger.Info(update.Phase.String(),
				"step", update.Step, "total", update.Total, "message", update.Message)
		}
	}()

	result, err := engine.SyncLibrary(ctx, library, opts, progress)
	close(progress)
	<-drained

	if result != nil {
		r.recordFailures(result.Failures)
	}
	if err != nil {
		return err
	}

	return r.writePlain("%s", formatter.SummaryToText(result))
}

// buildEngine assembles the sync engine from config: the throttling-aware
// executor and, when available, the SQLite-backed match cache. A cache that
// cannot be opened degrades to live search rather than blocking the run.
func (r *Runner) buildEngine(useCache bool) (*tasks.SyncEngine, func()) {
	exec := executor.New(executor.Opts{
		BackoffBase: r.config.Sync.BackoffBase(),
		BackoffMax:  r.config.Sync.BackoffMax(),
		RateLimit:   r.config.Sync.RateLimit,
	})

	var cache tasks.MatchCache
	cleanup := func() {}

	if useCache && r.config.Database.Path != "" {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			r.logger.Warn("match cache unavailable, resolving by live search", "error", err)
		} else if err := shared.RunMigrations(db); err != nil {
			r.logger.Warn("match cache migrations failed, resolving by live search", "error", err)
			db.Close()
		} else {
			shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
			cache = repositories.NewMatchCacheAdapter(repositories.NewMatchRepository(db), r.logger)
			cleanup = func() { db.Close() }
		}
	}

	return tasks.NewSyncEngine(r.dest, exec, cache, r.config.Sync, r.logger), cleanup
}

// recordFailures appends ledger entries, logging rather than failing the run
// when the ledger itself cannot be written.
func (r *Runner) recordFailures(failures []models.FailureRecord) {
	if len(failures) == 0 {
		return
	}
	if err := ledger.Append(r.ledgerPath(), failures); err != nil {
		r.logger.Error("failed to record failures", "error", err, "count", len(failures))
	}
}

func (r *Runner) ledgerPath() string {
	if r.config.Ledger.Path != "" {
		return r.config.Ledger.Path
	}
	return ledger.DefaultPath
}

// loadLibrary reads an export document produced by the export command.
func loadLibrary(path string) (*models.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read library export: %v", shared.ErrInvalidLibrary, err)
	}

	var library models.Library
	if err := json.Unmarshal(data, &library); err != nil {
		return nil, fmt.Errorf("%w: failed to parse library export: %v", shared.ErrInvalidLibrary, err)
	}
	return &library, nil
}
