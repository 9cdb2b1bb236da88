package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tuneport/internal/executor"
	"github.com/desertthunder/tuneport/internal/match"
	"github.com/desertthunder/tuneport/internal/models"
	"github.com/desertthunder/tuneport/internal/services"
	"github.com/desertthunder/tuneport/internal/shared"
)

// LikedTargetName is the ledger/summary name for the liked-songs collection.
const LikedTargetName = "Liked Songs"

// MatchCache memoizes resolved matches across runs. Implementations must
// treat failures as misses; the pipeline never checks cache health.
type MatchCache interface {
	Lookup(sourceID string) (match.Result, bool)
	Store(sourceID string, result match.Result)
}

// SyncOptions selects which targets of a library export to reconcile.
type SyncOptions struct {
	PlaylistName string // Sync only the named playlist
	LikedOnly    bool   // Sync only the liked-songs collection
}

// TargetSummary reports the outcome of reconciling one target.
type TargetSummary struct {
	Name           string // Destination playlist name (prefixed)
	RemoteID       string // Destination playlist id
	Created        bool   // Playlist was created this run
	Total          int    // Exported tracks considered
	Matched        int    // Tracks resolved to a destination id
	AlreadyPresent int    // Resolved tracks the destination already had
	Added          int    // Tracks written this run
	Failed         int    // Tracks recorded in the failure ledger
}

// SyncResult contains all data from a full reconciliation run.
type SyncResult struct {
	Targets  []TargetSummary
	Failures []models.FailureRecord
}

// TotalAdded sums tracks written across all targets.
func (r *SyncResult) TotalAdded() int {
	n := 0
	for _, t := range r.Targets {
		n += t.Added
	}
	return n
}

// SyncEngine reconciles an exported library against a destination catalog.
type SyncEngine struct {
	dest   services.Destination
	exec   *executor.Executor
	cache  MatchCache
	cfg    shared.SyncConfig
	logger *log.Logger
}

// NewSyncEngine creates a SyncEngine. The cache may be nil, in which case
// every track is resolved by live search.
func NewSyncEngine(dest services.Destination, exec *executor.Executor, cache MatchCache, cfg shared.SyncConfig, logger *log.Logger) *SyncEngine {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 5
	}
	if cfg.AddBatchSize <= 0 {
		cfg.AddBatchSize = 50
	}

	return &SyncEngine{
		dest:   dest,
		exec:   exec,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// SyncLibrary reconciles the selected targets of the library against the
// destination. Per-track failures accumulate in the result; only a broken
// export, an unknown playlist name, or a target-level destination failure
// aborts the run.
func (e *SyncEngine) SyncLibrary(ctx context.Context, library *models.Library, opts SyncOptions, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if e.dest == nil {
		return nil, fmt.Errorf("%w: destination not initialized", shared.ErrServiceUnavailable)
	}
	if library == nil {
		return nil, fmt.Errorf("%w: nil library", shared.ErrInvalidLibrary)
	}
	if err := library.Validate(); err != nil {
		return nil, err
	}

	result := &SyncResult{}

	if opts.LikedOnly {
		return result, e.syncLiked(ctx, library.LikedSongs, result, progress)
	}

	if opts.PlaylistName != "" {
		for _, pl := range library.Playlists {
			if pl.Name == opts.PlaylistName {
				return result, e.syncPlaylist(ctx, pl, result, progress)
			}
		}
		return nil, fmt.Errorf("%w: %q not in export", shared.ErrPlaylistNotFound, opts.PlaylistName)
	}

	for _, pl := range library.Playlists {
		if err := e.syncPlaylist(ctx, pl, result, progress); err != nil {
			return result, err
		}
	}

	if len(library.LikedSongs) > 0 {
		if err := e.syncLiked(ctx, library.LikedSongs, result, progress); err != nil {
			return result, err
		}
	}

	return result, nil
}

// syncPlaylist runs one playlist through locate, resolve, diff and apply.
func (e *SyncEngine) syncPlaylist(ctx context.Context, pl models.Playlist, result *SyncResult, progress chan<- ProgressUpdate) error {
	destName := e.cfg.PlaylistPrefix + shared.DecodeText(pl.Name)
	summary := TargetSummary{Name: destName, Total: len(pl.Tracks)}

	e.sendProgress(progress, locateUpdate(destName))

	playlistID, created, err := e.locatePlaylist(ctx, destName)
	if err != nil {
		return fmt.Errorf("locating %q: %w", destName, err)
	}
	summary.RemoteID = playlistID
	summary.Created = created
	if created {
		e.sendProgress(progress, createdUpdate(destName, playlistID))
	}

	resolved, failures := e.resolveTracks(ctx, pl.Name, pl.Tracks, progress)
	summary.Matched = len(resolved)
	summary.Failed = len(failures)
	result.Failures = append(result.Failures, failures...)

	members, err := e.dest.PlaylistMembers(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("listing members of %q: %w", destName, err)
	}

	missing, present := diffMembers(resolved, members)
	summary.AlreadyPresent = present
	e.sendProgress(progress, diffUpdate(present, len(missing)))

	added, writeFailures := e.applyBatches(ctx, pl.Name, playlistID, missing, progress)
	summary.Added = added
	summary.Failed += len(writeFailures)
	result.Failures = append(result.Failures, writeFailures...)

	result.Targets = append(result.Targets, summary)
	e.sendProgress(progress, targetDoneUpdate(summary))
	return nil
}

// syncLiked reconciles the liked-songs collection. Tracks are added by
// rating rather than playlist insertion, one call per track.
func (e *SyncEngine) syncLiked(ctx context.Context, tracks []models.Track, result *SyncResult, progress chan<- ProgressUpdate) error {
	summary := TargetSummary{
		Name:     LikedTargetName,
		RemoteID: e.dest.LikedPlaylistID(),
		Total:    len(tracks),
	}

	e.sendProgress(progress, locateUpdate(LikedTargetName))

	resolved, failures := e.resolveTracks(ctx, LikedTargetName, tracks, progress)
	summary.Matched = len(resolved)
	summary.Failed = len(failures)
	result.Failures = append(result.Failures, failures...)

	members, err := e.dest.PlaylistMembers(ctx, summary.RemoteID)
	if err != nil {
		return fmt.Errorf("listing liked songs: %w", err)
	}

	missing, present := diffMembers(resolved, members)
	summary.AlreadyPresent = present
	e.sendProgress(progress, diffUpdate(present, len(missing)))

	for i, rt := range missing {
		e.sendProgress(progress, likeUpdate(i+1, len(missing), rt.track))

		err := e.exec.Do(ctx, func(ctx context.Context) error {
			return e.dest.LikeTrack(ctx, rt.remoteID)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.warn("like failed", "track", rt.track.String(), "error", err)
			summary.Failed++
			result.Failures = append(result.Failures, models.NewFailureRecord(LikedTargetName, rt.track, models.ReasonWriteFailed))
			continue
		}
		summary.Added++
	}

	result.Targets = append(result.Targets, summary)
	e.sendProgress(progress, targetDoneUpdate(summary))
	return nil
}

// locatePlaylist finds the destination playlist by exact name, creating it
// when absent. Returns the playlist id and whether it was created.
func (e *SyncEngine) locatePlaylist(ctx context.Context, name string) (string, bool, error) {
	var playlistID string
	err := e.exec.Do(ctx, func(ctx context.Context) error {
		id, err := e.dest.FindPlaylistByName(ctx, name)
		playlistID = id
		return err
	})
	if err == nil {
		return playlistID, false, nil
	}
	if !errors.Is(err, shared.ErrPlaylistNotFound) {
		return "", false, err
	}

	err = e.exec.Do(ctx, func(ctx context.Context) error {
		id, err := e.dest.CreatePlaylist(ctx, name, "Migrated by tuneport")
		playlistID = id
		return err
	})
	if err != nil {
		return "", false, err
	}
	return playlistID, true, nil
}

// resolvedTrack pairs an exported track with its destination id.
type resolvedTrack struct {
	track    models.Track
	remoteID string
}

// resolveTracks maps each exported track to a destination id, collecting
// no-match failures. An unresolvable track never stops the loop.
func (e *SyncEngine) resolveTracks(ctx context.Context, targetName string, tracks []models.Track, progress chan<- ProgressUpdate) ([]resolvedTrack, []models.FailureRecord) {
	var resolved []resolvedTrack
	var failures []models.FailureRecord

	for i, track := range tracks {
		e.sendProgress(progress, resolveUpdate(i+1, len(tracks), track))

		res, err := e.resolveTrack(ctx, track)
		if err != nil || !res.Matched() {
			if ctx.Err() != nil {
				// Cancellation is not a per-track failure; leave the rest
				// for the next run.
				break
			}
			if err != nil {
				e.warn("resolution failed", "track", track.String(), "error", err)
			}
			failures = append(failures, models.NewFailureRecord(targetName, track, models.ReasonNoMatch))
			continue
		}

		resolved = append(resolved, resolvedTrack{track: track, remoteID: res.RemoteID})
	}

	return resolved, failures
}

// resolveTrack finds the destination id for one track: cache first, then a
// throttling-aware search ranked by the match rules. A search failure is a
// failed resolution, not a failed run.
func (e *SyncEngine) resolveTrack(ctx context.Context, track models.Track) (match.Result, error) {
	if err := track.Validate(); err != nil {
		return match.Result{}, err
	}

	if e.cache != nil {
		if res, ok := e.cache.Lookup(track.ID); ok {
			return res, nil
		}
	}

	var candidates []models.Candidate
	err := e.exec.Do(ctx, func(ctx context.Context) error {
		found, err := e.dest.SearchTracks(ctx, track.Query(), e.cfg.SearchLimit)
		candidates = found
		return err
	})
	if err != nil {
		return match.Result{}, fmt.Errorf("%w: %v", shared.ErrSearchFailed, err)
	}

	res := match.Match(track, candidates, match.Config{DurationToleranceMS: e.cfg.DurationToleranceMS})
	if res.Matched() && e.cache != nil {
		e.cache.Store(track.ID, res)
	}
	return res, nil
}

// applyBatches writes missing tracks to the playlist in fixed-size batches.
// A failed batch marks its tracks as write failures and the next batch still
// runs, so one poisoned request cannot sink the rest of the playlist.
func (e *SyncEngine) applyBatches(ctx context.Context, sourceName, playlistID string, missing []resolvedTrack, progress chan<- ProgressUpdate) (int, []models.FailureRecord) {
	var failures []models.FailureRecord
	added := 0

	batchSize := e.cfg.AddBatchSize
	totalBatches := (len(missing) + batchSize - 1) / batchSize

	for i := 0; i < len(missing); i += batchSize {
		end := i + batchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[i:end]

		e.sendProgress(progress, applyUpdate(i/batchSize+1, totalBatches, len(batch)))

		remoteIDs := make([]string, len(batch))
		for j, rt := range batch {
			remoteIDs[j] = rt.remoteID
		}

		err := e.exec.Do(ctx, func(ctx context.Context) error {
			return e.dest.AddPlaylistItems(ctx, playlistID, remoteIDs)
		})
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			e.warn("batch add failed", "playlist", sourceName, "count", len(batch), "error", err)
			for _, rt := range batch {
				failures = append(failures, models.NewFailureRecord(sourceName, rt.track, models.ReasonWriteFailed))
			}
			continue
		}

		added += len(batch)
	}

	return added, failures
}

func (e *SyncEngine) warn(msg string, kv ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, kv...)
	}
}

// diffMembers splits resolved tracks into those missing from the member set
// and a count of those already present. Duplicate resolutions collapse to
// one pending add so a batch never carries the same id twice.
func diffMembers(resolved []resolvedTrack, members []string) ([]resolvedTrack, int) {
	memberSet := make(map[string]struct{}, len(members))
	for _, id := range members {
		memberSet[id] = struct{}{}
	}

	var missing []resolvedTrack
	pending := make(map[string]struct{})
	present := 0

	for _, rt := range resolved {
		if _, ok := memberSet[rt.remoteID]; ok {
			present++
			continue
		}
		if _, ok := pending[rt.remoteID]; ok {
			present++
			continue
		}
		pending[rt.remoteID] = struct{}{}
		missing = append(missing, rt)
	}

	return missing, present
}
