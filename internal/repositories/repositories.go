// package repositories provides the persistence layer for resolved matches.
//
// The matches table memoizes the outcome of search-and-match so repeated
// sync runs skip the destination search for tracks already resolved. The
// cache stores positive outcomes only: a track that failed to match is
// retried on the next run, since the destination catalog may have gained it.
package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tuneport/internal/match"
	"github.com/desertthunder/tuneport/internal/shared"
)

// CachedMatch is one persisted source-to-destination resolution.
type CachedMatch struct {
	ID              string
	SourceID        string
	RemoteID        string
	Score           float64
	DurationDeltaMS int
	CreatedAt       time.Time
}

// MatchRepository stores resolved matches in the matches table.
type MatchRepository struct {
	db *sql.DB
}

// NewMatchRepository creates a new MatchRepository with the given database connection
func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create inserts a resolved match with a generated id. A duplicate source id
// is silently ignored: the first resolution wins and reruns are no-ops.
func (r *MatchRepository) Create(m *CachedMatch) error {
	if m.SourceID == "" || m.RemoteID == "" {
		return fmt.Errorf("%w: match needs source and remote ids", shared.ErrInvalidInput)
	}

	m.ID = shared.GenerateID()
	m.CreatedAt = time.Now()

	query := `
		INSERT INTO matches (id, source_id, remote_id, score, duration_delta_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, m.ID, m.SourceID, m.RemoteID, m.Score, m.DurationDeltaMS, m.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to insert match: %w", err)
	}

	return nil
}

// GetBySourceID retrieves the cached match for a source track id. A miss is
// (nil, nil), not an error.
func (r *MatchRepository) GetBySourceID(sourceID string) (*CachedMatch, error) {
	query := `
		SELECT id, source_id, remote_id, score, duration_delta_ms, created_at
		FROM matches
		WHERE source_id = ?
	`

	var m CachedMatch
	err := r.db.QueryRow(query, sourceID).Scan(
		&m.ID, &m.SourceID, &m.RemoteID, &m.Score, &m.DurationDeltaMS, &m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query match: %w", err)
	}

	return &m, nil
}

// Delete removes a cached match, forcing re-resolution on the next run.
func (r *MatchRepository) Delete(sourceID string) error {
	_, err := r.db.Exec(`DELETE FROM matches WHERE source_id = ?`, sourceID)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return nil
}

// Count returns the number of cached matches.
func (r *MatchRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM matches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return n, nil
}

// MatchCacheAdapter exposes MatchRepository through the lookup/store shape
// the sync pipeline consumes. Persistence failures degrade to cache misses
// so a broken database never blocks a migration.
type MatchCacheAdapter struct {
	repo   *MatchRepository
	logger *log.Logger
}

// NewMatchCacheAdapter creates a new MatchCacheAdapter with the given repository
func NewMatchCacheAdapter(repo *MatchRepository, logger *log.Logger) *MatchCacheAdapter {
	return &MatchCacheAdapter{repo: repo, logger: logger}
}

// Lookup returns the cached result for a source track id.
func (a *MatchCacheAdapter) Lookup(sourceID string) (match.Result, bool) {
	cached, err := a.repo.GetBySourceID(sourceID)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("match cache lookup failed", "source_id", sourceID, "error", err)
		}
		return match.Result{}, false
	}
	if cached == nil {
		return match.Result{}, false
	}

	return match.Result{
		RemoteID:        cached.RemoteID,
		Score:           cached.Score,
		DurationDeltaMS: cached.DurationDeltaMS,
	}, true
}

// Store persists a resolved match. Unmatched results are never stored.
func (a *MatchCacheAdapter) Store(sourceID string, result match.Result) {
	if !result.Matched() {
		return
	}

	err := a.repo.Create(&CachedMatch{
		SourceID:        sourceID,
		RemoteID:        result.RemoteID,
		Score:           result.Score,
		DurationDeltaMS: result.DurationDeltaMS,
	})
	if err != nil && a.logger != nil {
		a.logger.Warn("match cache store failed", "source_id", sourceID, "error", err)
	}
}
