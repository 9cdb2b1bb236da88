package models

import (
	"fmt"

	"github.com/desertthunder/tuneport/internal/shared"
)

// Track is a single song as exported from the source catalog.
// Immutable once exported; artists are pre-joined in catalog order.
type Track struct {
	Name       string `json:"name"`
	Artists    string `json:"artists"`
	DurationMS int    `json:"duration_ms"`
	ID         string `json:"id"`
}

// Validate checks export data integrity. A non-positive duration means the
// export itself is broken, not that the track failed to match.
func (t Track) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: missing name", shared.ErrInvalidTrack)
	}
	if t.DurationMS <= 0 {
		return fmt.Errorf("%w: non-positive duration for %q", shared.ErrInvalidTrack, t.Name)
	}
	return nil
}

// Query returns the destination search query for the track.
func (t Track) Query() string {
	return shared.TrackQuery(t.Name, t.Artists)
}

// String renders "Artists - Name" for logs and summaries.
func (t Track) String() string {
	return fmt.Sprintf("%s - %s", shared.DecodeText(t.Artists), shared.DecodeText(t.Name))
}

// Playlist is an ordered set of exported tracks. Order matters only for the
// initial placement; reconciliation on the destination is set-based.
type Playlist struct {
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
}

// Library is the full export document: liked songs plus playlists.
type Library struct {
	LikedSongs []Track    `json:"liked_songs"`
	Playlists  []Playlist `json:"playlists"`
}

// Validate rejects an export with no content at all.
func (l *Library) Validate() error {
	if len(l.LikedSongs) == 0 && len(l.Playlists) == 0 {
		return fmt.Errorf("%w: no liked songs or playlists", shared.ErrInvalidLibrary)
	}
	return nil
}

// Candidate is a destination-catalog search result considered for a match.
type Candidate struct {
	RemoteID        string `json:"remote_id"`
	Title           string `json:"title"`
	DurationSeconds int    `json:"duration_seconds"`
}

// DurationMS returns the candidate duration in milliseconds for comparison
// against exported track durations.
func (c Candidate) DurationMS() int {
	return c.DurationSeconds * 1000
}

// FailureReason classifies why a track landed in the failure ledger.
type FailureReason string

const (
	// ReasonNoMatch means no candidate survived matching (including search errors).
	ReasonNoMatch FailureReason = "no_match"
	// ReasonWriteFailed means a matched track could not be written to the destination.
	ReasonWriteFailed FailureReason = "write_failed"
)

// FailureRecord is one ledger entry: the track, the target it belonged to,
// and why it failed. Duplicates across runs are expected; the ledger is
// append-only and does not deduplicate.
type FailureRecord struct {
	Playlist string `json:"playlist"`
	Track
	Reason FailureReason `json:"reason"`
}

// NewFailureRecord builds a ledger entry for a track under the given target name.
func NewFailureRecord(playlist string, track Track, reason FailureReason) FailureRecord {
	return FailureRecord{Playlist: playlist, Track: track, Reason: reason}
}
