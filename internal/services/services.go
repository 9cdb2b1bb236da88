package services

import (
	"context"

	"github.com/desertthunder/tuneport/internal/models"
)

// SearchProvider finds destination-catalog candidates for a text query.
type SearchProvider interface {
	// SearchTracks returns up to limit candidates for the query, best first.
	// An empty result with a nil error means the catalog has nothing.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Candidate, error)
}

// Catalog is the destination's playlist and library surface.
type Catalog interface {
	// FindPlaylistByName returns the id of the user's playlist with the
	// exact given name, or shared.ErrPlaylistNotFound.
	FindPlaylistByName(ctx context.Context, name string) (string, error)

	// CreatePlaylist creates a private playlist and returns its id.
	CreatePlaylist(ctx context.Context, name, description string) (string, error)

	// PlaylistMembers returns the remote ids of every track currently in
	// the playlist. LikedPlaylistID is a valid argument.
	PlaylistMembers(ctx context.Context, playlistID string) ([]string, error)

	// AddPlaylistItems appends tracks to a playlist in one call.
	AddPlaylistItems(ctx context.Context, playlistID string, remoteIDs []string) error

	// LikeTrack adds one track to the user's liked songs.
	LikeTrack(ctx context.Context, remoteID string) error

	// LikedPlaylistID returns the fixed id of the liked-songs collection.
	LikedPlaylistID() string
}

// Destination is the full surface the sync pipeline reconciles against.
type Destination interface {
	SearchProvider
	Catalog

	// Name returns the catalog name for logs and summaries.
	Name() string
}
