// Package services implements the catalog clients on both sides of a
// migration.
//
// The source side is Spotify: [SpotifyService] authenticates with OAuth2 and
// exports the user's library (liked songs plus playlists) into the
// normalized document the sync pipeline consumes.
//
// The destination side is YouTube Music: [YouTubeService] talks to a local
// proxy that wraps the ytmusicapi Python library. It implements
// [Destination], the interface the sync pipeline reconciles against:
// searching for candidates, locating and creating playlists, listing
// members, adding items, and liking tracks.
//
// Throttling responses (HTTP 429) surface as *executor.ThrottleError so the
// retry layer can honor the server's Retry-After hint. Every other API
// failure is permanent from the pipeline's point of view.
package services
