// YouTube Music [Destination] implementation
//
// Communicates with the local proxy server wrapping the ytmusicapi Python
// library. The proxy normalizes YouTube Music's browse responses into plain
// JSON; this client only deals with ids, titles and durations.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/tuneport/internal/executor"
	"github.com/desertthunder/tuneport/internal/models"
	"github.com/desertthunder/tuneport/internal/shared"
)

const defaultYTBaseURL string = "http://localhost:8080"

// likedPlaylistID is YouTube Music's fixed id for the liked-songs
// collection. It behaves like a playlist for reads but tracks are added to
// it by rating, not by playlist insertion.
const likedPlaylistID = "LM"

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a track/video in YouTube Music responses.
type YouTubeTrack struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Duration    string          `json:"duration"`
	DurationSec int             `json:"duration_seconds"`
}

// YouTubeService implements [Destination] for YouTube Music via the proxy.
type YouTubeService struct {
	baseURL    string
	authFile   string
	httpClient *http.Client
}

// NewYouTubeService creates a new YouTube Music service instance.
func NewYouTubeService(baseURL string) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	return &YouTubeService{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube Music"
}

// Authenticate stores the authentication file path for subsequent requests.
//
// Expects credentials["auth_file"] to contain the path to browser.json or oauth.json.
func (y *YouTubeService) Authenticate(ctx context.Context, credentials map[string]string) error {
	authFile, ok := credentials["auth_file"]
	if !ok || authFile == "" {
		return fmt.Errorf("%w: auth_file", shared.ErrMissingCredentials)
	}

	y.authFile = authFile
	return nil
}

func (y *YouTubeService) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	apiURL := y.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if y.authFile != "" {
		req.Header.Set("X-Auth-File", y.authFile)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &executor.ThrottleError{RetryAfter: retryAfterHint(resp)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: youtube music status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: youtube music status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// retryAfterHint parses the Retry-After header as delay seconds. A missing
// or malformed header yields zero, letting the caller fall back to its own
// backoff schedule.
func retryAfterHint(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// SearchTracks searches the catalog for songs matching the query.
//
// Calls GET /api/search?q={query}&filter=songs&limit={limit} on the proxy.
func (y *YouTubeService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	if limit <= 0 {
		limit = 5
	}

	endpoint := fmt.Sprintf("/api/search?q=%s&filter=songs&limit=%d", url.QueryEscape(query), limit)

	var results []YouTubeTrack
	if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &results); err != nil {
		return nil, err
	}

	if len(results) > limit {
		results = results[:limit]
	}

	candidates := make([]models.Candidate, 0, len(results))
	for _, r := range results {
		if r.VideoID == "" {
			continue
		}
		candidates = append(candidates, models.Candidate{
			RemoteID:        r.VideoID,
			Title:           r.Title,
			DurationSeconds: r.DurationSec,
		})
	}

	return candidates, nil
}

// FindPlaylistByName returns the id of the library playlist with the exact
// given name.
//
// Calls GET /api/library/playlists on the proxy. YouTube Music allows
// duplicate playlist names; the first match wins, consistent with how the
// web client lists them (most recent first).
func (y *YouTubeService) FindPlaylistByName(ctx context.Context, name string) (string, error) {
	var ytPlaylists []struct {
		PlaylistID string `json:"playlistId"`
		Title      string `json:"title"`
		Count      int    `json:"count"`
	}

	if err := y.doRequest(ctx, http.MethodGet, "/api/library/playlists", nil, &ytPlaylists); err != nil {
		return "", err
	}

	for _, ytp := range ytPlaylists {
		if ytp.Title == name {
			return ytp.PlaylistID, nil
		}
	}

	return "", fmt.Errorf("%w: %q", shared.ErrPlaylistNotFound, name)
}

// CreatePlaylist creates a private playlist and returns its id.
//
// Calls POST /api/playlists on the proxy.
func (y *YouTubeService) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	createReq := struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		PrivacyStatus string `json:"privacy_status"`
	}{
		Title:         name,
		Description:   description,
		PrivacyStatus: "PRIVATE",
	}

	var createResp struct {
		PlaylistID string `json:"playlist_id"`
	}

	if err := y.doRequest(ctx, http.MethodPost, "/api/playlists", createReq, &createResp); err != nil {
		return "", err
	}
	if createResp.PlaylistID == "" {
		return "", fmt.Errorf("%w: create playlist returned no id", shared.ErrAPIRequest)
	}

	return createResp.PlaylistID, nil
}

// PlaylistMembers returns the video ids of every track in the playlist,
// following continuation tokens until the proxy reports the end.
//
// Calls GET /api/playlists/{id}/items on the proxy. Passing
// [likedPlaylistID] lists the liked-songs collection.
func (y *YouTubeService) PlaylistMembers(ctx context.Context, playlistID string) ([]string, error) {
	var members []string
	continuation := ""

	for {
		endpoint := fmt.Sprintf("/api/playlists/%s/items", url.PathEscape(playlistID))
		if continuation != "" {
			endpoint += "?continuation=" + url.QueryEscape(continuation)
		}

		var page struct {
			Tracks       []YouTubeTrack `json:"tracks"`
			Continuation string         `json:"continuation"`
		}

		if err := y.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, t := range page.Tracks {
			if t.VideoID != "" {
				members = append(members, t.VideoID)
			}
		}

		if page.Continuation == "" {
			return members, nil
		}
		continuation = page.Continuation
	}
}

// AddPlaylistItems appends tracks to a playlist in one call.
//
// Calls POST /api/playlists/{id}/items on the proxy. Batching is the
// caller's responsibility.
func (y *YouTubeService) AddPlaylistItems(ctx context.Context, playlistID string, remoteIDs []string) error {
	if len(remoteIDs) == 0 {
		return nil
	}

	addReq := struct {
		VideoIDs []string `json:"video_ids"`
	}{
		VideoIDs: remoteIDs,
	}

	endpoint := fmt.Sprintf("/api/playlists/%s/items", url.PathEscape(playlistID))
	return y.doRequest(ctx, http.MethodPost, endpoint, addReq, nil)
}

// LikeTrack adds one track to the user's liked songs.
//
// Calls POST /api/tracks/{id}/like on the proxy.
func (y *YouTubeService) LikeTrack(ctx context.Context, remoteID string) error {
	endpoint := fmt.Sprintf("/api/tracks/%s/like", url.PathEscape(remoteID))
	return y.doRequest(ctx, http.MethodPost, endpoint, nil, nil)
}

// LikedPlaylistID returns the fixed id of the liked-songs collection.
func (y *YouTubeService) LikedPlaylistID() string {
	return likedPlaylistID
}
