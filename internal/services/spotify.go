// Spotify API implementation of the export side
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/tuneport/internal/models"
	"github.com/desertthunder/tuneport/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// spotifyPageLimit is the largest page Spotify serves for library endpoints.
const spotifyPageLimit = 50

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
	IsLocal    bool            `json:"is_local"`
}

// SpotifySavedTrack represents a track saved in the user's library.
type SpotifySavedTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents a paginated response of saved tracks.
type SpotifyPaginatedTracks struct {
	Items  []SpotifySavedTrack `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
	Next   *string             `json:"next"`
}

type simplePlaylistTrack struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID     string              `json:"id"`
	Name   string              `json:"name"`
	Tracks simplePlaylistTrack `json:"tracks"`
	URI    string              `json:"uri"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPaginatedPlaylistTracks represents one page of a playlist's items.
type SpotifyPaginatedPlaylistTracks struct {
	Items  []SpotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

// SpotifyService exports the user's Spotify library. Uses [oauth2] for
// authentication.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(cfg shared.SpotifyConfig) (*SpotifyService, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:8888/callback"
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-library-read",
			"playlist-read-private",
			"playlist-read-collaborative",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}, nil
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// OAuthConfig exposes the underlying OAuth2 configuration for the login
// callback server.
func (s *SpotifyService) OAuthConfig() *oauth2.Config {
	return s.config
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and installs it.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	s.SetToken(ctx, token)
	return token, nil
}

// SetToken installs a previously obtained token. The underlying client
// refreshes it transparently when a refresh token is present.
func (s *SpotifyService) SetToken(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.httpClient = s.config.Client(ctx, token)
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call SetToken or Exchange first", shared.ErrNotAuthenticated)
	}

	apiURL := s.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: spotify status 401", shared.ErrTokenExpired)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SavedTracks retrieves one page of the user's saved tracks.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) (*SpotifyPaginatedTracks, error) {
	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", clampLimit(limit), offset)

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, http.MethodGet, endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// UserPlaylists retrieves one page of the current user's playlists.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", clampLimit(limit), offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, http.MethodGet, endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// PlaylistItems retrieves one page of a playlist's tracks.
func (s *SpotifyService) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*SpotifyPaginatedPlaylistTracks, error) {
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, clampLimit(limit), offset)

	var response SpotifyPaginatedPlaylistTracks
	if err := s.doRequest(ctx, http.MethodGet, endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// ExportLibrary walks the full library (liked songs and every playlist) and
// returns the normalized export document. Local files have no cross-catalog
// identity and are skipped.
func (s *SpotifyService) ExportLibrary(ctx context.Context) (*models.Library, error) {
	liked, err := s.exportSavedTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting liked songs: %w", err)
	}

	playlists, err := s.exportPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting playlists: %w", err)
	}

	return &models.Library{
		LikedSongs: liked,
		Playlists:  playlists,
	}, nil
}

func (s *SpotifyService) exportSavedTracks(ctx context.Context) ([]models.Track, error) {
	var tracks []models.Track
	offset := 0

	for {
		page, err := s.SavedTracks(ctx, spotifyPageLimit, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if t, ok := exportTrack(item.Track); ok {
				tracks = append(tracks, t)
			}
		}

		if page.Next == nil {
			return tracks, nil
		}
		offset += spotifyPageLimit
	}
}

func (s *SpotifyService) exportPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	offset := 0

	for {
		page, err := s.UserPlaylists(ctx, spotifyPageLimit, offset)
		if err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			tracks, err := s.exportPlaylistItems(ctx, sp.ID)
			if err != nil {
				return nil, fmt.Errorf("playlist %q: %w", sp.Name, err)
			}
			playlists = append(playlists, models.Playlist{
				Name:   sp.Name,
				Tracks: tracks,
			})
		}

		if page.Next == nil {
			return playlists, nil
		}
		offset += spotifyPageLimit
	}
}

func (s *SpotifyService) exportPlaylistItems(ctx context.Context, playlistID string) ([]models.Track, error) {
	var tracks []models.Track
	offset := 0

	for {
		page, err := s.PlaylistItems(ctx, playlistID, spotifyPageLimit, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if t, ok := exportTrack(item.Track); ok {
				tracks = append(tracks, t)
			}
		}

		if page.Next == nil {
			return tracks, nil
		}
		offset += spotifyPageLimit
	}
}

// exportTrack converts an API track to the export schema. Tracks without an
// id (local files, region-removed entries) are dropped.
func exportTrack(st SpotifyTrack) (models.Track, bool) {
	if st.ID == "" || st.IsLocal {
		return models.Track{}, false
	}

	names := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}

	return models.Track{
		Name:       st.Name,
		Artists:    strings.Join(names, ", "),
		DurationMS: st.DurationMS,
		ID:         st.ID,
	}, true
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > spotifyPageLimit {
		return spotifyPageLimit
	}
	return limit
}
