package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/tuneport/internal/shared"
	"golang.org/x/oauth2"
)

func newTestSpotify(t *testing.T, handler http.Handler) (*SpotifyService, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewSpotifyService(shared.SpotifyConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURI:  "http://localhost:8888/callback",
	})
	if err != nil {
		t.Fatalf("NewSpotifyService() error = %v", err)
	}

	svc.baseURL = server.URL
	svc.SetToken(context.Background(), &oauth2.Token{AccessToken: "test-token"})
	svc.httpClient = http.DefaultClient

	return svc, server
}

func TestNewSpotifyService(t *testing.T) {
	t.Run("requires client id", func(t *testing.T) {
		_, err := NewSpotifyService(shared.SpotifyConfig{ClientSecret: "s"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Fatalf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("requires client secret", func(t *testing.T) {
		_, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "c"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Fatalf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("auth URL carries state", func(t *testing.T) {
		svc, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "c", ClientSecret: "s"})
		if err != nil {
			t.Fatal(err)
		}
		authURL := svc.GetAuthURL("state-123")
		if !strings.Contains(authURL, "state=state-123") {
			t.Errorf("auth URL missing state: %s", authURL)
		}
		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Errorf("auth URL has wrong host: %s", authURL)
		}
	})
}

func TestSpotifyService_NotAuthenticated(t *testing.T) {
	svc, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "c", ClientSecret: "s"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.UserProfile(context.Background())
	if !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestSpotifyService_UserProfile(t *testing.T) {
	svc, _ := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me" {
			t.Errorf("expected path /me, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(SpotifyUser{ID: "user1", DisplayName: "Test User"})
	}))

	user, err := svc.UserProfile(context.Background())
	if err != nil {
		t.Fatalf("UserProfile() error = %v", err)
	}
	if user.ID != "user1" || user.DisplayName != "Test User" {
		t.Errorf("unexpected user %+v", user)
	}
}

func TestSpotifyService_TokenExpired(t *testing.T) {
	svc, _ := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := svc.UserProfile(context.Background())
	if !errors.Is(err, shared.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestSpotifyService_ExportLibrary(t *testing.T) {
	// Two pages of saved tracks, one playlist with two pages of items, and
	// one local file that must be dropped.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")

		switch {
		case r.URL.Path == "/me/tracks":
			if offset == "0" {
				next := "next-page"
				json.NewEncoder(w).Encode(SpotifyPaginatedTracks{
					Items: []SpotifySavedTrack{
						{Track: SpotifyTrack{ID: "t1", Name: "One", DurationMS: 100000,
							Artists: []SpotifyArtist{{Name: "A"}, {Name: "B"}}}},
					},
					Next: &next,
				})
			} else {
				json.NewEncoder(w).Encode(SpotifyPaginatedTracks{
					Items: []SpotifySavedTrack{
						{Track: SpotifyTrack{ID: "t2", Name: "Two", DurationMS: 200000,
							Artists: []SpotifyArtist{{Name: "C"}}}},
					},
				})
			}

		case r.URL.Path == "/me/playlists":
			json.NewEncoder(w).Encode(SpotifyPaginatedPlaylists{
				Items: []SpotifySimplePlaylist{
					{ID: "pl1", Name: "road trip", Tracks: simplePlaylistTrack{Total: 2}},
				},
			})

		case r.URL.Path == "/playlists/pl1/tracks":
			if offset == "0" {
				next := "next-page"
				json.NewEncoder(w).Encode(SpotifyPaginatedPlaylistTracks{
					Items: []SpotifyPlaylistTrack{
						{Track: SpotifyTrack{ID: "p1", Name: "First", DurationMS: 150000,
							Artists: []SpotifyArtist{{Name: "X"}}}},
						{Track: SpotifyTrack{Name: "Local File", IsLocal: true}},
					},
					Next: &next,
				})
			} else {
				json.NewEncoder(w).Encode(SpotifyPaginatedPlaylistTracks{
					Items: []SpotifyPlaylistTrack{
						{Track: SpotifyTrack{ID: "p2", Name: "Second", DurationMS: 160000,
							Artists: []SpotifyArtist{{Name: "Y"}}}},
					},
				})
			}

		default:
			t.Errorf("unexpected request %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	svc, _ := newTestSpotify(t, handler)

	library, err := svc.ExportLibrary(context.Background())
	if err != nil {
		t.Fatalf("ExportLibrary() error = %v", err)
	}

	if len(library.LikedSongs) != 2 {
		t.Fatalf("expected 2 liked songs, got %d", len(library.LikedSongs))
	}
	if library.LikedSongs[0].Artists != "A, B" {
		t.Errorf("artists not joined: %q", library.LikedSongs[0].Artists)
	}
	if library.LikedSongs[1].ID != "t2" {
		t.Errorf("pagination lost second page: %+v", library.LikedSongs[1])
	}

	if len(library.Playlists) != 1 {
		t.Fatalf("expected 1 playlist, got %d", len(library.Playlists))
	}
	pl := library.Playlists[0]
	if pl.Name != "road trip" {
		t.Errorf("playlist name = %q", pl.Name)
	}
	if len(pl.Tracks) != 2 {
		t.Fatalf("expected 2 playlist tracks (local file dropped), got %d", len(pl.Tracks))
	}
	if pl.Tracks[0].ID != "p1" || pl.Tracks[1].ID != "p2" {
		t.Errorf("unexpected playlist tracks %+v", pl.Tracks)
	}
}

func TestSpotifyService_ExportLibraryPropagatesErrors(t *testing.T) {
	svc, _ := newTestSpotify(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))

	_, err := svc.ExportLibrary(context.Background())
	if !errors.Is(err, shared.ErrAPIRequest) {
		t.Fatalf("expected ErrAPIRequest, got %v", err)
	}
}

func TestExportTrack(t *testing.T) {
	tests := []struct {
		name  string
		track SpotifyTrack
		want  string
		ok    bool
	}{
		{
			name:  "regular track joins artists in order",
			track: SpotifyTrack{ID: "x", Name: "Song", DurationMS: 1000, Artists: []SpotifyArtist{{Name: "A"}, {Name: "B"}}},
			want:  "A, B",
			ok:    true,
		},
		{
			name:  "local file dropped",
			track: SpotifyTrack{Name: "Home Recording", IsLocal: true},
			ok:    false,
		},
		{
			name:  "missing id dropped",
			track: SpotifyTrack{Name: "Ghost", DurationMS: 1000},
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := exportTrack(tt.track)
			if ok != tt.ok {
				t.Fatalf("exportTrack() ok = %v, want %v", ok, tt.ok)
			}
			if ok && got.Artists != tt.want {
				t.Errorf("Artists = %q, want %q", got.Artists, tt.want)
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	for _, tt := range []struct{ in, want int }{
		{0, 20}, {-1, 20}, {5, 5}, {50, 50}, {200, 50},
	} {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
