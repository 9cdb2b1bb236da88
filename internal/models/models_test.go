package models

import (
	"errors"
	"testing"

	"github.com/desertthunder/tuneport/internal/shared"
)

func TestTrack(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name    string
			track   Track
			wantErr bool
		}{
			{
				name:  "valid track",
				track: Track{Name: "Yesterday", Artists: "The Beatles", DurationMS: 125000, ID: "sp1"},
			},
			{
				name:    "missing name",
				track:   Track{Artists: "The Beatles", DurationMS: 125000, ID: "sp1"},
				wantErr: true,
			},
			{
				name:    "zero duration",
				track:   Track{Name: "Yesterday", Artists: "The Beatles", ID: "sp1"},
				wantErr: true,
			},
			{
				name:    "negative duration",
				track:   Track{Name: "Yesterday", DurationMS: -1, ID: "sp1"},
				wantErr: true,
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.track.Validate()
				if tt.wantErr && !errors.Is(err, shared.ErrInvalidTrack) {
					t.Errorf("expected ErrInvalidTrack, got %v", err)
				}
				if !tt.wantErr && err != nil {
					t.Errorf("expected no error, got %v", err)
				}
			})
		}
	})

	t.Run("Query", func(t *testing.T) {
		track := Track{Name: "Yesterday", Artists: "The Beatles", DurationMS: 125000}
		if got := track.Query(); got != "Yesterday The Beatles" {
			t.Errorf("Query() = %q", got)
		}
	})

	t.Run("String decodes entities", func(t *testing.T) {
		track := Track{Name: "Me &amp; You", Artists: "Guns &amp; Roses"}
		if got := track.String(); got != "Guns & Roses - Me & You" {
			t.Errorf("String() = %q", got)
		}
	})
}

func TestLibrary(t *testing.T) {
	t.Run("valid with liked songs only", func(t *testing.T) {
		library := &Library{LikedSongs: []Track{{Name: "x", DurationMS: 1000}}}
		if err := library.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("valid with playlists only", func(t *testing.T) {
		library := &Library{Playlists: []Playlist{{Name: "mix"}}}
		if err := library.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("empty export rejected", func(t *testing.T) {
		library := &Library{}
		if err := library.Validate(); !errors.Is(err, shared.ErrInvalidLibrary) {
			t.Errorf("expected ErrInvalidLibrary, got %v", err)
		}
	})
}

func TestCandidateDurationMS(t *testing.T) {
	c := Candidate{RemoteID: "yt1", DurationSeconds: 125}
	if c.DurationMS() != 125000 {
		t.Errorf("DurationMS() = %d, want 125000", c.DurationMS())
	}
}

func TestNewFailureRecord(t *testing.T) {
	track := Track{Name: "Yesterday", Artists: "The Beatles", DurationMS: 125000, ID: "sp1"}
	rec := NewFailureRecord("road trip", track, ReasonWriteFailed)

	if rec.Playlist != "road trip" {
		t.Errorf("Playlist = %q", rec.Playlist)
	}
	if rec.ID != "sp1" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.Reason != ReasonWriteFailed {
		t.Errorf("Reason = %q", rec.Reason)
	}
}
