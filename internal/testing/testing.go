// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/tuneport/internal/models"
	"github.com/desertthunder/tuneport/internal/shared"
)

// MockDestination is a stateful in-memory test double for
// services.Destination. Zero value is not usable; construct with
// [NewMockDestination].
type MockDestination struct {
	mu sync.Mutex

	// SearchResults maps a query to the candidates it returns.
	SearchResults map[string][]models.Candidate
	// SearchErrs maps a query to a forced search error.
	SearchErrs map[string]error

	playlists map[string]string   // name -> id
	members   map[string][]string // id -> remote ids

	// AddErrs is consumed one error per AddPlaylistItems call; nil entries
	// mean success.
	AddErrs []error
	// LikeErrs maps a remote id to a forced like error.
	LikeErrs map[string]error

	SearchCalls int
	AddCalls    int
	LikeCalls   int
	nextID      int
}

// NewMockDestination creates an empty mock catalog.
func NewMockDestination() *MockDestination {
	return &MockDestination{
		SearchResults: make(map[string][]models.Candidate),
		SearchErrs:    make(map[string]error),
		LikeErrs:      make(map[string]error),
		playlists:     make(map[string]string),
		members:       make(map[string][]string),
	}
}

func (m *MockDestination) Name() string { return "mock" }

func (m *MockDestination) SearchTracks(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SearchCalls++
	if err := m.SearchErrs[query]; err != nil {
		return nil, err
	}

	results := m.SearchResults[query]
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *MockDestination) FindPlaylistByName(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.playlists[name]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", shared.ErrPlaylistNotFound, name)
}

func (m *MockDestination) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := fmt.Sprintf("PL%d", m.nextID)
	m.playlists[name] = id
	m.members[id] = nil
	return id, nil
}

func (m *MockDestination) PlaylistMembers(ctx context.Context, playlistID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members := m.members[playlistID]
	out := make([]string, len(members))
	copy(out, members)
	return out, nil
}

func (m *MockDestination) AddPlaylistItems(ctx context.Context, playlistID string, remoteIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AddCalls++
	if len(m.AddErrs) > 0 {
		err := m.AddErrs[0]
		m.AddErrs = m.AddErrs[1:]
		if err != nil {
			return err
		}
	}

	m.members[playlistID] = append(m.members[playlistID], remoteIDs...)
	return nil
}

func (m *MockDestination) LikeTrack(ctx context.Context, remoteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LikeCalls++
	if err := m.LikeErrs[remoteID]; err != nil {
		return err
	}

	m.members["LM"] = append(m.members["LM"], remoteID)
	return nil
}

func (m *MockDestination) LikedPlaylistID() string { return "LM" }

// SeedPlaylist registers an existing playlist with members.
func (m *MockDestination) SeedPlaylist(name, id string, members ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.playlists[name] = id
	m.members[id] = append([]string(nil), members...)
}

// Members returns a copy of a playlist's current member ids.
func (m *MockDestination) Members(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.members[id]))
	copy(out, m.members[id])
	return out
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
}
