package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tuneport/internal/ledger"
	"github.com/desertthunder/tuneport/internal/models"
	"github.com/desertthunder/tuneport/internal/shared"
	tu "github.com/desertthunder/tuneport/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

func newTestRunner(dest *tu.MockDestination) (*Runner, *bytes.Buffer) {
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: shared.DefaultConfig(),
		Dest:   dest,
		Output: output,
		Logger: shared.NewLogger(io.Discard),
	})
	return runner, output
}

func runCommand(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "tuneport", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"tuneport"}, args...))
}

func writeLibrary(t *testing.T, dir string, library *models.Library) string {
	t.Helper()
	data, err := shared.MarshalJSON(library, true)
	if err != nil {
		t.Fatalf("marshaling library: %v", err)
	}
	path := filepath.Join(dir, "library.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing library: %v", err)
	}
	return path
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(io.Discard)
			output := &bytes.Buffer{}
			dest := tu.NewMockDestination()

			runner := NewRunner(RunnerOpts{
				Config: config,
				Dest:   dest,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", output.String())
			}
		})

		t.Run("writes compact JSON", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != `{"key":"value"}`+"\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles marshal error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limited := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limited})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes formatted text", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writePlain("test"); err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})
}

func TestSearchCommand(t *testing.T) {
	dest := tu.NewMockDestination()
	dest.SearchResults["Yesterday The Beatles"] = []models.Candidate{
		{RemoteID: "yt1", Title: "Yesterday", DurationSeconds: 125},
		{RemoteID: "yt2", Title: "Yesterday (Remastered)", DurationSeconds: 126},
	}

	t.Run("prints candidates", func(t *testing.T) {
		runner, output := newTestRunner(dest)

		if err := runCommand(t, runner, "search", "Yesterday The Beatles"); err != nil {
			t.Fatalf("search failed: %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "1. Yesterday [2:05] (yt1)") {
			t.Errorf("missing first candidate in output: %s", got)
		}
		if !strings.Contains(got, "2. Yesterday (Remastered) [2:06] (yt2)") {
			t.Errorf("missing second candidate in output: %s", got)
		}
	})

	t.Run("json output", func(t *testing.T) {
		runner, output := newTestRunner(dest)

		if err := runCommand(t, runner, "search", "--json", "Yesterday The Beatles"); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if !strings.Contains(output.String(), `"remote_id": "yt1"`) {
			t.Errorf("expected JSON output, got %s", output.String())
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		runner, output := newTestRunner(dest)

		if err := runCommand(t, runner, "search", "--limit", "1", "Yesterday The Beatles"); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if strings.Contains(output.String(), "yt2") {
			t.Errorf("expected limit to drop second candidate: %s", output.String())
		}
	})

	t.Run("no results", func(t *testing.T) {
		runner, output := newTestRunner(dest)

		if err := runCommand(t, runner, "search", "nothing here"); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if !strings.Contains(output.String(), "No results") {
			t.Errorf("expected no-results message, got %s", output.String())
		}
	})

	t.Run("missing query", func(t *testing.T) {
		runner, _ := newTestRunner(dest)

		err := runCommand(t, runner, "search")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestSyncRunCommand(t *testing.T) {
	tracks := []models.Track{
		{Name: "Yesterday", Artists: "The Beatles", DurationMS: 125000, ID: "sp1"},
		{Name: "Karma Police", Artists: "Radiohead", DurationMS: 261000, ID: "sp2"},
	}

	t.Run("adds matched tracks and prints summary", func(t *testing.T) {
		tmpDir := t.TempDir()
		dest := tu.NewMockDestination()
		dest.SearchResults[tracks[0].Query()] = []models.Candidate{
			{RemoteID: "yt1", Title: "Yesterday", DurationSeconds: 125},
		}
		dest.SearchResults[tracks[1].Query()] = []models.Candidate{
			{RemoteID: "yt2", Title: "Karma Police", DurationSeconds: 261},
		}

		runner, output := newTestRunner(dest)
		runner.config.Database.Path = ""
		runner.config.Ledger.Path = filepath.Join(tmpDir, "failed.json")

		libraryPath := writeLibrary(t, tmpDir, &models.Library{
			Playlists: []models.Playlist{{Name: "mix", Tracks: tracks}},
		})

		err := runCommand(t, runner, "sync", "run", "--no-cache", "--library", libraryPath)
		if err != nil {
			t.Fatalf("sync run failed: %v", err)
		}

		got := output.String()
		if !strings.Contains(got, "tuneport-mix (created)") {
			t.Errorf("expected created playlist in summary, got %s", got)
		}
		if !strings.Contains(got, "added: 2") {
			t.Errorf("expected 2 added in summary, got %s", got)
		}

		members := dest.Members("PL1")
		if len(members) != 2 {
			t.Fatalf("expected 2 members, got %v", members)
		}
		if _, err := os.Stat(runner.config.Ledger.Path); !errors.Is(err, os.ErrNotExist) {
			t.Error("expected no ledger file for a clean run")
		}
	})

	t.Run("records unmatched tracks in the ledger", func(t *testing.T) {
		tmpDir := t.TempDir()
		dest := tu.NewMockDestination()

		runner, output := newTestRunner(dest)
		runner.config.Database.Path = ""
		runner.config.Ledger.Path = filepath.Join(tmpDir, "failed.json")

		libraryPath := writeLibrary(t, tmpDir, &models.Library{
			Playlists: []models.Playlist{{Name: "mix", Tracks: tracks[:1]}},
		})

		err := runCommand(t, runner, "sync", "run", "--no-cache", "--library", libraryPath)
		if err != nil {
			t.Fatalf("sync run failed: %v", err)
		}

		records, err := ledger.Load(runner.config.Ledger.Path)
		if err != nil {
			t.Fatalf("loading ledger: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 ledger record, got %d", len(records))
		}
		if records[0].ID != "sp1" || records[0].Reason != models.ReasonNoMatch {
			t.Errorf("unexpected record %+v", records[0])
		}
		if !strings.Contains(output.String(), "failure ledger") {
			t.Errorf("expected ledger note in summary, got %s", output.String())
		}
	})

	t.Run("missing library file", func(t *testing.T) {
		runner, _ := newTestRunner(tu.NewMockDestination())
		runner.config.Database.Path = ""

		err := runCommand(t, runner, "sync", "run", "--no-cache", "--library", "/nonexistent/library.json")
		if !errors.Is(err, shared.ErrInvalidLibrary) {
			t.Errorf("expected ErrInvalidLibrary, got %v", err)
		}
	})

	t.Run("unknown playlist name", func(t *testing.T) {
		tmpDir := t.TempDir()
		runner, _ := newTestRunner(tu.NewMockDestination())
		runner.config.Database.Path = ""
		runner.config.Ledger.Path = filepath.Join(tmpDir, "failed.json")

		libraryPath := writeLibrary(t, tmpDir, &models.Library{
			Playlists: []models.Playlist{{Name: "mix", Tracks: tracks[:1]}},
		})

		err := runCommand(t, runner, "sync", "run", "--no-cache", "--library", libraryPath, "--playlist", "ghost")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})
}

func TestLedgerShowCommand(t *testing.T) {
	seedLedger := func(t *testing.T) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "failed.json")
		records := []models.FailureRecord{
			models.NewFailureRecord("road trip", models.Track{
				Name: "Yesterday", Artists: "The Beatles", DurationMS: 125000, ID: "sp1",
			}, models.ReasonNoMatch),
		}
		if err := ledger.Append(path, records); err != nil {
			t.Fatalf("seeding ledger: %v", err)
		}
		return path
	}

	t.Run("text format", func(t *testing.T) {
		runner, output := newTestRunner(tu.NewMockDestination())
		path := seedLedger(t)

		if err := runCommand(t, runner, "ledger", "show", "--path", path); err != nil {
			t.Fatalf("ledger show failed: %v", err)
		}
		if !strings.Contains(output.String(), "road trip (1)") {
			t.Errorf("expected grouped text output, got %s", output.String())
		}
	})

	t.Run("csv format", func(t *testing.T) {
		runner, output := newTestRunner(tu.NewMockDestination())
		path := seedLedger(t)

		if err := runCommand(t, runner, "ledger", "show", "--path", path, "--format", "csv"); err != nil {
			t.Fatalf("ledger show failed: %v", err)
		}
		if !strings.Contains(output.String(), "road trip,Yesterday,The Beatles,125000,sp1,no_match") {
			t.Errorf("expected CSV row, got %s", output.String())
		}
	})

	t.Run("json format", func(t *testing.T) {
		runner, output := newTestRunner(tu.NewMockDestination())
		path := seedLedger(t)

		if err := runCommand(t, runner, "ledger", "show", "--path", path, "--format", "json"); err != nil {
			t.Fatalf("ledger show failed: %v", err)
		}
		if !strings.Contains(output.String(), `"reason": "no_match"`) {
			t.Errorf("expected JSON output, got %s", output.String())
		}
	})

	t.Run("missing ledger reads as empty", func(t *testing.T) {
		runner, output := newTestRunner(tu.NewMockDestination())

		err := runCommand(t, runner, "ledger", "show", "--path", filepath.Join(t.TempDir(), "none.json"))
		if err != nil {
			t.Fatalf("ledger show failed: %v", err)
		}
		if !strings.Contains(output.String(), "No failed tracks recorded") {
			t.Errorf("expected empty-ledger message, got %s", output.String())
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		runner, _ := newTestRunner(tu.NewMockDestination())
		path := seedLedger(t)

		err := runCommand(t, runner, "ledger", "show", "--path", path, "--format", "xml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestSetupDatabaseCommand(t *testing.T) {
	wd := tu.MustGetwd(t)
	tmpDir := t.TempDir()
	tu.MustChdir(t, tmpDir)
	defer tu.MustChdir(t, wd)

	runner, output := newTestRunner(tu.NewMockDestination())

	if err := runCommand(t, runner, "setup", "database"); err != nil {
		t.Fatalf("setup database failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "config.toml")); err != nil {
		t.Error("expected config.toml to be created")
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "tuneport.db")); err != nil {
		t.Error("expected database file to be created")
	}
	if !strings.Contains(output.String(), "Database ready") {
		t.Errorf("expected confirmation, got %s", output.String())
	}
}

func TestAuthCommands(t *testing.T) {
	t.Run("login without credentials", func(t *testing.T) {
		runner, _ := newTestRunner(tu.NewMockDestination())

		err := runCommand(t, runner, "auth", "login")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("status without token", func(t *testing.T) {
		runner, output := newTestRunner(tu.NewMockDestination())
		tokenFile := filepath.Join(t.TempDir(), "token.json")

		if err := runCommand(t, runner, "auth", "status", "--token-file", tokenFile); err != nil {
			t.Fatalf("auth status failed: %v", err)
		}
		if !strings.Contains(output.String(), "Not authenticated") {
			t.Errorf("expected not-authenticated message, got %s", output.String())
		}
	})
}

func TestExportCommand(t *testing.T) {
	t.Run("without credentials", func(t *testing.T) {
		runner, _ := newTestRunner(tu.NewMockDestination())

		err := runCommand(t, runner, "export")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")

	original := &oauth2.Token{
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		TokenType:    "Bearer",
	}
	if err := saveToken(path, original); err != nil {
		t.Fatalf("saving token: %v", err)
	}

	loaded, err := loadToken(path)
	if err != nil {
		t.Fatalf("loading token: %v", err)
	}
	if loaded.AccessToken != original.AccessToken {
		t.Errorf("AccessToken = %q, want %q", loaded.AccessToken, original.AccessToken)
	}
	if loaded.RefreshToken != original.RefreshToken {
		t.Errorf("RefreshToken = %q, want %q", loaded.RefreshToken, original.RefreshToken)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}
}
