// Package ledger persists the tracks a sync run could not migrate.
//
// The ledger is a single JSON array on disk, appended to by rewrite: each
// run reads whatever is there, concatenates its own failures, and writes the
// whole file back atomically. A corrupt or missing file never blocks a run;
// the run's own failures matter more than a damaged history.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/desertthunder/tuneport/internal/models"
)

// DefaultPath is the ledger location when configuration does not override it.
const DefaultPath = "failed_tracks.json"

// Load reads the ledger at path. A missing or unreadable-as-JSON file yields
// an empty slice and no error; only filesystem failures other than
// not-exist are reported.
func Load(path string) ([]models.FailureRecord, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}

	var records []models.FailureRecord
	if err := json.Unmarshal(data, &records); err != nil {
		// Corrupt history is discarded rather than fatal.
		return nil, nil
	}
	return records, nil
}

// Append adds records to the ledger at path, preserving existing entries.
// An empty records slice is a no-op and leaves the file untouched. The
// rewrite goes through a temp file in the same directory so a crash
// mid-write can never corrupt the previous ledger.
func Append(path string, records []models.FailureRecord) error {
	if len(records) == 0 {
		return nil
	}

	existing, err := Load(path)
	if err != nil {
		return err
	}
	combined := append(existing, records...)

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("creating ledger temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(combined); err != nil {
		tmp.Close()
		return fmt.Errorf("writing ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing ledger temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing ledger %s: %w", path, err)
	}
	return nil
}
