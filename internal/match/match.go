// Package match implements cross-catalog track matching: given a track
// exported from the source catalog and a list of destination search
// candidates, pick the candidate most likely to be the same recording.
//
// Duration is a hard filter and text similarity is the ranking signal.
// Duration alone mismatches re-recordings of near-identical length; text
// alone mismatches generic titles ("Intro") across many releases. The
// combination keeps precision without demanding exact catalog
// correspondence.
package match

import (
	"strings"

	"github.com/desertthunder/tuneport/internal/models"
	"github.com/hbollon/go-edlib"
)

// DefaultDurationToleranceMS is the widest duration gap a candidate may have
// from the query track and still be considered.
const DefaultDurationToleranceMS = 10000

// Config carries the matching knobs. The tolerance is a product decision,
// so callers load it from configuration rather than relying on the default.
type Config struct {
	DurationToleranceMS int
}

// DefaultConfig returns the standard matching configuration.
func DefaultConfig() Config {
	return Config{DurationToleranceMS: DefaultDurationToleranceMS}
}

// Result is the outcome of matching one track. A zero RemoteID means no
// acceptable candidate existed.
type Result struct {
	RemoteID        string
	Score           float64
	DurationDeltaMS int
}

// Matched reports whether an acceptable candidate was found.
func (r Result) Matched() bool {
	return r.RemoteID != ""
}

// Match selects the best candidate for the query track, or a zero Result
// when nothing survives the duration filter.
//
// Candidates outside the duration tolerance are discarded before any text
// scoring. Survivors are ranked by case-insensitive sequence similarity
// between the candidate title and "{name} {artists}". Ties go to the
// smaller duration delta, then to input order, so the selection is
// deterministic for a given candidate list.
//
// Match is pure: it never fails, and a failed search upstream is the
// caller's problem, not a matching decision.
func Match(query models.Track, candidates []models.Candidate, cfg Config) Result {
	if cfg.DurationToleranceMS <= 0 {
		cfg.DurationToleranceMS = DefaultDurationToleranceMS
	}

	best := Result{}
	found := false

	queryText := strings.ToLower(query.Query())

	for _, c := range candidates {
		delta := absInt(c.DurationMS() - query.DurationMS)
		if delta > cfg.DurationToleranceMS {
			continue
		}

		r := Result{
			RemoteID:        c.RemoteID,
			Score:           similarity(queryText, strings.ToLower(c.Title)),
			DurationDeltaMS: delta,
		}

		if !found || betterThan(r, best) {
			best = r
			found = true
		}
	}

	if !found {
		return Result{}
	}
	return best
}

// betterThan is the total order over candidate results: score first, then
// duration delta. Strict comparison keeps the earliest candidate on a full tie.
func betterThan(a, b Result) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.DurationDeltaMS < b.DurationDeltaMS
}

// similarity scores two strings in [0,1] using a normalized
// longest-common-subsequence ratio.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	sim, err := edlib.StringsSimilarity(a, b, edlib.Lcs)
	if err != nil {
		return 0
	}
	return float64(sim)
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
