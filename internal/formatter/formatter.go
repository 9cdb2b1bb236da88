// package formatter renders failure-ledger entries and run summaries to
// output formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"github.com/desertthunder/tuneport/internal/models"
	"github.com/desertthunder/tuneport/internal/shared"
	"github.com/desertthunder/tuneport/internal/tasks"
)

// LedgerToText renders ledger entries as plain text grouped by target.
func LedgerToText(records []models.FailureRecord) []byte {
	var buf bytes.Buffer

	if len(records) == 0 {
		buf.WriteString("No failed tracks recorded.\n")
		return buf.Bytes()
	}

	buf.WriteString(fmt.Sprintf("Failed tracks: %d\n\n", len(records)))

	for _, group := range groupByTarget(records) {
		buf.WriteString(fmt.Sprintf("%s (%d)\n", group.name, len(group.records)))
		for i, rec := range group.records {
			buf.WriteString(fmt.Sprintf("  %d. %s [%s] (%s)\n", i+1, rec.Track.String(), formatDurationMS(rec.DurationMS), rec.Reason))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// LedgerToMarkdown renders ledger entries as a Markdown report.
func LedgerToMarkdown(records []models.FailureRecord) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Failed Tracks\n\n")
	if len(records) == 0 {
		buf.WriteString("No failed tracks recorded.\n")
		return buf.Bytes()
	}

	buf.WriteString(fmt.Sprintf("**Total**: %d\n\n", len(records)))

	for _, group := range groupByTarget(records) {
		buf.WriteString(fmt.Sprintf("## %s\n\n", group.name))
		for i, rec := range group.records {
			buf.WriteString(fmt.Sprintf("%d. %s [%s] — `%s`\n", i+1, rec.Track.String(), formatDurationMS(rec.DurationMS), rec.Reason))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// LedgerToCSV renders ledger entries as CSV with columns: Playlist, Name, Artists, DurationMS, ID, Reason
func LedgerToCSV(records []models.FailureRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Playlist", "Name", "Artists", "DurationMS", "ID", "Reason"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, rec := range records {
		record := []string{
			rec.Playlist,
			shared.DecodeText(rec.Name),
			shared.DecodeText(rec.Artists),
			strconv.Itoa(rec.DurationMS),
			rec.ID,
			string(rec.Reason),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SummaryToText renders a sync run summary as plain text.
func SummaryToText(result *tasks.SyncResult) []byte {
	var buf bytes.Buffer

	for _, target := range result.Targets {
		status := ""
		if target.Created {
			status = " (created)"
		}
		buf.WriteString(fmt.Sprintf("%s%s\n", target.Name, status))
		buf.WriteString(fmt.Sprintf("  tracks: %d, matched: %d, added: %d, already present: %d, failed: %d\n",
			target.Total, target.Matched, target.Added, target.AlreadyPresent, target.Failed))
	}

	if len(result.Failures) > 0 {
		buf.WriteString(fmt.Sprintf("\n%d tracks recorded in the failure ledger.\n", len(result.Failures)))
	}

	return buf.Bytes()
}

type targetGroup struct {
	name    string
	records []models.FailureRecord
}

// groupByTarget buckets records by target name, ordered by first appearance
// then name for stability across ledger rewrites.
func groupByTarget(records []models.FailureRecord) []targetGroup {
	index := make(map[string]int)
	var groups []targetGroup

	for _, rec := range records {
		i, ok := index[rec.Playlist]
		if !ok {
			i = len(groups)
			index[rec.Playlist] = i
			groups = append(groups, targetGroup{name: rec.Playlist})
		}
		groups[i].records = append(groups[i].records, rec)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].name < groups[j].name
	})

	return groups
}

// formatDurationMS renders milliseconds as m:ss.
func formatDurationMS(ms int) string {
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
