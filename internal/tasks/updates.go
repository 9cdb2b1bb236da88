package tasks

import (
	"fmt"

	"github.com/desertthunder/tuneport/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LocateTarget Phase = iota
	ResolveTracks
	DiffMembers
	ApplyChanges
	LikeTracks
	TargetDone
)

func (p Phase) String() string {
	switch p {
	case LocateTarget:
		return "locate_target"
	case ResolveTracks:
		return "resolve_tracks"
	case DiffMembers:
		return "diff_members"
	case ApplyChanges:
		return "apply_changes"
	case LikeTracks:
		return "like_tracks"
	case TargetDone:
		return "target_done"
	default:
		return ""
	}
}

func locateUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LocateTarget,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Locating playlist: %s", name),
	}
}

func createdUpdate(name, remoteID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LocateTarget,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Created playlist: %s (ID: %s)", name, remoteID),
	}
}

func resolveUpdate(step, total int, tr models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, tr.String()),
	}
}

func diffUpdate(present, missing int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DiffMembers,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d already present, %d to add", present, missing),
	}
}

func applyUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ApplyChanges,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding %d tracks...", step, total, count),
	}
}

func likeUpdate(step, total int, tr models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LikeTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Liking: %s", step, total, tr.String()),
	}
}

func targetDoneUpdate(summary TargetSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   TargetDone,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("✓ %s: %d added, %d already present, %d failed", summary.Name, summary.Added, summary.AlreadyPresent, summary.Failed),
		Data:    summary,
	}
}
