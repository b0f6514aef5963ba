package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/melodylog/internal/models"
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
	ParseLinePhase Phase = iota
	Reconcile
	SkipLine
	SaveSongs
	ImportDone
)

func (p Phase) String() string {
	switch p {
	case ParseLinePhase:
		return "parse_line"
	case Reconcile:
		return "reconcile"
	case SkipLine:
		return "skip_line"
	case SaveSongs:
		return "save_songs"
	case ImportDone:
		return "import_done"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func parseLineUpdate(step, total int, title string, artists []string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParseLinePhase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, title, strings.Join(artists, ", ")),
	}
}

func reconcileUpdate(step, total int, stage Stage) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] metadata from %s", step, total, stage),
		Data:    stage,
	}
}

func skipLineUpdate(step, total int, e models.ImportError) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SkipLine,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s", step, total, e),
		Data:    e,
	}
}

func saveSongsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveSongs,
		Step:    0,
		Total:   count,
		Message: fmt.Sprintf("Saving %d songs...", count),
	}
}

func importDoneUpdate(total int, report *models.ImportReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportDone,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("✓ %d saved, %d failed", report.SavedCount, len(report.Errors)),
		Data:    report,
	}
}
