package tasks

import (
	"fmt"
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
	LoadPlaylist Phase = iota
	ExportPlaylist
	ExportComplete
)

func (p Phase) String() string {
	switch p {
	case LoadPlaylist:
		return "load_playlist"
	case ExportPlaylist:
		return "export_playlist"
	case ExportComplete:
		return "export_complete"
	default:
		return ""
	}
}

// sendProgress sends a progress update without blocking.
func sendProgress(ch chan<- ProgressUpdate, update ProgressUpdate) {
	if ch == nil {
		return
	}
	select {
	case ch <- update:
	default:
	}
}

func loadingUpdate(step, total int, key string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Loading playlist %d/%d: %s", step, total, key),
	}
}

func exportedUpdate(step, total int, name string, files int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✓ Exported %s (%d files)", name, files),
	}
}

func failedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✗ Failed to export %s: %v", name, err),
		Data:    err,
	}
}

func completeUpdate(result *BulkExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportComplete,
		Step:    result.TotalPlaylists,
		Total:   result.TotalPlaylists,
		Message: fmt.Sprintf("Exported %d/%d playlists", result.SuccessfulExports, result.TotalPlaylists),
		Data:    result,
	}
}
