package inbox

import (
	"fmt"
)

// ProgressUpdate represents a progress event during an inbox sweep.
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
	FetchPending Phase = iota
	ProcessMessage
	SweepComplete
)

func (p Phase) String() string {
	switch p {
	case FetchPending:
		return "fetch_pending"
	case ProcessMessage:
		return "process_message"
	case SweepComplete:
		return "sweep_complete"
	default:
		return ""
	}
}

// sendProgress delivers an update without blocking when nobody is reading.
func sendProgress(ch chan<- ProgressUpdate, update ProgressUpdate) {
	if ch == nil {
		return
	}
	select {
	case ch <- update:
	default:
	}
}

func fetchPendingUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPending,
		Message: "Fetching pending inbox messages...",
	}
}

func processingUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProcessMessage,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Processing message %s...", step, total, id),
	}
}

func processedUpdate(step, total int, res Result) ProgressUpdate {
	mark := "✓"
	if res.Outcome == Failed || res.Outcome == DeadLettered {
		mark = "✗"
	}
	msg := fmt.Sprintf("[%d/%d] %s %s (%s)", step, total, mark, res.MessageID, res.Outcome)
	if res.Name != "" {
		msg = fmt.Sprintf("[%d/%d] %s %s: %s (%s)", step, total, mark, res.MessageID, res.Name, res.Outcome)
	}
	return ProgressUpdate{
		Phase:   ProcessMessage,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func sweepCompleteUpdate(result SweepResult) ProgressUpdate {
	return ProgressUpdate{
		Phase: SweepComplete,
		Step:  result.Total(),
		Total: result.Total(),
		Message: fmt.Sprintf("Inbox sweep complete: %d imported, %d duplicate, %d invalid, %d failed",
			result.Counts[Imported], result.Counts[Duplicate], result.Counts[Invalid],
			result.Counts[Failed]+result.Counts[DeadLettered]),
		Data: result,
	}
}
