package inbox

// Outcome is the final state of one processed message.
type Outcome int

const (
	// Imported means the playlist or grant was written.
	Imported Outcome = iota
	// Duplicate means the message was already imported and has been consumed.
	Duplicate
	// Invalid means the message could not be imported and has been consumed.
	Invalid
	// Failed means the import stopped part way; the message stays pending.
	Failed
	// DeadLettered means the message failed too many times and was marked processed.
	DeadLettered
)

func (o Outcome) String() string {
	switch o {
	case Imported:
		return "imported"
	case Duplicate:
		return "duplicate"
	case Invalid:
		return "invalid"
	case Failed:
		return "failed"
	case DeadLettered:
		return "dead_lettered"
	default:
		return ""
	}
}

// Result describes how one message was handled.
type Result struct {
	MessageID   string
	Outcome     Outcome
	PlaylistKey string
	Name        string
	Err         error
}

// SweepResult aggregates one pass over the inbox.
type SweepResult struct {
	Results []Result
	Counts  map[Outcome]int
}

func (r *SweepResult) add(res Result) {
	if r.Counts == nil {
		r.Counts = make(map[Outcome]int)
	}
	r.Results = append(r.Results, res)
	r.Counts[res.Outcome]++
}

// Total is the number of messages handled.
func (r SweepResult) Total() int { return len(r.Results) }
