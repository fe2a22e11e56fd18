package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies an emitted pipeline event. Stage kinds mirror
// StageKind; the three terminal kinds close the stream.
type EventKind string

const (
	// EventAnalysis reports the outcome of the analysis stage.
	EventAnalysis EventKind = "analysis"
	// EventResearch reports the outcome of the research stage.
	EventResearch EventKind = "research"
	// EventComponentAnalysis reports the outcome of the component analysis stage.
	EventComponentAnalysis EventKind = "component_analysis"
	// EventSupplyChain reports the outcome of the supply chain stage.
	EventSupplyChain EventKind = "supply_chain"
	// EventFinalResponse carries the synthesized answer.
	EventFinalResponse EventKind = "final_response"
	// EventCompleted terminates a successful run.
	EventCompleted EventKind = "completed"
	// EventFailed terminates a run whose query could not be answered.
	EventFailed EventKind = "failed"
	// EventCancelled terminates a run cancelled by the caller.
	EventCancelled EventKind = "cancelled"
)

// Terminal reports whether this kind closes the event stream. Every run
// emits exactly one terminal event.
func (k EventKind) Terminal() bool {
	switch k {
	case EventCompleted, EventFailed, EventCancelled:
		return true
	}
	return false
}

// Event is an immutable, append-only progress record streamed to the caller.
// The event sequence is the only externally observable trace of pipeline
// progress: sequence numbers are strictly increasing within one run and
// never reused, and stage events arrive in fixed stage order.
type Event struct {
	ID        string         `json:"id"`
	RunID     string         `json:"run_id"`
	SessionID string         `json:"session_id"`
	QueryID   string         `json:"query_id"`
	Kind      EventKind      `json:"kind"`
	Seq       uint64         `json:"seq"`
	Timestamp time.Time      `json:"timestamp"`
	Summary   string         `json:"summary,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// NewEvent creates a bare event bound to a run. Sequence numbers are
// assigned by the orchestrator at emission time.
func NewEvent(runID, sessionID, queryID string, kind EventKind) Event {
	return Event{
		ID:        NewID(),
		RunID:     runID,
		SessionID: sessionID,
		QueryID:   queryID,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// NewStageEvent builds the wire event for a recorded StageResult. Only the
// caller-facing summary travels on the wire, never raw adapter payloads.
func NewStageEvent(runID, sessionID, queryID string, result StageResult) Event {
	e := NewEvent(runID, sessionID, queryID, result.Stage.EventKind())
	payload := map[string]any{
		"status":        string(result.Status),
		"finding_count": len(result.Findings),
	}
	for k, v := range result.Summary {
		payload[k] = v
	}
	if failed := result.FailedAdapters(); len(failed) > 0 {
		payload["failed_adapters"] = failed
	}
	e.Payload = payload
	return e
}

// NewTerminalEvent builds one of the three terminal events. Summary is an
// optional human-readable note (e.g. the failure reason).
func NewTerminalEvent(runID, sessionID, queryID string, kind EventKind, summary string) Event {
	e := NewEvent(runID, sessionID, queryID, kind)
	e.Summary = summary
	return e
}

// IsTerminal reports whether this event closes the stream.
func (e Event) IsTerminal() bool { return e.Kind.Terminal() }

// UnixSeconds returns the timestamp as fractional seconds since Unix epoch.
// Useful for metrics & numeric serialization paths.
func (e Event) UnixSeconds() float64 { return float64(e.Timestamp.UnixNano()) / 1e9 }

// NewID generates a new unique identifier for events, queries and runs.
func NewID() string { return uuid.NewString() }
