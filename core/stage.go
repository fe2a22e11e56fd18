package core

import "time"

// StageKind identifies one of the five fixed pipeline stages.
type StageKind string

const (
	// StageAnalysis interprets the query: domains, components, strategy.
	StageAnalysis StageKind = "analysis"
	// StageResearch searches literature and patent sources.
	StageResearch StageKind = "research"
	// StageComponentAnalysis inspects datasheets for extracted components.
	StageComponentAnalysis StageKind = "component_analysis"
	// StageSupplyChain checks distributor availability and pricing.
	StageSupplyChain StageKind = "supply_chain"
	// StageFinalResponse synthesizes the final technical report.
	StageFinalResponse StageKind = "final_response"
)

// StageOrder returns the fixed, total execution order of the pipeline.
// A stage never starts before its predecessor's result is recorded.
func StageOrder() []StageKind {
	return []StageKind{
		StageAnalysis,
		StageResearch,
		StageComponentAnalysis,
		StageSupplyChain,
		StageFinalResponse,
	}
}

// EventKind returns the progress event kind emitted for this stage.
func (k StageKind) EventKind() EventKind { return EventKind(k) }

// StageStatus classifies the outcome of one stage execution.
type StageStatus string

const (
	// StatusSucceeded means every adapter/capability call completed. A stage
	// with zero findings but no errors is still Succeeded; absence of
	// results is a valid outcome.
	StatusSucceeded StageStatus = "succeeded"
	// StatusPartiallySucceeded means some calls failed but at least one
	// produced findings.
	StatusPartiallySucceeded StageStatus = "partially_succeeded"
	// StatusFailed means every call for the stage failed.
	StatusFailed StageStatus = "failed"
)

// AdapterError records a single failed adapter or capability call inside a
// StageResult. It is a value, not a propagated error: adapter failures never
// cross the stage executor boundary as Go errors.
type AdapterError struct {
	Adapter   string `json:"adapter"`
	Message   string `json:"message"`
	Permanent bool   `json:"permanent"`
}

// Error implements the error interface.
func (e AdapterError) Error() string { return e.Adapter + ": " + e.Message }

// StageResult is the recorded output of one stage execution.
//
// Findings hold the full semantic payloads passed forward to later stages.
// Summary holds the caller-facing subset emitted on the wire; raw adapter
// payloads stay out of it to keep the event format stable.
type StageResult struct {
	Stage    StageKind      `json:"stage"`
	Status   StageStatus    `json:"status"`
	Findings map[string]any `json:"findings,omitempty"`
	Summary  map[string]any `json:"summary,omitempty"`
	Errors   []AdapterError `json:"errors,omitempty"`
	Elapsed  time.Duration  `json:"elapsed"`
}

// NewStageResult constructs an empty, succeeded result for a stage.
func NewStageResult(kind StageKind) StageResult {
	return StageResult{
		Stage:    kind,
		Status:   StatusSucceeded,
		Findings: map[string]any{},
		Summary:  map[string]any{},
	}
}

// Finding returns a named finding and whether it is present.
func (r StageResult) Finding(name string) (any, bool) {
	v, ok := r.Findings[name]
	return v, ok
}

// Failed reports whether the stage produced no usable output.
func (r StageResult) Failed() bool { return r.Status == StatusFailed }

// FailedAdapters returns the identities of adapters that errored, preserving
// the order failures were recorded in.
func (r StageResult) FailedAdapters() []string {
	if len(r.Errors) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		names = append(names, e.Adapter)
	}
	return names
}

// StringsFinding returns a named finding coerced to a string slice. It
// accepts both []string and []any values so findings survive a JSON
// round-trip through session state.
func (r StageResult) StringsFinding(name string) []string {
	v, ok := r.Findings[name]
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
