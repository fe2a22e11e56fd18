package core

// Accumulator holds the ordered stage results produced during one query run
// plus the derived context passed forward between stages. It is owned
// exclusively by a single orchestrator run: allocated when the run starts,
// never shared across queries, and discarded at the terminal event. That
// exclusive ownership is why it carries no lock.
type Accumulator struct {
	SessionID string
	QueryID   string
	RunID     string

	results []StageResult
}

// NewAccumulator allocates an empty accumulator bound to one (session,
// query) pair.
func NewAccumulator(sessionID, queryID, runID string) *Accumulator {
	return &Accumulator{SessionID: sessionID, QueryID: queryID, RunID: runID}
}

// Record appends a stage result. Results arrive in fixed stage order; a
// stage's result is recorded even on partial failure since later stages may
// depend on partial data.
func (a *Accumulator) Record(r StageResult) {
	a.results = append(a.results, r)
}

// Results returns the recorded results in execution order. The slice is a
// copy; the accumulator's own record stays append-only.
func (a *Accumulator) Results() []StageResult {
	out := make([]StageResult, len(a.results))
	copy(out, a.results)
	return out
}

// Result returns the recorded result for a stage kind, if present.
func (a *Accumulator) Result(kind StageKind) (StageResult, bool) {
	for _, r := range a.results {
		if r.Stage == kind {
			return r, true
		}
	}
	return StageResult{}, false
}

// Finding looks up a named finding from a specific prior stage.
func (a *Accumulator) Finding(stage StageKind, name string) (any, bool) {
	r, ok := a.Result(stage)
	if !ok {
		return nil, false
	}
	return r.Finding(name)
}

// Findings merges all recorded findings into one forward context map.
// Later stages win on key collisions, matching execution order.
func (a *Accumulator) Findings() map[string]any {
	merged := map[string]any{}
	for _, r := range a.results {
		for k, v := range r.Findings {
			merged[k] = v
		}
	}
	return merged
}

// Components returns the component part numbers extracted by the analysis
// stage, the primary derived context feeding component analysis and supply
// chain lookups.
func (a *Accumulator) Components() []string {
	r, ok := a.Result(StageAnalysis)
	if !ok {
		return nil
	}
	return r.StringsFinding(FindingComponents)
}

// Well-known finding names shared between stages. Stages declare required
// prior findings by these keys; a missing key from a failed predecessor
// triggers degraded mode.
const (
	FindingDomains    = "domains"
	FindingComponents = "components"
	FindingStrategy   = "strategy"
	FindingPapers     = "papers"
	FindingTopSources = "top_sources"
	FindingSpecs      = "component_specs"
	FindingCompliance = "compliance"
	FindingEMC        = "emc_standards"
	FindingStock      = "availability"
	FindingBOMCost    = "bom_cost"
	FindingReport     = "report"
)
