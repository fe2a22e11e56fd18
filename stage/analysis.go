package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/UIDickinson/EE-RI-Bot/adapter/datasheet"
	"github.com/UIDickinson/EE-RI-Bot/core"
	"github.com/UIDickinson/EE-RI-Bot/logging"
)

// AnalysisOptions configures the analysis stage.
type AnalysisOptions struct {
	// MaxTokens bounds the classification completion.
	MaxTokens int
	// Logger receives stage diagnostics.
	Logger logging.Logger
}

// Analysis interprets the query: which EE domains it touches, which
// components it names and which research strategy fits. Its failure is
// fatal for the whole query, so it is the only stage whose Failed status
// aborts the pipeline.
type Analysis struct {
	capability core.Capability
	opts       AnalysisOptions
}

// NewAnalysis constructs the analysis stage executor.
func NewAnalysis(cap core.Capability, optFns ...func(o *AnalysisOptions)) *Analysis {
	opts := AnalysisOptions{MaxTokens: 1024, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Analysis{capability: cap, opts: opts}
}

// Kind implements Executor.
func (a *Analysis) Kind() core.StageKind { return core.StageAnalysis }

// Requires implements Executor; analysis has no predecessors.
func (a *Analysis) Requires() []core.StageKind { return nil }

// queryAnalysis is the structured output requested from the capability.
type queryAnalysis struct {
	Domains         []string `json:"domains"`
	Components      []string `json:"components"`
	Strategy        string   `json:"strategy"`
	GeographicFocus []string `json:"geographic_focus"`
}

const analysisSystemPrompt = "You are an expert electrical engineering research analyst. " +
	"Answer with a single JSON object and nothing else."

func analysisPrompt(query string) string {
	return fmt.Sprintf(`Analyze this EE query and extract:
1. Relevant domains (embedded_systems, power_management, emc_emi, edge_ai, analog_design, rf_wireless, digital_systems)
2. Specific components mentioned
3. Strategy (innovation_search, component_comparison, implementation_guide)

Query: %s

Return JSON:
{
    "domains": ["domain1"],
    "components": ["component1"],
    "strategy": "innovation_search",
    "geographic_focus": ["EU", "Asia"]
}`, query)
}

// Execute implements Executor. A capability failure fails the stage; a
// malformed completion degrades to heuristic defaults instead, since a
// reachable model that answered badly is still an understood query.
func (a *Analysis) Execute(ctx context.Context, in Input) core.StageResult {
	start := time.Now()
	result := core.NewStageResult(core.StageAnalysis)

	text, err := a.capability.Complete(ctx, core.Prompt{
		System:    analysisSystemPrompt,
		Text:      analysisPrompt(in.Query.Prompt),
		History:   in.Session.History,
		MaxTokens: a.opts.MaxTokens,
	})
	if err != nil {
		info := a.capability.Info()
		result.Status = core.StatusFailed
		result.Errors = append(result.Errors, core.NewAdapterError("capability:"+info.Provider, err))
		result.Elapsed = time.Since(start)
		a.opts.Logger.Warn("analysis completion failed: %v", err)
		return result
	}

	qa := parseAnalysis(text)
	if len(qa.Components) == 0 {
		// The model may miss part numbers written inline; the prefix
		// heuristics catch the common families.
		qa.Components = datasheet.DetectParts(in.Query.Prompt)
	}

	result.Findings[core.FindingDomains] = qa.Domains
	result.Findings[core.FindingComponents] = qa.Components
	result.Findings[core.FindingStrategy] = qa.Strategy
	result.Findings["geographic_focus"] = qa.GeographicFocus

	result.Summary["domains"] = qa.Domains
	result.Summary["strategy"] = qa.Strategy
	result.Summary["component_count"] = len(qa.Components)

	result.Elapsed = time.Since(start)
	return result
}

// parseAnalysis decodes the completion, tolerating code fences, and falls
// back to defaults on malformed output.
func parseAnalysis(text string) queryAnalysis {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var qa queryAnalysis
	if err := json.Unmarshal([]byte(cleaned), &qa); err != nil || len(qa.Domains) == 0 {
		return queryAnalysis{
			Domains:         []string{"general"},
			Strategy:        "innovation_search",
			GeographicFocus: []string{"EU", "Asia"},
		}
	}
	if qa.Strategy == "" {
		qa.Strategy = "innovation_search"
	}
	if len(qa.GeographicFocus) == 0 {
		qa.GeographicFocus = []string{"EU", "Asia"}
	}
	return qa
}
