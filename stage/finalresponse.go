package stage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/UIDickinson/EE-RI-Bot/core"
	"github.com/UIDickinson/EE-RI-Bot/logging"
)

// FinalResponseOptions configures the synthesis stage.
type FinalResponseOptions struct {
	// MaxTokens bounds the report completion.
	MaxTokens int
	// MaxContextPapers caps how many papers feed the prompt context.
	MaxContextPapers int
	// Logger receives stage diagnostics.
	Logger logging.Logger
}

// FinalResponse synthesizes the multi-part technical report from everything
// the prior stages accumulated. Its failure does not abort the run: the
// caller still gets the partial stage data and a Completed terminal.
type FinalResponse struct {
	capability core.Capability
	opts       FinalResponseOptions
}

// NewFinalResponse constructs the synthesis stage executor.
func NewFinalResponse(cap core.Capability, optFns ...func(o *FinalResponseOptions)) *FinalResponse {
	opts := FinalResponseOptions{MaxTokens: 16000, MaxContextPapers: 10, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &FinalResponse{capability: cap, opts: opts}
}

// Kind implements Executor.
func (f *FinalResponse) Kind() core.StageKind { return core.StageFinalResponse }

// Requires implements Executor.
func (f *FinalResponse) Requires() []core.StageKind {
	return []core.StageKind{core.StageAnalysis, core.StageResearch}
}

const reportSystemPrompt = "You are an expert EE Research Scout producing professional, quantitative technical analysis."

// Execute implements Executor.
func (f *FinalResponse) Execute(ctx context.Context, in Input) core.StageResult {
	start := time.Now()
	result := core.NewStageResult(core.StageFinalResponse)

	report, err := f.capability.Complete(ctx, core.Prompt{
		System:    reportSystemPrompt,
		Text:      f.buildPrompt(in),
		History:   in.Session.History,
		MaxTokens: f.opts.MaxTokens,
	})
	if err != nil {
		info := f.capability.Info()
		result.Status = core.StatusFailed
		result.Errors = append(result.Errors, core.NewAdapterError("capability:"+info.Provider, err))
		result.Elapsed = time.Since(start)
		f.opts.Logger.Warn("final response completion failed: %v", err)
		return result
	}

	result.Findings[core.FindingReport] = report

	// The report is the answer; it belongs on the wire.
	result.Summary["report"] = report
	result.Summary["report_length"] = len(report)

	result.Elapsed = time.Since(start)
	return result
}

// buildPrompt assembles the synthesis prompt from accumulated findings.
// Degraded mode (research failed) keeps only the original query.
func (f *FinalResponse) buildPrompt(in Input) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "USER QUERY: %s\n", in.Query.Prompt)

	if !in.Degraded {
		if domains, _ := in.Prior[core.FindingDomains].([]string); len(domains) > 0 {
			fmt.Fprintf(&sb, "\nDOMAINS: %s\n", strings.Join(domains, ", "))
		}
		if papers, _ := in.Prior[core.FindingPapers].([]core.SearchResult); len(papers) > 0 {
			sb.WriteString("\nRESEARCH CONTEXT:\n")
			limit := f.opts.MaxContextPapers
			if len(papers) < limit {
				limit = len(papers)
			}
			for _, p := range papers[:limit] {
				fmt.Fprintf(&sb, "- %s (%s) - %s\n", p.Title, p.Year, truncate(p.Snippet, 200))
			}
		}
		if len(in.Components) > 0 {
			fmt.Fprintf(&sb, "\nCOMPONENTS: %s\n", strings.Join(in.Components, ", "))
		}
	}

	sb.WriteString(`
Provide comprehensive technical analysis covering:
1. Innovation Overview
2. Technical Deep-Dive (specs, performance, efficiency)
3. Component Analysis (if applicable)
4. Technology Maturity (TRL assessment)
5. Supply Chain (EU/Asia availability)
6. Implementation Guidance (CE, RoHS, CCC compliance)
7. Quantitative Comparisons

Requirements:
- Professional/academic depth
- Quantitative data
- EU/Asia market focus
- Embedded systems priority
- Performance improvements >=15% for "breakthrough"

Provide detailed, structured analysis:`)

	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
