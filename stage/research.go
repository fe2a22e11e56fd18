package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/UIDickinson/EE-RI-Bot/core"
	"github.com/UIDickinson/EE-RI-Bot/logging"
)

// ResearchOptions configures the research stage.
type ResearchOptions struct {
	// FanOut bounds the concurrent adapter calls.
	FanOut FanOutOptions
	// MaxPapers caps the consolidated paper list passed forward.
	MaxPapers int
	// Logger receives stage diagnostics.
	Logger logging.Logger
}

// Research fans out the (domain-enhanced) query to every literature and
// patent source concurrently and consolidates the hits into one ordered
// paper list.
type Research struct {
	adapters []core.Adapter
	opts     ResearchOptions
}

// NewResearch constructs the research stage executor over the given
// literature/patent adapters.
func NewResearch(adapters []core.Adapter, optFns ...func(o *ResearchOptions)) *Research {
	opts := ResearchOptions{FanOut: DefaultFanOutOptions(), MaxPapers: 60, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Research{adapters: adapters, opts: opts}
}

// Kind implements Executor.
func (r *Research) Kind() core.StageKind { return core.StageResearch }

// Requires implements Executor: domain findings enhance the search query.
func (r *Research) Requires() []core.StageKind { return []core.StageKind{core.StageAnalysis} }

// domainKeywords expand a query with the vocabulary of its EE domain.
var domainKeywords = map[string]string{
	"power_management": "power management OR PMIC OR DC-DC OR buck OR boost",
	"emc_emi":          "EMC OR EMI OR electromagnetic compatibility",
	"edge_ai":          "edge AI OR neural processing OR AI accelerator",
	"embedded_systems": "embedded OR microcontroller OR MCU OR RTOS",
}

// Execute implements Executor.
func (r *Research) Execute(ctx context.Context, in Input) core.StageResult {
	start := time.Now()
	result := core.NewStageResult(core.StageResearch)

	query := r.enhanceQuery(in)

	calls := make([]Call[[]core.SearchResult], 0, len(r.adapters))
	for _, ad := range r.adapters {
		ad := ad
		calls = append(calls, Call[[]core.SearchResult]{
			Adapter: ad.Name(),
			Fn: func(ctx context.Context) ([]core.SearchResult, error) {
				return ad.Search(ctx, query)
			},
		})
	}

	outcomes := FanOut(ctx, r.opts.FanOut, calls)

	var papers []core.SearchResult
	var topSources []string
	failed := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
			result.Errors = append(result.Errors, core.NewAdapterError(out.Adapter, out.Err))
			continue
		}
		if len(out.Value) > 0 {
			topSources = append(topSources, out.Value[0].Source)
		}
		papers = append(papers, out.Value...)
	}
	if len(papers) > r.opts.MaxPapers {
		papers = papers[:r.opts.MaxPapers]
	}

	consolidate(&result, len(outcomes), failed)
	if result.Status != core.StatusFailed {
		result.Findings[core.FindingPapers] = papers
		result.Findings[core.FindingTopSources] = topSources
	}

	result.Summary["papers_found"] = len(papers)
	result.Summary["top_sources"] = topSources

	result.Elapsed = time.Since(start)
	r.opts.Logger.Debug("research consolidated %d papers from %d sources (%d failed)", len(papers), len(outcomes), failed)
	return result
}

// enhanceQuery appends domain vocabulary to the query text. Degraded mode
// falls back to the original prompt alone.
func (r *Research) enhanceQuery(in Input) string {
	if in.Degraded {
		return in.Query.Prompt
	}
	domains, _ := in.Prior[core.FindingDomains].([]string)
	for _, d := range domains {
		if kw, ok := domainKeywords[d]; ok {
			return fmt.Sprintf("%s AND (%s)", in.Query.Prompt, kw)
		}
	}
	return in.Query.Prompt
}
