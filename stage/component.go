package stage

import (
	"context"
	"strings"
	"time"

	"github.com/UIDickinson/EE-RI-Bot/adapter/compliance"
	"github.com/UIDickinson/EE-RI-Bot/adapter/datasheet"
	"github.com/UIDickinson/EE-RI-Bot/core"
	"github.com/UIDickinson/EE-RI-Bot/logging"
)

// ComponentAnalysisOptions configures the component analysis stage.
type ComponentAnalysisOptions struct {
	// FanOut bounds the concurrent datasheet lookups.
	FanOut FanOutOptions
	// MaxComponents caps how many parts get a deep lookup per query.
	MaxComponents int
	// Compliance optionally contributes certification requirements for the
	// query's geographic focus.
	Compliance *compliance.Adapter
	// Logger receives stage diagnostics.
	Logger logging.Logger
}

// ComponentAnalysis looks up datasheet records for the components the
// analysis stage extracted. In degraded mode it falls back to detecting
// part numbers in the raw query text.
type ComponentAnalysis struct {
	datasheets core.LookupAdapter
	opts       ComponentAnalysisOptions
}

// NewComponentAnalysis constructs the component analysis stage executor.
func NewComponentAnalysis(datasheets core.LookupAdapter, optFns ...func(o *ComponentAnalysisOptions)) *ComponentAnalysis {
	opts := ComponentAnalysisOptions{FanOut: DefaultFanOutOptions(), MaxComponents: 3, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ComponentAnalysis{datasheets: datasheets, opts: opts}
}

// Kind implements Executor.
func (c *ComponentAnalysis) Kind() core.StageKind { return core.StageComponentAnalysis }

// Requires implements Executor: the component list comes from analysis.
func (c *ComponentAnalysis) Requires() []core.StageKind { return []core.StageKind{core.StageAnalysis} }

// Execute implements Executor. Zero components is a valid outcome, not a
// failure.
func (c *ComponentAnalysis) Execute(ctx context.Context, in Input) core.StageResult {
	start := time.Now()
	result := core.NewStageResult(core.StageComponentAnalysis)

	components := c.components(in)
	if len(components) > c.opts.MaxComponents {
		components = components[:c.opts.MaxComponents]
	}

	calls := make([]Call[core.Record], 0, len(components))
	for _, part := range components {
		part := part
		calls = append(calls, Call[core.Record]{
			Adapter: c.datasheets.Name() + ":" + part,
			Fn: func(ctx context.Context) (core.Record, error) {
				return c.datasheets.Lookup(ctx, part)
			},
		})
	}

	outcomes := FanOut(ctx, c.opts.FanOut, calls)

	specs := map[string]any{}
	failed := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
			result.Errors = append(result.Errors, core.NewAdapterError(out.Adapter, out.Err))
			continue
		}
		specs[out.Value.ID] = out.Value.Fields
	}

	consolidate(&result, len(outcomes), failed)
	if result.Status != core.StatusFailed {
		result.Findings[core.FindingSpecs] = specs
		if reqs := c.complianceRequirements(ctx, in); len(reqs) > 0 {
			result.Findings[core.FindingCompliance] = reqs
			result.Summary["markets_checked"] = len(reqs)
		}
		if emc := c.emcStandards(ctx, in, specs); len(emc) > 0 {
			result.Findings[core.FindingEMC] = emc
		}
	}

	result.Summary["components_analyzed"] = len(specs)

	result.Elapsed = time.Since(start)
	c.opts.Logger.Debug("component analysis resolved %d of %d parts", len(specs), len(components))
	return result
}

// components resolves which part numbers to analyze: the analysis stage's
// extraction, or inline detection from the raw query in degraded mode.
func (c *ComponentAnalysis) components(in Input) []string {
	if !in.Degraded && len(in.Components) > 0 {
		return in.Components
	}
	return datasheet.DetectParts(in.Query.Prompt)
}

// complianceRequirements collects market requirements for the query's
// geographic focus. The knowledge base is local so errors are permanent and
// recorded only as diagnostics.
func (c *ComponentAnalysis) complianceRequirements(ctx context.Context, in Input) map[string]any {
	if c.opts.Compliance == nil {
		return nil
	}
	focus, _ := in.Prior["geographic_focus"].([]string)
	if in.Degraded || len(focus) == 0 {
		focus = []string{"EU", "Asia"}
	}

	reqs := map[string]any{}
	for _, market := range focus {
		rec, err := c.opts.Compliance.Lookup(ctx, market)
		if err != nil {
			c.opts.Logger.Debug("compliance lookup for %q skipped: %v", market, err)
			continue
		}
		reqs[rec.ID] = rec.Fields
	}
	return reqs
}

// emcStandards resolves EMC profiles for the product categories the looked-up
// datasheets name, falling back to categories mentioned in the query text.
func (c *ComponentAnalysis) emcStandards(ctx context.Context, in Input, specs map[string]any) map[string]any {
	if c.opts.Compliance == nil {
		return nil
	}

	categories := map[string]bool{}
	for _, v := range specs {
		fields, ok := v.(map[string]any)
		if !ok {
			continue
		}
		apps, _ := fields["applications"].([]string)
		for _, app := range apps {
			if cat, ok := compliance.EMCCategory(app); ok {
				categories[cat] = true
			}
		}
	}

	if len(categories) == 0 {
		results, err := c.opts.Compliance.Search(ctx, in.Query.Prompt)
		if err != nil {
			c.opts.Logger.Debug("compliance search skipped: %v", err)
		}
		for _, r := range results {
			if cat, found := strings.CutPrefix(r.ID, "emc:"); found {
				categories[cat] = true
			}
		}
	}

	if len(categories) == 0 {
		return nil
	}

	emc := map[string]any{}
	for cat := range categories {
		emc[cat] = c.opts.Compliance.EMCStandards(cat)
	}
	return emc
}
