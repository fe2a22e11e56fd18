package stage

import (
	"context"
	"time"

	"github.com/UIDickinson/EE-RI-Bot/adapter/datasheet"
	"github.com/UIDickinson/EE-RI-Bot/adapter/supplychain"
	"github.com/UIDickinson/EE-RI-Bot/core"
	"github.com/UIDickinson/EE-RI-Bot/logging"
)

// SupplyChainOptions configures the supply chain stage.
type SupplyChainOptions struct {
	// FanOut bounds the concurrent distributor lookups.
	FanOut FanOutOptions
	// Volume is the production volume priced in the BOM estimate.
	Volume int
	// Region labels the estimate's currency convention.
	Region string
	// Logger receives stage diagnostics.
	Logger logging.Logger
}

// SupplyChain checks distributor availability for every extracted component
// and prices a bill of materials from the quotes that carried prices. Parts
// missed by every distributor are recorded as adapter errors for
// observability while the stage degrades to PartiallySucceeded.
type SupplyChain struct {
	distributors core.LookupAdapter
	estimator    *CostEstimator
	opts         SupplyChainOptions
}

// NewSupplyChain constructs the supply chain stage executor.
func NewSupplyChain(distributors core.LookupAdapter, optFns ...func(o *SupplyChainOptions)) *SupplyChain {
	opts := SupplyChainOptions{FanOut: DefaultFanOutOptions(), Volume: 1000, Region: "EU", Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &SupplyChain{distributors: distributors, estimator: NewCostEstimator(), opts: opts}
}

// Kind implements Executor.
func (s *SupplyChain) Kind() core.StageKind { return core.StageSupplyChain }

// Requires implements Executor: the part list comes from analysis.
func (s *SupplyChain) Requires() []core.StageKind { return []core.StageKind{core.StageAnalysis} }

// Execute implements Executor.
func (s *SupplyChain) Execute(ctx context.Context, in Input) core.StageResult {
	start := time.Now()
	result := core.NewStageResult(core.StageSupplyChain)

	components := in.Components
	if in.Degraded || len(components) == 0 {
		components = datasheet.DetectParts(in.Query.Prompt)
	}

	calls := make([]Call[core.Record], 0, len(components))
	for _, part := range components {
		part := part
		calls = append(calls, Call[core.Record]{
			Adapter: s.distributors.Name() + ":" + part,
			Fn: func(ctx context.Context) (core.Record, error) {
				return s.distributors.Lookup(ctx, part)
			},
		})
	}

	outcomes := FanOut(ctx, s.opts.FanOut, calls)

	availability := map[string]any{}
	var bomLines []BOMLine
	failed := 0
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
			result.Errors = append(result.Errors, core.NewAdapterError(out.Adapter, out.Err))
			continue
		}
		availability[out.Value.ID] = out.Value.Fields
		if line, ok := bomLineFromRecord(out.Value); ok {
			bomLines = append(bomLines, line)
		}
	}

	consolidate(&result, len(outcomes), failed)
	if result.Status != core.StatusFailed {
		result.Findings[core.FindingStock] = availability
		if len(bomLines) > 0 {
			result.Findings[core.FindingBOMCost] = s.estimator.Estimate(bomLines, s.opts.Volume, s.opts.Region)
		}
	}

	result.Summary["components_checked"] = len(components)
	result.Summary["components_available"] = len(availability)

	result.Elapsed = time.Since(start)
	s.opts.Logger.Debug("supply chain resolved %d of %d parts", len(availability), len(components))
	return result
}

// bomLineFromRecord derives a priced BOM line from the cheapest quote the
// distributors returned, when any carried a price.
func bomLineFromRecord(rec core.Record) (BOMLine, bool) {
	quotes, ok := rec.Fields["quotes"].([]supplychain.Quote)
	if !ok {
		return BOMLine{}, false
	}
	best := 0.0
	for _, q := range quotes {
		if q.UnitPrice <= 0 {
			continue
		}
		if best == 0 || q.UnitPrice < best {
			best = q.UnitPrice
		}
	}
	if best == 0 {
		return BOMLine{}, false
	}
	return BOMLine{PartNumber: rec.ID, Quantity: 1, UnitPrice: best}, true
}
