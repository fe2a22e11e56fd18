// Package stage implements the five fixed pipeline stages and the bounded
// concurrent fan-out they share. Each executor consumes the prior stages'
// findings, calls its adapters and/or the capability gateway within the
// caller-supplied timeout, and consolidates everything into one StageResult.
// Adapter failures never escape a stage as Go errors.
package stage

import (
	"context"

	"github.com/UIDickinson/EE-RI-Bot/core"
)

// Input carries everything an executor may consume. The orchestrator builds
// it from the accumulator before each stage.
type Input struct {
	Session core.Session
	Query   core.Query

	// Prior is the merged findings of all recorded predecessor stages.
	Prior map[string]any
	// Components is the part-number list derived by the analysis stage.
	Components []string
	// Degraded is set when a required predecessor failed: the stage must
	// fall back to the original query text only.
	Degraded bool
}

// Executor is one pipeline stage. Execute never returns an error: every
// failure is folded into the StageResult's status and error list.
type Executor interface {
	// Kind identifies the stage.
	Kind() core.StageKind

	// Requires lists predecessor stages whose findings this stage consumes.
	// A failed predecessor in this list puts the stage into degraded mode.
	Requires() []core.StageKind

	// Execute runs the stage, bounded by ctx's deadline.
	Execute(ctx context.Context, in Input) core.StageResult
}

// consolidate derives the stage status from fan-out outcomes per the shared
// rule: every call failed means Failed with empty findings, a mix means
// PartiallySucceeded, and no failures means Succeeded even with zero
// findings.
func consolidate(result *core.StageResult, attempted, failed int) {
	switch {
	case attempted > 0 && failed == attempted:
		result.Status = core.StatusFailed
		result.Findings = map[string]any{}
	case failed > 0:
		result.Status = core.StatusPartiallySucceeded
	default:
		result.Status = core.StatusSucceeded
	}
}
