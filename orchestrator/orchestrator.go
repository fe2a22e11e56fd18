// Package orchestrator sequences the five pipeline stages for one query,
// applies per-stage timeouts, streams sequence-numbered events to the
// caller and guarantees exactly one terminal event per run.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/UIDickinson/EE-RI-Bot/core"
	"github.com/UIDickinson/EE-RI-Bot/knowledge"
	"github.com/UIDickinson/EE-RI-Bot/logging"
	"github.com/UIDickinson/EE-RI-Bot/session"
	"github.com/UIDickinson/EE-RI-Bot/stage"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// StageTimeout bounds each stage execution independently of the total.
	StageTimeout time.Duration
	// EventBufferSize sets channel buffering for events.
	EventBufferSize int
	// KnowledgeTimeout bounds the fire-and-forget knowledge write.
	KnowledgeTimeout time.Duration
	// SessionStore records interaction history across queries.
	SessionStore core.SessionStore
	// KnowledgeStore optionally receives accumulated findings after a
	// completed run. Its failures never fail the query.
	KnowledgeStore core.KnowledgeStore
	// Logger receives orchestration diagnostics.
	Logger logging.Logger
}

// Orchestrator coordinates query execution: builds the per-run accumulator,
// runs the stage executors in fixed order, streams events and manages
// cancellation. Public methods are safe for concurrent use; each run owns
// its accumulator exclusively.
type Orchestrator struct {
	executors []stage.Executor

	stageTimeout     time.Duration
	eventBufferSize  int
	knowledgeTimeout time.Duration

	sessions  core.SessionStore
	knowledge core.KnowledgeStore
	logger    logging.Logger

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

// New constructs an Orchestrator over the given executors, which must cover
// the fixed stage order exactly.
func New(executors []stage.Executor, optFns ...func(o *Options)) (*Orchestrator, error) {
	opts := Options{
		StageTimeout:     60 * time.Second,
		EventBufferSize:  100,
		KnowledgeTimeout: 10 * time.Second,
		SessionStore:     session.NewInMemoryStore(),
		Logger:           logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	order := core.StageOrder()
	if len(executors) != len(order) {
		return nil, fmt.Errorf("expected %d stage executors, got %d", len(order), len(executors))
	}
	for i, exec := range executors {
		if exec.Kind() != order[i] {
			return nil, fmt.Errorf("executor %d implements stage %q, want %q", i, exec.Kind(), order[i])
		}
	}

	return &Orchestrator{
		executors:        executors,
		stageTimeout:     opts.StageTimeout,
		eventBufferSize:  opts.EventBufferSize,
		knowledgeTimeout: opts.KnowledgeTimeout,
		sessions:         opts.SessionStore,
		knowledge:        opts.KnowledgeStore,
		logger:           opts.Logger,
		activeRuns:       make(map[string]context.CancelFunc),
	}, nil
}

// Run starts an asynchronous pipeline run for one (session, query) pair.
// It returns:
//
//	runID    - stable identifier for cancellation / tracking
//	eventsCh - ordered stream of events (closed after the terminal event)
//	errorsCh - internal fault channel (size 1, closed after send/none)
//
// The immediate error return covers startup failures only. Events carry
// strictly increasing sequence numbers and the stream ends with exactly one
// of Completed, Failed or Cancelled.
func (o *Orchestrator) Run(
	ctx context.Context,
	sess core.Session,
	query core.Query,
) (string, <-chan core.Event, <-chan error, error) {
	if query.Prompt == "" {
		return "", nil, nil, errors.New("query prompt must not be empty")
	}
	if query.ID == "" {
		query.ID = core.NewID()
	}

	runID := core.NewID()

	if err := o.sessions.Append(sess.SessionID, core.Interaction{
		Role:      "user",
		Text:      query.Prompt,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		return "", nil, nil, fmt.Errorf("failed to append user interaction: %w", err)
	}

	eventsCh := make(chan core.Event, o.eventBufferSize)
	errorsCh := make(chan error, 1)

	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.activeRuns[runID] = cancel
	o.mu.Unlock()

	go func() {
		defer func() {
			// Deregister before closing: a consumer observing the closed
			// stream must find the run already gone.
			o.mu.Lock()
			delete(o.activeRuns, runID)
			o.mu.Unlock()
			cancel()
			close(eventsCh)
			close(errorsCh)
		}()

		o.runPipeline(ctx, sess, query, runID, eventsCh)
	}()

	return runID, eventsCh, errorsCh, nil
}

// Cancel requests cooperative termination of an in-flight run. It is an
// error to cancel an unknown or already finished run.
func (o *Orchestrator) Cancel(runID string) error {
	o.mu.Lock()
	cancel, exists := o.activeRuns[runID]
	o.mu.Unlock()

	if !exists {
		return fmt.Errorf("run %s not found", runID)
	}

	cancel()

	return nil
}

// runPipeline drives the fixed stage sequence. The accumulator allocated
// here is exclusively owned by this run and discarded with the terminal
// event.
func (o *Orchestrator) runPipeline(
	ctx context.Context,
	sess core.Session,
	query core.Query,
	runID string,
	eventsCh chan<- core.Event,
) {
	logger := o.logger
	acc := core.NewAccumulator(sess.SessionID, query.ID, runID)

	var seq uint64

	// emit delivers ev with the next sequence number, honoring caller
	// cancellation. Returns false when the run was cancelled.
	emit := func(ev core.Event) bool {
		seq++
		ev.Seq = seq
		select {
		case <-ctx.Done():
			return false
		case eventsCh <- ev:
			return true
		}
	}

	// emitTerminal always delivers, even with a full buffer or after
	// cancellation: the consumer owns the drain and the channel closes
	// right after, so the stream always ends with exactly one terminal.
	emitTerminal := func(kind core.EventKind, summary string) {
		ev := core.NewTerminalEvent(runID, sess.SessionID, query.ID, kind, summary)
		seq++
		ev.Seq = seq
		eventsCh <- ev
	}

	for _, exec := range o.executors {
		if ctx.Err() != nil {
			emitTerminal(core.EventCancelled, "query cancelled")
			return
		}

		in := o.buildInput(sess, query, acc, exec)

		stageCtx, cancelStage := context.WithTimeout(ctx, o.stageTimeout)
		result := exec.Execute(stageCtx, in)
		cancelStage()

		// Cancellation during the stage: in-flight work was abandoned and
		// its partial result is discarded with the accumulator.
		if ctx.Err() != nil {
			emitTerminal(core.EventCancelled, "query cancelled")
			return
		}

		acc.Record(result)
		logger.Debug("stage %s finished status=%s findings=%d session_id=%s",
			result.Stage, result.Status, len(result.Findings), sess.SessionID)

		if !emit(core.NewStageEvent(runID, sess.SessionID, query.ID, result)) {
			emitTerminal(core.EventCancelled, "query cancelled")
			return
		}

		if result.Stage == core.StageAnalysis && result.Failed() {
			emitTerminal(core.EventFailed, core.ErrAnalysisFailed.Error())
			return
		}
	}

	o.recordOutcome(sess, query, acc)

	emitTerminal(core.EventCompleted, "")
}

// buildInput assembles a stage's input from the accumulator. A stage whose
// required predecessor failed runs in degraded mode on the original query
// text only.
func (o *Orchestrator) buildInput(sess core.Session, query core.Query, acc *core.Accumulator, exec stage.Executor) stage.Input {
	degraded := false
	for _, req := range exec.Requires() {
		if r, ok := acc.Result(req); ok && r.Failed() {
			degraded = true
			break
		}
	}

	return stage.Input{
		Session:    sess,
		Query:      query,
		Prior:      acc.Findings(),
		Components: acc.Components(),
		Degraded:   degraded,
	}
}

// recordOutcome persists the final report into session history and hands
// the accumulated findings to the knowledge store. Both are best-effort:
// neither failure fails the query.
func (o *Orchestrator) recordOutcome(sess core.Session, query core.Query, acc *core.Accumulator) {
	if report, ok := acc.Finding(core.StageFinalResponse, core.FindingReport); ok {
		if text, ok := report.(string); ok && text != "" {
			if err := o.sessions.Append(sess.SessionID, core.Interaction{
				Role:      "assistant",
				Text:      text,
				Timestamp: time.Now().UTC(),
			}); err != nil {
				o.logger.Warn("failed to append assistant interaction: %v", err)
			}
		}
	}

	if o.knowledge == nil {
		return
	}

	// Fire-and-forget: runs on its own context so a slow store never
	// delays the terminal event.
	findings := acc.Findings()
	components := acc.Components()
	sessionID, queryID := sess.SessionID, query.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.knowledgeTimeout)
		defer cancel()

		for _, part := range components {
			props := map[string]any{"query_id": queryID}
			if specs, ok := findings[core.FindingSpecs].(map[string]any); ok {
				if fields, ok := specs[part].(map[string]any); ok {
					for k, v := range fields {
						props[k] = v
					}
				}
			}
			if err := o.knowledge.AddComponent(ctx, part, props); err != nil {
				o.logger.Warn("knowledge component write failed for %s: %v", part, err)
				continue
			}
			if err := o.knowledge.Relate(ctx, queryID, part, knowledge.RelationMentions); err != nil {
				o.logger.Warn("knowledge relation write failed for %s: %v", part, err)
			}
		}

		if papers, ok := findings[core.FindingPapers].([]core.SearchResult); ok {
			for _, p := range papers {
				if err := o.knowledge.Relate(ctx, queryID, p.ID, knowledge.RelationDiscovered); err != nil {
					o.logger.Warn("knowledge relation write failed for paper %s: %v", p.ID, err)
				}
			}
		}

		if err := o.knowledge.RecordFindings(ctx, sessionID, queryID, findings); err != nil {
			o.logger.Warn("knowledge findings write failed: %v", err)
		}
	}()
}
