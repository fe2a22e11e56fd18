// Package eescout provides a high-level façade over the research pipeline
// (capability gateway, adapters, stage executors and the orchestrator),
// enabling construction of an electronics research assistant in a few
// lines. Most applications interact with this package by:
//  1. Creating a Scout via New() with a config.Config (optionally
//     overriding services through option functions)
//  2. Submitting queries with Run() and consuming the event stream
//  3. Cancelling long-running queries with Cancel()
//
// The façade delegates execution to orchestrator.Orchestrator while keeping
// setup ergonomics concise. All defaults are safe for local development;
// production deployments typically supply a Neo4j knowledge store and a
// structured logger.
package eescout

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/UIDickinson/EE-RI-Bot/adapter"
	"github.com/UIDickinson/EE-RI-Bot/adapter/arxiv"
	"github.com/UIDickinson/EE-RI-Bot/adapter/compliance"
	"github.com/UIDickinson/EE-RI-Bot/adapter/datasheet"
	"github.com/UIDickinson/EE-RI-Bot/adapter/semanticscholar"
	"github.com/UIDickinson/EE-RI-Bot/adapter/supplychain"
	"github.com/UIDickinson/EE-RI-Bot/capability"
	"github.com/UIDickinson/EE-RI-Bot/capability/anthropic"
	"github.com/UIDickinson/EE-RI-Bot/capability/openai"
	"github.com/UIDickinson/EE-RI-Bot/config"
	"github.com/UIDickinson/EE-RI-Bot/core"
	"github.com/UIDickinson/EE-RI-Bot/logging"
	"github.com/UIDickinson/EE-RI-Bot/orchestrator"
	"github.com/UIDickinson/EE-RI-Bot/session"
	"github.com/UIDickinson/EE-RI-Bot/stage"
)

// Options configures the Scout instance. Zero values fall back to defaults
// derived from the config.Config passed to New.
type Options struct {
	// Capability overrides the LLM gateway selected from cfg.Backend.
	Capability core.Capability
	// ResearchAdapters overrides the literature search adapters.
	ResearchAdapters []core.Adapter
	// DatasheetAdapter overrides the component datasheet adapter.
	DatasheetAdapter core.LookupAdapter
	// SupplyChainAdapter overrides the distributor availability adapter.
	SupplyChainAdapter core.LookupAdapter
	// SessionStore overrides the in-memory conversation history store.
	SessionStore core.SessionStore
	// KnowledgeStore receives accumulated findings after completed runs.
	KnowledgeStore core.KnowledgeStore
	// Logger receives diagnostics from all pipeline components.
	Logger logging.Logger
}

// Scout is the top-level entry point for research queries.
type Scout struct {
	orchestrator *orchestrator.Orchestrator
	sessions     core.SessionStore
	logger       logging.Logger
}

// New wires a complete pipeline from configuration. The capability backend
// is selected by cfg.Backend; adapters and stores can be replaced through
// option functions.
func New(cfg config.Config, optFns ...func(o *Options)) (*Scout, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := Options{
		SessionStore: session.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	cap := opts.Capability
	if cap == nil {
		var err error
		cap, err = newCapability(cfg)
		if err != nil {
			return nil, err
		}
	}

	limiter := adapter.NewLimiter(cfg.AdapterRateLimit)

	research := opts.ResearchAdapters
	if research == nil {
		research = []core.Adapter{
			arxiv.New(func(o *arxiv.Options) {
				o.MaxResults = cfg.MaxSearchResults
				o.Limiter = limiter
				o.Logger = opts.Logger
			}),
			semanticscholar.New(func(o *semanticscholar.Options) {
				o.MaxResults = cfg.MaxSearchResults
				o.Limiter = limiter
				o.Logger = opts.Logger
			}),
		}
	}

	datasheets := opts.DatasheetAdapter
	if datasheets == nil {
		datasheets = datasheet.New(func(o *datasheet.Options) {
			o.Logger = opts.Logger
		})
	}

	distributors := opts.SupplyChainAdapter
	if distributors == nil {
		distributors = supplychain.New(func(o *supplychain.Options) {
			o.Logger = opts.Logger
		})
	}

	complianceAdapter := compliance.New()

	retry := adapter.Policy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.RetryBaseDelay,
		MaxDelay:   cfg.RetryMaxDelay,
		Jitter:     true,
	}
	fanOut := stage.FanOutOptions{
		Concurrency: cfg.MaxConcurrentCalls,
		CallTimeout: cfg.AdapterTimeout,
		Retry:       retry,
	}

	executors := []stage.Executor{
		stage.NewAnalysis(cap, func(o *stage.AnalysisOptions) {
			o.Logger = opts.Logger
		}),
		stage.NewResearch(research, func(o *stage.ResearchOptions) {
			o.FanOut = fanOut
			o.Logger = opts.Logger
		}),
		stage.NewComponentAnalysis(datasheets, func(o *stage.ComponentAnalysisOptions) {
			o.FanOut = fanOut
			o.Compliance = complianceAdapter
			o.Logger = opts.Logger
		}),
		stage.NewSupplyChain(distributors, func(o *stage.SupplyChainOptions) {
			o.FanOut = fanOut
			o.Logger = opts.Logger
		}),
		stage.NewFinalResponse(cap, func(o *stage.FinalResponseOptions) {
			o.Logger = opts.Logger
		}),
	}

	orch, err := orchestrator.New(executors, func(o *orchestrator.Options) {
		o.StageTimeout = cfg.StageTimeout
		o.EventBufferSize = cfg.EventBufferSize
		o.SessionStore = opts.SessionStore
		o.KnowledgeStore = opts.KnowledgeStore
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	return &Scout{
		orchestrator: orch,
		sessions:     opts.SessionStore,
		logger:       opts.Logger,
	}, nil
}

// Run submits a research query for asynchronous execution and returns the
// run ID together with the event stream. See orchestrator.Orchestrator.Run
// for stream semantics.
func (s *Scout) Run(ctx context.Context, sessionID, prompt string) (string, <-chan core.Event, <-chan error, error) {
	history, err := s.sessions.History(sessionID)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to load session history: %w", err)
	}

	sess := core.Session{
		SessionID: sessionID,
		History:   history,
	}

	return s.orchestrator.Run(ctx, sess, core.NewQuery(prompt))
}

// Cancel requests cooperative termination of an in-flight run.
func (s *Scout) Cancel(runID string) error {
	return s.orchestrator.Cancel(runID)
}

// History returns the recorded conversation history for a session.
func (s *Scout) History(sessionID string) ([]core.Interaction, error) {
	return s.sessions.History(sessionID)
}

func newCapability(cfg config.Config) (core.Capability, error) {
	switch cfg.Backend {
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			o.APIKey = cfg.APIKey
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
		}), nil
	case "openai", "openrouter":
		return openai.New(func(o *openai.Options) {
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		}), nil
	case "mock":
		return capability.NewMock(), nil
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}
