package eescout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UIDickinson/EE-RI-Bot/adapter/supplychain"
	"github.com/UIDickinson/EE-RI-Bot/capability"
	"github.com/UIDickinson/EE-RI-Bot/config"
	"github.com/UIDickinson/EE-RI-Bot/core"
	"github.com/UIDickinson/EE-RI-Bot/internal/testutil"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Backend = "mock"
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RetryMaxDelay = 5 * time.Millisecond
	return cfg
}

// scriptedCapability answers the analysis stage with structured JSON and
// every other completion with a report.
func scriptedCapability(analysisJSON string) *capability.Mock {
	mock := capability.NewMock()
	mock.RespondWith = func(p core.Prompt) (string, error) {
		if p.MaxTokens <= 2048 {
			return analysisJSON, nil
		}
		return "## Executive Summary\n\nGaN half-bridge drivers lead on efficiency.", nil
	}
	return mock
}

func quoteRecord(part string, price float64) core.Record {
	return core.Record{
		ID:     part,
		Source: "supply_chain",
		Fields: map[string]any{
			"quotes": []supplychain.Quote{
				{Distributor: "Digi-Key", Region: "EU", Status: "in_stock", Stock: 400, UnitPrice: price, Currency: "EUR"},
			},
			"in_stock_at": 1,
		},
	}
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Backend = "quantum"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNewUnknownBackend(t *testing.T) {
	// Validation passes for "mock" but a typo'd override must surface.
	cfg := testConfig()
	cfg.StageTimeout = 0

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestRunFullPipeline(t *testing.T) {
	analysisJSON := `{"domains": ["power_management"], "components": ["EPC2040", "GS66508T", "TPS7A02"], "strategy": "component_comparison", "geographic_focus": ["EU"]}`

	research := testutil.NewStubAdapter("arxiv").WithResults(
		testutil.Paper("GaN gate driver survey", "arXiv"),
		testutil.Paper("Hard-switching loss models", "arXiv"),
		testutil.Paper("650V GaN reliability", "arXiv"),
	)

	// Two of the three parts are stocked; the third misses everywhere.
	distributors := testutil.NewStubAdapter("supply_chain").
		WithRecord("EPC2040", quoteRecord("EPC2040", 2.10)).
		WithRecord("GS66508T", quoteRecord("GS66508T", 9.80))

	scout, err := New(testConfig(), func(o *Options) {
		o.Capability = scriptedCapability(analysisJSON)
		o.ResearchAdapters = []core.Adapter{research}
		o.SupplyChainAdapter = distributors
	})
	require.NoError(t, err)

	_, events, errs, err := scout.Run(context.Background(), "sess-1", "compare GaN FETs for a 1kW LLC stage")
	require.NoError(t, err)

	collected := testutil.CollectEvents(events)
	for e := range errs {
		t.Fatalf("unexpected run error: %v", e)
	}

	stages := testutil.StageEvents(collected)
	require.Len(t, stages, 5)

	assert.Equal(t, core.EventAnalysis, stages[0].Kind)
	assert.Equal(t, []string{"power_management"}, stages[0].Payload["domains"])
	assert.Equal(t, 3, stages[0].Payload["component_count"])

	assert.Equal(t, core.EventResearch, stages[1].Kind)
	assert.Equal(t, 3, stages[1].Payload["papers_found"])

	assert.Equal(t, core.EventComponentAnalysis, stages[2].Kind)

	assert.Equal(t, core.EventSupplyChain, stages[3].Kind)
	assert.Equal(t, "partially_succeeded", stages[3].Payload["status"])
	assert.Equal(t, 2, stages[3].Payload["components_available"])
	assert.Equal(t, []string{"supply_chain:TPS7A02"}, stages[3].Payload["failed_adapters"])

	assert.Equal(t, core.EventFinalResponse, stages[4].Kind)
	report, _ := stages[4].Payload["report"].(string)
	assert.Contains(t, report, "Executive Summary")

	terminal, ok := testutil.TerminalEvent(collected)
	require.True(t, ok)
	assert.Equal(t, core.EventCompleted, terminal.Kind)

	history, err := scout.History("sess-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Contains(t, history[1].Text, "Executive Summary")
}

func TestRunCarriesHistoryAcrossQueries(t *testing.T) {
	scout, err := New(testConfig(), func(o *Options) {
		o.Capability = scriptedCapability(`{"domains": ["general"]}`)
		o.ResearchAdapters = []core.Adapter{testutil.NewStubAdapter("arxiv")}
		o.SupplyChainAdapter = testutil.NewStubAdapter("supply_chain")
	})
	require.NoError(t, err)

	_, events, _, err := scout.Run(context.Background(), "sess-1", "first question")
	require.NoError(t, err)
	testutil.CollectEvents(events)

	_, events, _, err = scout.Run(context.Background(), "sess-1", "second question")
	require.NoError(t, err)
	testutil.CollectEvents(events)

	history, err := scout.History("sess-1")
	require.NoError(t, err)
	assert.Len(t, history, 4, "two user turns and two reports")
}

func TestCancelUnknownRun(t *testing.T) {
	scout, err := New(testConfig(), func(o *Options) {
		o.Capability = capability.NewMock()
	})
	require.NoError(t, err)

	assert.Error(t, scout.Cancel("missing"))
}
