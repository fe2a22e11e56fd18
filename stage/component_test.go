package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UIDickinson/EE-RI-Bot/adapter/compliance"
	"github.com/UIDickinson/EE-RI-Bot/core"
	"github.com/UIDickinson/EE-RI-Bot/internal/testutil"
)

func componentInput(prompt string, components []string) Input {
	return Input{
		Session:    core.Session{SessionID: "sess-1"},
		Query:      core.NewQuery(prompt),
		Prior:      map[string]any{},
		Components: components,
	}
}

func TestComponentAnalysisLooksUpParts(t *testing.T) {
	ds := testutil.NewStubAdapter("datasheet").
		WithRecord("TPS62840", core.Record{ID: "TPS62840", Source: "datasheet", Fields: map[string]any{"component_type": "power_ic"}}).
		WithRecord("BME280", core.Record{ID: "BME280", Source: "datasheet", Fields: map[string]any{"component_type": "sensor"}})

	c := NewComponentAnalysis(ds, func(o *ComponentAnalysisOptions) { o.FanOut = fastFanOut() })
	result := c.Execute(context.Background(), componentInput("q", []string{"TPS62840", "BME280"}))

	assert.Equal(t, core.StatusSucceeded, result.Status)

	specs, ok := result.Findings[core.FindingSpecs].(map[string]any)
	require.True(t, ok)
	assert.Len(t, specs, 2)
	assert.Equal(t, 2, result.Summary["components_analyzed"])
}

func TestComponentAnalysisPartialFailure(t *testing.T) {
	// Only one of the two parts has a record; the other lookup fails.
	ds := testutil.NewStubAdapter("datasheet").
		WithRecord("TPS62840", core.Record{ID: "TPS62840", Fields: map[string]any{}})

	c := NewComponentAnalysis(ds, func(o *ComponentAnalysisOptions) { o.FanOut = fastFanOut() })
	result := c.Execute(context.Background(), componentInput("q", []string{"TPS62840", "XC9999"}))

	assert.Equal(t, core.StatusPartiallySucceeded, result.Status)
	assert.Equal(t, []string{"datasheet:XC9999"}, result.FailedAdapters())
}

func TestComponentAnalysisZeroComponents(t *testing.T) {
	ds := testutil.NewStubAdapter("datasheet")

	c := NewComponentAnalysis(ds, func(o *ComponentAnalysisOptions) { o.FanOut = fastFanOut() })
	result := c.Execute(context.Background(), componentInput("nothing specific", nil))

	assert.Equal(t, core.StatusSucceeded, result.Status, "no components is a valid outcome, not a failure")
	assert.Equal(t, 0, result.Summary["components_analyzed"])
}

func TestComponentAnalysisDegradedDetectsParts(t *testing.T) {
	ds := testutil.NewStubAdapter("datasheet").
		WithRecord("STM32L476", core.Record{ID: "STM32L476", Fields: map[string]any{}})

	in := componentInput("evaluate the STM32L476 for this design", []string{"IGNORED1"})
	in.Degraded = true

	c := NewComponentAnalysis(ds, func(o *ComponentAnalysisOptions) { o.FanOut = fastFanOut() })
	result := c.Execute(context.Background(), in)

	specs := result.Findings[core.FindingSpecs].(map[string]any)
	assert.Contains(t, specs, "STM32L476")
}

func TestComponentAnalysisCapsComponents(t *testing.T) {
	ds := testutil.NewStubAdapter("datasheet").
		WithRecord("A1", core.Record{ID: "A1", Fields: map[string]any{}}).
		WithRecord("A2", core.Record{ID: "A2", Fields: map[string]any{}})

	c := NewComponentAnalysis(ds, func(o *ComponentAnalysisOptions) {
		o.FanOut = fastFanOut()
		o.MaxComponents = 2
	})
	result := c.Execute(context.Background(), componentInput("q", []string{"A1", "A2", "A3", "A4"}))

	assert.Equal(t, core.StatusSucceeded, result.Status)
	assert.Equal(t, 2, ds.LookupCalls())
	assert.Equal(t, 2, result.Summary["components_analyzed"])
}

func TestComponentAnalysisEMCStandardsFromDatasheetApplications(t *testing.T) {
	ds := testutil.NewStubAdapter("datasheet").
		WithRecord("TPS62840", core.Record{ID: "TPS62840", Fields: map[string]any{
			"component_type": "power_ic",
			"applications":   []string{"automotive", "industrial"},
		}})

	c := NewComponentAnalysis(ds, func(o *ComponentAnalysisOptions) {
		o.FanOut = fastFanOut()
		o.Compliance = compliance.New()
	})
	result := c.Execute(context.Background(), componentInput("q", []string{"TPS62840"}))

	emc, ok := result.Findings[core.FindingEMC].(map[string]any)
	require.True(t, ok)
	require.Contains(t, emc, "automotive")
	require.Contains(t, emc, "industrial")
	assert.Contains(t, emc["automotive"], "CISPR 25")
}

func TestComponentAnalysisEMCStandardsFromQueryText(t *testing.T) {
	// No applications in the datasheet record, so the product category
	// comes from the query text instead.
	ds := testutil.NewStubAdapter("datasheet").
		WithRecord("TPS62840", core.Record{ID: "TPS62840", Fields: map[string]any{"component_type": "power_ic"}})

	c := NewComponentAnalysis(ds, func(o *ComponentAnalysisOptions) {
		o.FanOut = fastFanOut()
		o.Compliance = compliance.New()
	})
	result := c.Execute(context.Background(), componentInput("buck converter for a medical device", []string{"TPS62840"}))

	emc, ok := result.Findings[core.FindingEMC].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, emc, "medical")
	assert.Contains(t, emc["medical"], "IEC 60601-1-2")
}

func TestComponentAnalysisNoEMCWithoutCategories(t *testing.T) {
	ds := testutil.NewStubAdapter("datasheet").
		WithRecord("TPS62840", core.Record{ID: "TPS62840", Fields: map[string]any{"component_type": "power_ic"}})

	c := NewComponentAnalysis(ds, func(o *ComponentAnalysisOptions) {
		o.FanOut = fastFanOut()
		o.Compliance = compliance.New()
	})
	result := c.Execute(context.Background(), componentInput("low quiescent current buck", []string{"TPS62840"}))

	assert.NotContains(t, result.Findings, core.FindingEMC)
}

func TestComponentAnalysisComplianceForGeographicFocus(t *testing.T) {
	ds := testutil.NewStubAdapter("datasheet").
		WithRecord("TPS62840", core.Record{ID: "TPS62840", Fields: map[string]any{}})

	in := componentInput("q", []string{"TPS62840"})
	in.Prior["geographic_focus"] = []string{"EU"}

	c := NewComponentAnalysis(ds, func(o *ComponentAnalysisOptions) {
		o.FanOut = fastFanOut()
		o.Compliance = compliance.New()
	})
	result := c.Execute(context.Background(), in)

	reqs, ok := result.Findings[core.FindingCompliance].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, reqs, "EU")
	assert.Equal(t, 1, result.Summary["markets_checked"])
}
