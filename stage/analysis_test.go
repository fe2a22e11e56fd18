package stage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UIDickinson/EE-RI-Bot/capability"
	"github.com/UIDickinson/EE-RI-Bot/core"
)

func analysisInput(prompt string) Input {
	return Input{
		Session: core.Session{SessionID: "sess-1"},
		Query:   core.NewQuery(prompt),
	}
}

func TestAnalysisParsesCompletion(t *testing.T) {
	mock := capability.NewMock()
	mock.RespondWith = func(p core.Prompt) (string, error) {
		return `{"domains": ["power_management", "embedded_systems"], "components": ["TPS62840"], "strategy": "component_comparison", "geographic_focus": ["EU"]}`, nil
	}

	a := NewAnalysis(mock)
	result := a.Execute(context.Background(), analysisInput("compare buck converters"))

	assert.Equal(t, core.StatusSucceeded, result.Status)
	assert.Equal(t, []string{"power_management", "embedded_systems"}, result.StringsFinding(core.FindingDomains))
	assert.Equal(t, []string{"TPS62840"}, result.StringsFinding(core.FindingComponents))

	strategy, _ := result.Finding(core.FindingStrategy)
	assert.Equal(t, "component_comparison", strategy)
	assert.Equal(t, []string{"power_management", "embedded_systems"}, result.Summary["domains"])
	assert.Equal(t, 1, result.Summary["component_count"])
}

func TestAnalysisToleratesCodeFences(t *testing.T) {
	mock := capability.NewMock()
	mock.RespondWith = func(p core.Prompt) (string, error) {
		return "```json\n{\"domains\": [\"emc_emi\"], \"strategy\": \"innovation_search\"}\n```", nil
	}

	a := NewAnalysis(mock)
	result := a.Execute(context.Background(), analysisInput("EMI filters"))

	assert.Equal(t, core.StatusSucceeded, result.Status)
	assert.Equal(t, []string{"emc_emi"}, result.StringsFinding(core.FindingDomains))
	assert.Equal(t, []string{"EU", "Asia"}, result.StringsFinding("geographic_focus"))
}

func TestAnalysisMalformedCompletionFallsBack(t *testing.T) {
	mock := capability.NewMock()
	mock.RespondWith = func(p core.Prompt) (string, error) {
		return "I cannot answer in JSON, sorry.", nil
	}

	a := NewAnalysis(mock)
	result := a.Execute(context.Background(), analysisInput("something vague"))

	assert.Equal(t, core.StatusSucceeded, result.Status, "a reachable model that answered badly is still an understood query")
	assert.Equal(t, []string{"general"}, result.StringsFinding(core.FindingDomains))

	strategy, _ := result.Finding(core.FindingStrategy)
	assert.Equal(t, "innovation_search", strategy)
}

func TestAnalysisSupplementsComponentsFromQuery(t *testing.T) {
	mock := capability.NewMock()
	mock.RespondWith = func(p core.Prompt) (string, error) {
		return `{"domains": ["embedded_systems"], "components": []}`, nil
	}

	a := NewAnalysis(mock)
	result := a.Execute(context.Background(), analysisInput("is the STM32L476 suitable here"))

	assert.Equal(t, []string{"STM32L476"}, result.StringsFinding(core.FindingComponents))
}

func TestAnalysisCapabilityFailure(t *testing.T) {
	mock := capability.NewMock()
	mock.FailWith(capability.Unavailable(errors.New("dial tcp: refused")))

	a := NewAnalysis(mock)
	result := a.Execute(context.Background(), analysisInput("anything"))

	assert.True(t, result.Failed())
	assert.Empty(t, result.Findings)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "capability:mock", result.Errors[0].Adapter)
}

func TestAnalysisSendsHistory(t *testing.T) {
	var got core.Prompt
	mock := capability.NewMock()
	mock.RespondWith = func(p core.Prompt) (string, error) {
		got = p
		return `{"domains": ["general"]}`, nil
	}

	in := analysisInput("follow-up question")
	in.Session.History = []core.Interaction{{Role: "user", Text: "earlier question"}}

	NewAnalysis(mock).Execute(context.Background(), in)

	require.Len(t, got.History, 1)
	assert.Contains(t, got.Text, "follow-up question")
	assert.NotEmpty(t, got.System)
}
