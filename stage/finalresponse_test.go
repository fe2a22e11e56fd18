package stage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UIDickinson/EE-RI-Bot/capability"
	"github.com/UIDickinson/EE-RI-Bot/core"
	"github.com/UIDickinson/EE-RI-Bot/internal/testutil"
)

func TestFinalResponseBuildsReport(t *testing.T) {
	var got core.Prompt
	mock := capability.NewMock()
	mock.RespondWith = func(p core.Prompt) (string, error) {
		got = p
		return "## Executive Summary\n\nDetailed analysis.", nil
	}

	in := Input{
		Session:    core.Session{SessionID: "sess-1"},
		Query:      core.NewQuery("compare GaN drivers"),
		Components: []string{"EPC2040"},
		Prior: map[string]any{
			core.FindingDomains: []string{"power_management"},
			core.FindingPapers: []core.SearchResult{
				testutil.Paper("GaN gate driver survey", "arXiv"),
			},
		},
	}

	f := NewFinalResponse(mock)
	result := f.Execute(context.Background(), in)

	assert.Equal(t, core.StatusSucceeded, result.Status)

	report, _ := result.Finding(core.FindingReport)
	assert.Equal(t, "## Executive Summary\n\nDetailed analysis.", report)
	assert.Equal(t, report, result.Summary["report"], "the report reaches the wire through the summary")

	assert.Contains(t, got.Text, "USER QUERY: compare GaN drivers")
	assert.Contains(t, got.Text, "DOMAINS: power_management")
	assert.Contains(t, got.Text, "GaN gate driver survey")
	assert.Contains(t, got.Text, "COMPONENTS: EPC2040")
}

func TestFinalResponseDegradedKeepsQueryOnly(t *testing.T) {
	var got core.Prompt
	mock := capability.NewMock()
	mock.RespondWith = func(p core.Prompt) (string, error) {
		got = p
		return "best effort answer", nil
	}

	in := Input{
		Session:    core.Session{SessionID: "sess-1"},
		Query:      core.NewQuery("compare GaN drivers"),
		Components: []string{"EPC2040"},
		Prior: map[string]any{
			core.FindingDomains: []string{"power_management"},
		},
		Degraded: true,
	}

	f := NewFinalResponse(mock)
	result := f.Execute(context.Background(), in)

	assert.Equal(t, core.StatusSucceeded, result.Status)
	assert.Contains(t, got.Text, "USER QUERY: compare GaN drivers")
	assert.NotContains(t, got.Text, "DOMAINS:")
	assert.NotContains(t, got.Text, "COMPONENTS:")
}

func TestFinalResponseCapsContextPapers(t *testing.T) {
	var got core.Prompt
	mock := capability.NewMock()
	mock.RespondWith = func(p core.Prompt) (string, error) {
		got = p
		return "ok", nil
	}

	papers := []core.SearchResult{
		testutil.Paper("first", "arXiv"),
		testutil.Paper("second", "arXiv"),
		testutil.Paper("third", "arXiv"),
	}

	in := Input{
		Session: core.Session{SessionID: "sess-1"},
		Query:   core.NewQuery("q"),
		Prior:   map[string]any{core.FindingPapers: papers},
	}

	f := NewFinalResponse(mock, func(o *FinalResponseOptions) { o.MaxContextPapers = 2 })
	f.Execute(context.Background(), in)

	assert.Contains(t, got.Text, "first")
	assert.Contains(t, got.Text, "second")
	assert.NotContains(t, got.Text, "third")
}

func TestFinalResponseCapabilityFailure(t *testing.T) {
	mock := capability.NewMock()
	mock.FailWith(capability.Unavailable(errors.New("refused")))

	in := Input{
		Session: core.Session{SessionID: "sess-1"},
		Query:   core.NewQuery("q"),
		Prior:   map[string]any{},
	}

	f := NewFinalResponse(mock)
	result := f.Execute(context.Background(), in)

	assert.True(t, result.Failed())
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "capability:mock", result.Errors[0].Adapter)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "long te...", truncate("long text here", 7))
}
