// Package capability provides the language-model gateway used by the
// analysis and final-response stages. Concrete backends live in the
// anthropic and openai subpackages; this package hosts the shared error
// classification and a Mock implementation for tests and examples.
package capability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/UIDickinson/EE-RI-Bot/core"
)

// ClassifyStatus maps a provider HTTP status to the pipeline taxonomy.
// 429 signals quota/rate limiting; 408 and 5xx are transient and worth the
// one-shot local retry; everything else is a permanent call failure.
func ClassifyStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", core.ErrCapabilityQuotaExceeded, err)
	case status == http.StatusRequestTimeout || status >= 500:
		return core.Transient(err)
	case status == 0:
		// No HTTP status means the backend was never reached.
		return core.Transient(err)
	}
	return err
}

// Unavailable wraps the final failure of a completion call after the local
// retry budget is exhausted.
func Unavailable(err error) error {
	return fmt.Errorf("%w: %v", core.ErrCapabilityUnavailable, err)
}

// Mock is a lightweight in-memory Capability useful for tests & examples.
// Responses are keyed by exact prompt text; unmatched prompts get a
// deterministic echo. Not safe for concurrent mutation after first use.
type Mock struct {
	info      core.CapabilityInfo
	responses map[string]string
	fail      error

	// RespondWith, when set, overrides the canned responses entirely.
	RespondWith func(p core.Prompt) (string, error)
}

// NewMock constructs a Mock gateway.
func NewMock() *Mock {
	return &Mock{
		info:      core.CapabilityInfo{Provider: "mock", Model: "mock-1"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *Mock) AddResponse(prompt, response string) { m.responses[prompt] = response }

// FailWith forces every subsequent call to return err. Pass nil to reset.
func (m *Mock) FailWith(err error) { m.fail = err }

// Complete implements core.Capability.
func (m *Mock) Complete(ctx context.Context, p core.Prompt) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	if m.RespondWith != nil {
		return m.RespondWith(p)
	}
	if m.fail != nil {
		return "", m.fail
	}
	if resp, ok := m.responses[p.Text]; ok {
		return resp, nil
	}
	return fmt.Sprintf("Mock response to: %s", p.Text), nil
}

// Info implements core.Capability.
func (m *Mock) Info() core.CapabilityInfo { return m.info }
