package core

import "context"

// Prompt is the normalized input to a capability completion call.
type Prompt struct {
	// System carries role / style instructions, kept separate because some
	// backends take system text outside the message list.
	System string
	// Text is the user-facing prompt body.
	Text string
	// History optionally supplies prior interactions for conversational
	// context.
	History []Interaction
	// MaxTokens bounds the completion length; 0 means the backend default.
	MaxTokens int
}

// CapabilityInfo describes the configured backend.
type CapabilityInfo struct {
	Provider string `json:"provider"` // "anthropic", "openai", "openrouter", "mock"
	Model    string `json:"model"`
}

// Capability is the uniform interface to the configured language-model
// backend. Stateless per call; backend selection happens once at startup,
// the interface exposes no backend-specific behavior to stages.
//
// Implementations classify failures through the shared taxonomy:
// ErrCapabilityUnavailable when the backend cannot be reached after the
// local retry budget, ErrCapabilityQuotaExceeded when the provider signals
// rate/quota limiting. Both surface inside a StageResult as an
// adapter-equivalent error, never as a crash.
type Capability interface {
	Complete(ctx context.Context, p Prompt) (string, error)
	Info() CapabilityInfo
}
