package core

import "time"

// Interaction is a single prior exchange in a session's history. The history
// is read-only from the pipeline's perspective; only the serving layer (via
// a SessionStore) appends to it between queries.
type Interaction struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Session identifies the conversational context a query arrives in. It is
// immutable once created and supplied by the caller per request.
type Session struct {
	UserID     string        `json:"user_id"`
	SessionID  string        `json:"session_id"`
	ActivityID string        `json:"activity_id,omitempty"`
	RequestID  string        `json:"request_id,omitempty"`
	History    []Interaction `json:"history,omitempty"`
}

// Query is a single free-text research request. Immutable.
type Query struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

// NewQuery constructs a Query with a generated id.
func NewQuery(prompt string) Query {
	return Query{ID: NewID(), Prompt: prompt}
}

// SessionStore persists per-session interaction history so follow-up queries
// can carry conversational context. Implementations must be safe for
// concurrent use.
type SessionStore interface {
	// History returns the ordered prior interactions for a session. An
	// unknown session yields an empty history, not an error.
	History(sessionID string) ([]Interaction, error)

	// Append records an interaction at the end of the session's history.
	Append(sessionID string, it Interaction) error
}
