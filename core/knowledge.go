package core

import "context"

// KnowledgeStore records components and accumulated findings after a query
// completes. The pipeline treats it as fire-and-forget: a store failure must
// never fail the query. Implementations must be safe for concurrent use.
type KnowledgeStore interface {
	// AddComponent upserts a component node with its known properties.
	AddComponent(ctx context.Context, componentID string, props map[string]any) error

	// Relate creates a typed relationship between two component nodes.
	Relate(ctx context.Context, sourceID, targetID, relation string) error

	// RecordFindings stores the merged findings of a completed query.
	RecordFindings(ctx context.Context, sessionID, queryID string, findings map[string]any) error

	// Close releases any underlying connections.
	Close(ctx context.Context) error
}
