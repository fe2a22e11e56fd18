// Package knowledge persists components and research findings discovered
// during query runs. Two implementations are provided: an in-memory store
// for tests and single-process use, and a Neo4j-backed graph store.
package knowledge

import (
	"context"
	"sync"

	"github.com/UIDickinson/EE-RI-Bot/core"
)

// Relation names used when linking graph nodes.
const (
	RelationMentions   = "MENTIONS"
	RelationDiscovered = "DISCOVERED"
)

// InMemoryStore is a thread-safe core.KnowledgeStore backed by maps.
type InMemoryStore struct {
	components map[string]map[string]any
	relations  []Relation
	findings   map[string]map[string]any
	mu         sync.RWMutex
}

// Relation is a directed, typed edge between two stored entities.
type Relation struct {
	SourceID string
	TargetID string
	Type     string
}

var _ core.KnowledgeStore = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		components: make(map[string]map[string]any),
		findings:   make(map[string]map[string]any),
	}
}

// AddComponent upserts a component node. Properties merge over any existing
// entry for the same ID.
func (s *InMemoryStore) AddComponent(_ context.Context, componentID string, props map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.components[componentID]
	if !ok {
		existing = make(map[string]any, len(props))
		s.components[componentID] = existing
	}
	for k, v := range props {
		existing[k] = v
	}

	return nil
}

// Relate records a directed relation between two entities.
func (s *InMemoryStore) Relate(_ context.Context, sourceID, targetID, relation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.relations = append(s.relations, Relation{SourceID: sourceID, TargetID: targetID, Type: relation})

	return nil
}

// RecordFindings stores the merged findings of one query run, keyed by
// query ID.
func (s *InMemoryStore) RecordFindings(_ context.Context, sessionID, queryID string, findings map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make(map[string]any, len(findings)+1)
	for k, v := range findings {
		stored[k] = v
	}
	stored["session_id"] = sessionID
	s.findings[queryID] = stored

	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close(_ context.Context) error {
	return nil
}

// Component returns the stored properties for a component ID.
func (s *InMemoryStore) Component(componentID string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	props, ok := s.components[componentID]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}

	return out, true
}

// Findings returns the stored findings for a query ID.
func (s *InMemoryStore) Findings(queryID string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	findings, ok := s.findings[queryID]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(findings))
	for k, v := range findings {
		out[k] = v
	}

	return out, true
}

// Relations returns all recorded relations.
func (s *InMemoryStore) Relations() []Relation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Relation, len(s.relations))
	copy(out, s.relations)

	return out
}
