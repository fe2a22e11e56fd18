package core

import "context"

// SearchResult is one normalized hit returned by a data-source adapter.
// Field-level mapping from upstream responses is adapter-specific.
type SearchResult struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Snippet  string         `json:"snippet,omitempty"`
	Authors  []string       `json:"authors,omitempty"`
	Year     string         `json:"year,omitempty"`
	URL      string         `json:"url,omitempty"`
	Source   string         `json:"source"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Record is a normalized single-entity lookup result (e.g. one component's
// datasheet extract or one part's distributor availability).
type Record struct {
	ID     string         `json:"id"`
	Source string         `json:"source"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Adapter is the uniform contract every data source (literature, patents,
// datasheets, supply chain, regulatory) is reached through. Adapters must be
// idempotent and side-effect-free on pipeline state; only stage executors
// write results into the accumulator.
type Adapter interface {
	// Name returns the stable adapter identity used in error records.
	Name() string

	// Search returns ordered results for a free-text query. An empty result
	// set with a nil error is a valid outcome, not a failure.
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// LookupAdapter extends Adapter with identifier-based record retrieval.
type LookupAdapter interface {
	Adapter

	// Lookup resolves a single identifier (e.g. a part number) to a record.
	Lookup(ctx context.Context, id string) (Record, error)
}
