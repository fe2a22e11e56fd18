package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/UIDickinson/EE-RI-Bot/core"
)

// Neo4jOptions configures the graph store connection.
type Neo4jOptions struct {
	// URI is the bolt/neo4j endpoint, e.g. "neo4j://localhost:7687".
	URI string
	// Username and Password authenticate against the database.
	Username string
	Password string
	// Database selects a named database; empty uses the server default.
	Database string
}

// Neo4jStore is a core.KnowledgeStore backed by a Neo4j graph. Components,
// queries and findings become nodes; Relate creates typed edges between
// them.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

var _ core.KnowledgeStore = (*Neo4jStore)(nil)

// NewNeo4jStore connects to the graph and verifies connectivity.
func NewNeo4jStore(ctx context.Context, optFns ...func(o *Neo4jOptions)) (*Neo4jStore, error) {
	opts := Neo4jOptions{
		URI:      "neo4j://localhost:7687",
		Username: "neo4j",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.Username, opts.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify neo4j connectivity: %w", err)
	}

	return &Neo4jStore{driver: driver, database: opts.Database}, nil
}

// AddComponent upserts a Component node keyed by part number.
func (s *Neo4jStore) AddComponent(ctx context.Context, componentID string, props map[string]any) error {
	return s.write(ctx, `
		MERGE (c:Component {part_number: $id})
		SET c += $props, c.updated_at = $now`,
		map[string]any{
			"id":    componentID,
			"props": sanitizeProps(props),
			"now":   time.Now().UTC().Format(time.RFC3339),
		})
}

// Relate creates a typed edge between two entity nodes, creating the nodes
// if they do not yet exist. The relation name is validated because Cypher
// cannot parameterize relationship types.
func (s *Neo4jStore) Relate(ctx context.Context, sourceID, targetID, relation string) error {
	if !validRelation(relation) {
		return fmt.Errorf("invalid relation name %q", relation)
	}

	query := fmt.Sprintf(`
		MERGE (a:Entity {id: $source})
		MERGE (b:Entity {id: $target})
		MERGE (a)-[:%s]->(b)`, relation)

	return s.write(ctx, query, map[string]any{
		"source": sourceID,
		"target": targetID,
	})
}

// RecordFindings stores a Query node carrying the run's merged findings and
// links it to the owning Session node.
func (s *Neo4jStore) RecordFindings(ctx context.Context, sessionID, queryID string, findings map[string]any) error {
	return s.write(ctx, `
		MERGE (s:Session {id: $session_id})
		MERGE (q:Query {id: $query_id})
		SET q += $findings, q.recorded_at = $now
		MERGE (s)-[:ASKED]->(q)`,
		map[string]any{
			"session_id": sessionID,
			"query_id":   queryID,
			"findings":   sanitizeProps(findings),
			"now":        time.Now().UTC().Format(time.RFC3339),
		})
}

// Close releases the underlying driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jStore) write(ctx context.Context, query string, params map[string]any) error {
	sess := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer func() { _ = sess.Close(ctx) }()

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, query, params)
	})
	if err != nil {
		return fmt.Errorf("neo4j write failed: %w", err)
	}

	return nil
}

// sanitizeProps keeps only values Neo4j accepts as node properties,
// flattening everything else to its string form.
func sanitizeProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		switch v.(type) {
		case string, bool, int, int64, float64, []string:
			out[k] = v
		default:
			out[k] = fmt.Sprintf("%v", v)
		}
	}

	return out
}

func validRelation(relation string) bool {
	if relation == "" {
		return false
	}
	for _, r := range relation {
		if (r < 'A' || r > 'Z') && r != '_' {
			return false
		}
	}

	return true
}
